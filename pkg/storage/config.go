package storage

import (
	"fmt"
	"os"
	"strconv"
)

// Provider identifies an object storage backend.
type Provider string

// Supported storage providers.
const (
	ProviderAzure  Provider = "azure"
	ProviderS3     Provider = "s3"
	ProviderMemory Provider = "memory"
)

// Config holds the connection parameters for one storage location.
// Only the fields relevant to Provider are consulted.
type Config struct {
	Provider              Provider `toml:"provider"`
	Container             string   `toml:"container"`
	ConnectionString      string   `toml:"connection_string"`
	AccountURL            string   `toml:"account_url"`
	Region                string   `toml:"region"`
	Endpoint              string   `toml:"endpoint"`
	AccessKeyID           string   `toml:"access_key_id"`
	SecretAccessKey       string   `toml:"secret_access_key"`
	UseDefaultCredentials bool     `toml:"use_default_credentials"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Container        string
	ConnectionString string
	AccountURL       string
	Region           string
	Endpoint         string
	AccessKeyID      string
	SecretAccessKey  string
	DefaultCreds     string
}

// Finalize applies defaults and environment variable overrides and rejects
// unknown providers. Missing credentials are not reported here; call Validate
// when the location is about to be used.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	switch c.Provider {
	case ProviderAzure, ProviderS3, ProviderMemory:
		return nil
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Container != "" {
		c.Container = overlay.Container
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.AccountURL != "" {
		c.AccountURL = overlay.AccountURL
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.AccessKeyID != "" {
		c.AccessKeyID = overlay.AccessKeyID
	}
	if overlay.SecretAccessKey != "" {
		c.SecretAccessKey = overlay.SecretAccessKey
	}
	if overlay.UseDefaultCredentials {
		c.UseDefaultCredentials = true
	}
}

// Validate reports the first missing setting required by the provider as a
// *ConfigError. env may be nil, in which case the error carries no variable name.
func (c *Config) Validate(env *Env) error {
	if env == nil {
		env = &Env{}
	}
	if c.Container == "" {
		return &ConfigError{Key: "container", EnvVar: env.Container}
	}

	switch c.Provider {
	case ProviderAzure:
		if c.ConnectionString == "" && c.AccountURL == "" {
			return &ConfigError{Key: "connection_string", EnvVar: env.ConnectionString}
		}
	case ProviderS3:
		if c.Region == "" {
			return &ConfigError{Key: "region", EnvVar: env.Region}
		}
		if c.UseDefaultCredentials {
			return nil
		}
		if c.AccessKeyID == "" {
			return &ConfigError{Key: "access_key_id", EnvVar: env.AccessKeyID}
		}
		if c.SecretAccessKey == "" {
			return &ConfigError{Key: "secret_access_key", EnvVar: env.SecretAccessKey}
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderAzure
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Container, &c.Container)
	set(env.ConnectionString, &c.ConnectionString)
	set(env.AccountURL, &c.AccountURL)
	set(env.Region, &c.Region)
	set(env.Endpoint, &c.Endpoint)
	set(env.AccessKeyID, &c.AccessKeyID)
	set(env.SecretAccessKey, &c.SecretAccessKey)

	if env.DefaultCreds != "" {
		if v := os.Getenv(env.DefaultCreds); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.UseDefaultCredentials = b
			}
		}
	}
}
