package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvBackendToken   = "PROMPTREPO_BACKEND_TOKEN"
	EnvBackendTimeout = "PROMPTREPO_BACKEND_TIMEOUT"
)

// BackendConfig holds the shared settings for companion backend calls.
// Per-environment base URLs live on EnvironmentConfig.
type BackendConfig struct {
	Token   string `toml:"token"`
	Timeout string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *BackendConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *BackendConfig) Finalize() error {
	if c.Timeout == "" {
		c.Timeout = "5s"
	}
	if v := os.Getenv(EnvBackendToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvBackendTimeout); v != "" {
		c.Timeout = v
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *BackendConfig) Merge(overlay *BackendConfig) {
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}
