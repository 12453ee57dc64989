package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/JaimeStill/promptrepo/pkg/storage"
)

// EnvironmentConfig is one selectable storage environment and the companion
// backend that serves it.
type EnvironmentConfig struct {
	Name          string         `toml:"name"`
	BackendURL    string         `toml:"backend_url"`
	ConfirmWrites bool           `toml:"confirm_writes"`
	Storage       storage.Config `toml:"storage"`
}

// DefaultEnvironments returns the dev, qa, and prod Azure environments used
// when none are configured.
func DefaultEnvironments() []EnvironmentConfig {
	return []EnvironmentConfig{
		{Name: "dev", Storage: storage.Config{Provider: storage.ProviderAzure, Container: "app-metadata"}},
		{Name: "qa", Storage: storage.Config{Provider: storage.ProviderAzure, Container: "app-metadata-qa"}},
		{Name: "prod", Storage: storage.Config{Provider: storage.ProviderAzure, Container: "app-metadata-prod"}, ConfirmWrites: true},
	}
}

// EnvPrefix returns the variable prefix for this environment,
// e.g. PROMPTREPO_PROD_ for "prod".
func (c *EnvironmentConfig) EnvPrefix() string {
	var b strings.Builder
	b.WriteString("PROMPTREPO_")
	for _, r := range strings.ToUpper(c.Name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteByte('_')
	return b.String()
}

// StorageEnv maps the environment's storage settings to variable names.
func (c *EnvironmentConfig) StorageEnv() *storage.Env {
	p := c.EnvPrefix()
	return &storage.Env{
		Container:        p + "CONTAINER",
		ConnectionString: p + "CONNECTION_STRING",
		AccountURL:       p + "ACCOUNT_URL",
		Region:           p + "REGION",
		Endpoint:         p + "ENDPOINT",
		AccessKeyID:      p + "ACCESS_KEY_ID",
		SecretAccessKey:  p + "SECRET_ACCESS_KEY",
		DefaultCreds:     p + "USE_DEFAULT_CREDENTIALS",
	}
}

// BackendURLEnv is the variable that overrides BackendURL.
func (c *EnvironmentConfig) BackendURLEnv() string {
	return c.EnvPrefix() + "BACKEND_URL"
}

// Finalize applies environment variable overrides and finalizes storage.
// Missing credentials are left for storage.Config.Validate.
func (c *EnvironmentConfig) Finalize() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if v := os.Getenv(c.BackendURLEnv()); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv(c.EnvPrefix() + "CONFIRM_WRITES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ConfirmWrites = b
		}
	}
	c.BackendURL = strings.TrimRight(c.BackendURL, "/")
	return c.Storage.Finalize(c.StorageEnv())
}

// Merge overwrites non-zero fields from overlay.
func (c *EnvironmentConfig) Merge(overlay *EnvironmentConfig) {
	if overlay.BackendURL != "" {
		c.BackendURL = overlay.BackendURL
	}
	if overlay.ConfirmWrites {
		c.ConfirmWrites = true
	}
	c.Storage.Merge(&overlay.Storage)
}
