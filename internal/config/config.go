package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvPromptRepoEnv      = "PROMPTREPO_ENV"
	EnvShutdownTimeout    = "PROMPTREPO_SHUTDOWN_TIMEOUT"
	EnvVersion            = "PROMPTREPO_VERSION"
	EnvApps               = "PROMPTREPO_APPS"
	EnvLegacyApp          = "PROMPTREPO_LEGACY_APP"
	EnvLegacyFallback     = "PROMPTREPO_LEGACY_FALLBACK"
	EnvDefaultEnvironment = "PROMPTREPO_DEFAULT_ENVIRONMENT"
)

// DefaultApps are the supported application ids when none are configured.
var DefaultApps = []string{"mmx", "FAST", "salesmate", "mmm1", "kythera"}

// Config is the root configuration for the prompt repository console.
type Config struct {
	Version            string              `toml:"version"`
	ShutdownTimeout    string              `toml:"shutdown_timeout"`
	Apps               []string            `toml:"apps"`
	LegacyApp          string              `toml:"legacy_app"`
	LegacyFallback     bool                `toml:"legacy_fallback"`
	DefaultEnvironment string              `toml:"default_environment"`
	Aliases            map[string]string   `toml:"aliases"`
	Server             ServerConfig        `toml:"server"`
	Log                LogConfig           `toml:"log"`
	Auth               AuthConfig          `toml:"auth"`
	Cache              CacheConfig         `toml:"cache"`
	Backend            BackendConfig       `toml:"backend"`
	API                APIConfig           `toml:"api"`
	Environments       []EnvironmentConfig `toml:"environments"`
}

// Env returns the PROMPTREPO_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvPromptRepoEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Environment returns the environment named name.
func (c *Config) Environment(name string) (*EnvironmentConfig, bool) {
	for i := range c.Environments {
		if c.Environments[i].Name == name {
			return &c.Environments[i], true
		}
	}
	return nil, false
}

// SupportsApp reports whether app is one of the configured applications, ignoring case.
func (c *Config) SupportsApp(app string) bool {
	return slices.ContainsFunc(c.Apps, func(a string) bool {
		return strings.EqualFold(a, app)
	})
}

// Load reads config.toml from the working directory.
func Load() (*Config, error) {
	return LoadFrom(BaseConfigFile)
}

// LoadFrom loads a .env file beside path (if present) into the process
// environment without overriding variables already set, reads the base config
// (if present), applies any environment overlay, and finalizes all values.
// If no base file exists, defaults and environment variables provide all
// configuration.
func LoadFrom(path string) (*Config, error) {
	dir := filepath.Dir(path)

	if err := loadDotEnv(filepath.Join(dir, DotEnvFile)); err != nil {
		return nil, err
	}

	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(dir); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
// Environments are merged by name; unknown names are appended.
func (c *Config) Merge(overlay *Config) {
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Apps != nil {
		c.Apps = overlay.Apps
	}
	if overlay.LegacyApp != "" {
		c.LegacyApp = overlay.LegacyApp
	}
	if overlay.LegacyFallback {
		c.LegacyFallback = true
	}
	if overlay.DefaultEnvironment != "" {
		c.DefaultEnvironment = overlay.DefaultEnvironment
	}
	if overlay.Aliases != nil {
		if c.Aliases == nil {
			c.Aliases = make(map[string]string, len(overlay.Aliases))
		}
		for k, v := range overlay.Aliases {
			c.Aliases[k] = v
		}
	}

	c.Server.Merge(&overlay.Server)
	c.Log.Merge(&overlay.Log)
	c.Auth.Merge(&overlay.Auth)
	c.Cache.Merge(&overlay.Cache)
	c.Backend.Merge(&overlay.Backend)
	c.API.Merge(&overlay.API)

	for i := range overlay.Environments {
		o := &overlay.Environments[i]
		if env, ok := c.Environment(o.Name); ok {
			env.Merge(o)
			continue
		}
		c.Environments = append(c.Environments, *o)
	}
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Log.Finalize(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Auth.Finalize(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Cache.Finalize(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Backend.Finalize(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	for i := range c.Environments {
		if err := c.Environments[i].Finalize(); err != nil {
			return fmt.Errorf("environment %q: %w", c.Environments[i].Name, err)
		}
	}
	return c.validate()
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if len(c.Apps) == 0 {
		c.Apps = slices.Clone(DefaultApps)
	}
	if c.LegacyApp == "" {
		c.LegacyApp = "mmx"
	}
	if len(c.Environments) == 0 {
		c.Environments = DefaultEnvironments()
	}
	if c.DefaultEnvironment == "" {
		c.DefaultEnvironment = c.Environments[0].Name
	}
	normalized := make(map[string]string, len(c.Aliases))
	for k, v := range c.Aliases {
		normalized[strings.ToLower(k)] = v
	}
	c.Aliases = normalized
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvApps); v != "" {
		c.Apps = splitList(v)
	}
	if v := os.Getenv(EnvLegacyApp); v != "" {
		c.LegacyApp = v
	}
	if v := os.Getenv(EnvLegacyFallback); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LegacyFallback = b
		}
	}
	if v := os.Getenv(EnvDefaultEnvironment); v != "" {
		c.DefaultEnvironment = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	if len(c.Apps) == 0 {
		return errors.New("apps must not be empty")
	}
	seen := make(map[string]bool, len(c.Environments))
	for _, env := range c.Environments {
		if seen[env.Name] {
			return fmt.Errorf("duplicate environment %q", env.Name)
		}
		seen[env.Name] = true
	}
	if !seen[c.DefaultEnvironment] {
		return fmt.Errorf("default_environment %q is not a configured environment", c.DefaultEnvironment)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvPromptRepoEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
