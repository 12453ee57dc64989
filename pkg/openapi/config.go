package openapi

import "os"

// Config holds the title and description published in the document.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// ConfigEnv names the environment variables that override Config.
type ConfigEnv struct {
	Title       string
	Description string
}

// Finalize applies defaults and environment variable overrides. env may be nil.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.Title == "" {
		c.Title = "Prompt Repository API"
	}
	if c.Description == "" {
		c.Description = "Password-gated console for versioned prompt repository documents."
	}

	if env != nil {
		for name, dst := range map[string]*string{
			env.Title:       &c.Title,
			env.Description: &c.Description,
		} {
			if v := os.Getenv(name); name != "" && v != "" {
				*dst = v
			}
		}
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
}
