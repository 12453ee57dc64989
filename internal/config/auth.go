package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvAuthPassword      = "PROMPTREPO_AUTH_PASSWORD"
	EnvAuthPasswordHash  = "PROMPTREPO_AUTH_PASSWORD_HASH"
	EnvAuthSessionSecret = "PROMPTREPO_AUTH_SESSION_SECRET"
	EnvAuthSessionTTL    = "PROMPTREPO_AUTH_SESSION_TTL"
	EnvAuthCookieSecure  = "PROMPTREPO_AUTH_COOKIE_SECURE"
)

// AuthConfig holds the shared console password and session settings.
// An empty password is not a load error; logins fail until one is set.
type AuthConfig struct {
	Password      string  `toml:"password"`
	PasswordHash  string  `toml:"password_hash"`
	SessionSecret string  `toml:"session_secret"`
	SessionTTL    string  `toml:"session_ttl"`
	MaxSessions   int     `toml:"max_sessions"`
	CookieName    string  `toml:"cookie_name"`
	CookieSecure  bool    `toml:"cookie_secure"`
	LoginRate     float64 `toml:"login_rate"`
	LoginBurst    int     `toml:"login_burst"`
}

// SessionTTLDuration returns SessionTTL as a time.Duration.
func (c *AuthConfig) SessionTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuthConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.PasswordHash != "" {
		c.PasswordHash = overlay.PasswordHash
	}
	if overlay.SessionSecret != "" {
		c.SessionSecret = overlay.SessionSecret
	}
	if overlay.SessionTTL != "" {
		c.SessionTTL = overlay.SessionTTL
	}
	if overlay.MaxSessions != 0 {
		c.MaxSessions = overlay.MaxSessions
	}
	if overlay.CookieName != "" {
		c.CookieName = overlay.CookieName
	}
	if overlay.CookieSecure {
		c.CookieSecure = true
	}
	if overlay.LoginRate != 0 {
		c.LoginRate = overlay.LoginRate
	}
	if overlay.LoginBurst != 0 {
		c.LoginBurst = overlay.LoginBurst
	}
}

func (c *AuthConfig) loadDefaults() {
	if c.SessionTTL == "" {
		c.SessionTTL = "8h"
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 1024
	}
	if c.CookieName == "" {
		c.CookieName = "promptrepo_session"
	}
	if c.LoginRate <= 0 {
		c.LoginRate = 1
	}
	if c.LoginBurst <= 0 {
		c.LoginBurst = 5
	}
}

func (c *AuthConfig) loadEnv() {
	if v := os.Getenv(EnvAuthPassword); v != "" {
		c.Password = v
	}
	if v := os.Getenv(EnvAuthPasswordHash); v != "" {
		c.PasswordHash = v
	}
	if v := os.Getenv(EnvAuthSessionSecret); v != "" {
		c.SessionSecret = v
	}
	if v := os.Getenv(EnvAuthSessionTTL); v != "" {
		c.SessionTTL = v
	}
	if v := os.Getenv(EnvAuthCookieSecure); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.CookieSecure = b
		}
	}
}

func (c *AuthConfig) validate() error {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return fmt.Errorf("invalid session_ttl: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	return nil
}
