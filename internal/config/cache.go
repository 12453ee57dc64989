package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvCacheTTL  = "PROMPTREPO_CACHE_TTL"
	EnvCacheSize = "PROMPTREPO_CACHE_SIZE"
)

// CacheConfig bounds the snapshot cache.
type CacheConfig struct {
	TTL  string `toml:"ttl"`
	Size int    `toml:"size"`
}

// TTLDuration returns TTL as a time.Duration.
func (c *CacheConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *CacheConfig) Finalize() error {
	if c.TTL == "" {
		c.TTL = "5m"
	}
	if c.Size <= 0 {
		c.Size = 256
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		c.TTL = v
	}
	if v := os.Getenv(EnvCacheSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Size = n
		}
	}

	if _, err := time.ParseDuration(c.TTL); err != nil {
		return fmt.Errorf("invalid ttl: %w", err)
	}
	if c.Size < 1 {
		return fmt.Errorf("size must be positive")
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *CacheConfig) Merge(overlay *CacheConfig) {
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.Size != 0 {
		c.Size = overlay.Size
	}
}
