package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/promptrepo/pkg/formatting"
	"github.com/JaimeStill/promptrepo/pkg/middleware"
	"github.com/JaimeStill/promptrepo/pkg/openapi"
	"github.com/JaimeStill/promptrepo/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "PROMPTREPO_CORS_ENABLED",
	Origins:          "PROMPTREPO_CORS_ORIGINS",
	AllowedMethods:   "PROMPTREPO_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "PROMPTREPO_CORS_ALLOWED_HEADERS",
	AllowCredentials: "PROMPTREPO_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "PROMPTREPO_CORS_MAX_AGE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "PROMPTREPO_OPENAPI_TITLE",
	Description: "PROMPTREPO_OPENAPI_DESCRIPTION",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "PROMPTREPO_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "PROMPTREPO_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, request limits, CORS, and pagination settings.
type APIConfig struct {
	BasePath        string                `toml:"base_path"`
	MaxDocumentSize string                `toml:"max_document_size"`
	CORS            middleware.CORSConfig `toml:"cors"`
	OpenAPI         openapi.Config        `toml:"openapi"`
	Pagination      pagination.Config     `toml:"pagination"`
}

// MaxDocumentSizeBytes returns the largest accepted request body.
func (c *APIConfig) MaxDocumentSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxDocumentSize)
	if err != nil {
		return 5 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if _, err := formatting.ParseBytes(c.MaxDocumentSize); err != nil {
		return fmt.Errorf("invalid max_document_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxDocumentSize != "" {
		c.MaxDocumentSize = overlay.MaxDocumentSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.OpenAPI.Merge(&overlay.OpenAPI)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxDocumentSize == "" {
		c.MaxDocumentSize = "5MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("PROMPTREPO_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("PROMPTREPO_API_MAX_DOCUMENT_SIZE"); v != "" {
		c.MaxDocumentSize = v
	}
}
