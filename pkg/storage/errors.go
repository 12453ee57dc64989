package storage

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates the requested object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrExists indicates a create-only write found an object already at the key.
	ErrExists = errors.New("object already exists")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the storage key contains a path traversal segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)

// ConfigError reports a required setting that is missing for a storage location.
type ConfigError struct {
	Key    string
	EnvVar string
}

func (e *ConfigError) Error() string {
	if e.EnvVar == "" {
		return fmt.Sprintf("missing configuration: %s", e.Key)
	}
	return fmt.Sprintf("missing configuration: %s (set %s)", e.Key, e.EnvVar)
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// MapHTTPStatus maps storage errors to HTTP status codes.
// Unclassified provider errors are treated as upstream failures.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrExists):
		return http.StatusConflict
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case IsConfigError(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
