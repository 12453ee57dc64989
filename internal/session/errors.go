package session

import (
	"errors"
	"net/http"
)

var (
	ErrPasswordNotConfigured = errors.New("console password is not configured (set PROMPTREPO_AUTH_PASSWORD or auth.password_hash)")
	ErrInvalidPassword       = errors.New("incorrect password")
	ErrTooManyAttempts       = errors.New("too many login attempts; wait and try again")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrSessionNotFound       = errors.New("session expired or not found")
	ErrNoSelection           = errors.New("no application and environment selected")
	ErrSelectionMismatch     = errors.New("change does not match the current selection")
	ErrNoPending             = errors.New("no change is awaiting confirmation")
	ErrPendingMismatch       = errors.New("a different change is awaiting confirmation")
)

// MapHTTPStatus maps session errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrPasswordNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNoSelection):
		return http.StatusBadRequest
	case errors.Is(err, ErrSelectionMismatch),
		errors.Is(err, ErrNoPending),
		errors.Is(err, ErrPendingMismatch):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// IsSessionError reports whether err is one of the session errors.
func IsSessionError(err error) bool {
	return MapHTTPStatus(err) != http.StatusInternalServerError
}
