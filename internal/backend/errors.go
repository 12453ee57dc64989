package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRequest     = errors.New("invalid backend request")
	ErrUnavailable = errors.New("backend unavailable")
	ErrDecode      = errors.New("invalid backend response")
)

// StatusError is a non-2xx response from the companion service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned %d", e.Code)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// IsBackendError reports whether err came from a companion service call.
func IsBackendError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrRequest) ||
		errors.Is(err, ErrDecode)
}

// MapHTTPStatus maps backend errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return http.StatusBadGateway
	case errors.Is(err, ErrUnavailable):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrRequest):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
