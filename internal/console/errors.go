package console

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/promptrepo/internal/prompts"
	"github.com/JaimeStill/promptrepo/internal/session"
)

// ErrBodyTooLarge indicates a request body over the configured document size.
var ErrBodyTooLarge = errors.New("request body too large")

// MapHTTPStatus maps console, session, and prompt errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case session.IsSessionError(err):
		return session.MapHTTPStatus(err)
	}
	return prompts.MapHTTPStatus(err)
}
