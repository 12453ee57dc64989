package prompts

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/promptrepo/internal/backend"
	"github.com/JaimeStill/promptrepo/internal/dispatch"
	"github.com/JaimeStill/promptrepo/internal/document"
)

// Domain errors for prompt repository operations.
var (
	ErrUnsupportedApp = errors.New("unsupported application")
	ErrNoChanges      = errors.New("no changes detected")
	ErrForeignVersion = errors.New("version does not belong to the application")
	ErrEmptyChange    = errors.New("change has nothing to write")
)

// MapHTTPStatus maps errors from any layer below the prompt system to HTTP
// status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnsupportedApp),
		errors.Is(err, ErrForeignVersion),
		errors.Is(err, ErrEmptyChange):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoChanges):
		return http.StatusUnprocessableEntity
	case errors.Is(err, document.ErrInvalidJSON),
		errors.Is(err, document.ErrApplicationNotFound),
		errors.Is(err, document.ErrPromptIndex),
		document.IsValidation(err):
		return document.MapHTTPStatus(err)
	case backend.IsBackendError(err):
		return backend.MapHTTPStatus(err)
	}
	return dispatch.MapHTTPStatus(err)
}
