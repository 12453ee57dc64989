package dispatch

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/promptrepo/internal/repository"
)

// ErrUnknownEnvironment indicates a selection of an environment that is not configured.
var ErrUnknownEnvironment = errors.New("unknown environment")

// MapHTTPStatus maps dispatch errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnknownEnvironment) {
		return http.StatusBadRequest
	}
	return repository.MapHTTPStatus(err)
}
