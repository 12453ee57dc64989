package repository

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/promptrepo/pkg/storage"
)

// Domain errors for versioned document operations.
var (
	ErrMalformedDocument = errors.New("stored document is not valid JSON")
	ErrVersionExists     = errors.New("a version with this timestamp already exists; save again in a second")
	ErrVersionNotFound   = errors.New("version not found")
	ErrMetadataNotFound  = errors.New("metadata document not found")
)

// MapHTTPStatus maps repository errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrVersionNotFound), errors.Is(err, ErrMetadataNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrVersionExists):
		return http.StatusConflict
	case errors.Is(err, ErrMalformedDocument):
		return http.StatusBadGateway
	}
	return storage.MapHTTPStatus(err)
}
