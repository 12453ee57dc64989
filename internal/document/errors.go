package document

import (
	"errors"
	"net/http"
)

// Validation and editing errors. Messages name the rule that was violated.
var (
	ErrInvalidJSON         = errors.New("invalid JSON format")
	ErrNotObject           = errors.New("invalid JSON structure: root must be an object")
	ErrMissingApps         = errors.New("invalid JSON structure: root must contain an 'APPS' list")
	ErrAppsNotList         = errors.New("invalid JSON structure: 'APPS' must be a list")
	ErrInvalidStructure    = errors.New("invalid JSON structure")
	ErrMetadataKeyMissing  = errors.New("invalid metadata: missing application key")
	ErrMetadataKeyCase     = errors.New("invalid metadata: application key must be upper case")
	ErrMetadataExtraKeys   = errors.New("invalid metadata: root must contain only the application key")
	ErrMetadataNotList     = errors.New("invalid metadata: application key must hold a list")
	ErrApplicationNotFound = errors.New("application not found in document")
	ErrPromptIndex         = errors.New("prompt index out of range")
)

// MapHTTPStatus maps document errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidJSON):
		return http.StatusBadRequest
	case errors.Is(err, ErrApplicationNotFound), errors.Is(err, ErrPromptIndex):
		return http.StatusNotFound
	case IsValidation(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// IsValidation reports whether err is a structural validation failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrNotObject,
		ErrMissingApps,
		ErrAppsNotList,
		ErrInvalidStructure,
		ErrMetadataKeyMissing,
		ErrMetadataKeyCase,
		ErrMetadataExtraKeys,
		ErrMetadataNotList,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
