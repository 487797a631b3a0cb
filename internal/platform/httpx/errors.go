package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the pipeline stages. Role-insufficient and
// ownership-denied stay distinct internally but both surface as 403.
var (
	ErrAuthenticationMissing = errors.New("authentication required")
	ErrPermissionDenied      = errors.New("insufficient permissions")
	ErrOwnershipDenied       = errors.New("access denied to this resource")
	ErrRateLimited           = errors.New("too many requests")
	ErrInvalidJSON           = errors.New("invalid json body")
	ErrValidationFailed      = errors.New("validation failed")
)

// RespondError maps a stage error to its response contract. Anything outside
// the taxonomy is a generic 500 that never echoes the underlying message.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAuthenticationMissing):
		Error(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, ErrPermissionDenied):
		Error(w, http.StatusForbidden, "Insufficient permissions")
	case errors.Is(err, ErrOwnershipDenied):
		Error(w, http.StatusForbidden, "Access denied to this resource")
	case errors.Is(err, ErrRateLimited):
		Error(w, http.StatusTooManyRequests, "Too many requests")
	case errors.Is(err, ErrInvalidJSON):
		Error(w, http.StatusBadRequest, "Invalid JSON body")
	case errors.Is(err, ErrValidationFailed):
		Error(w, http.StatusBadRequest, "Validation failed")
	default:
		Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
