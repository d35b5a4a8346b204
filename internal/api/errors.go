package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/phrazzld/taskman-api/internal/service/auth"
	"github.com/phrazzld/taskman-api/internal/store"
)

// Client-facing messages.
const (
	msgUnexpected      = "An unexpected error occurred"
	msgUnauthenticated = "Please authenticate."
	msgLoginFailed     = "Unable to login"
	msgTaskNotFound    = "Task not found"
	msgUserNotFound    = "User not found"
	msgAvatarNotFound  = "Avatar not found"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError

	// Bad credentials are a client error, not an authentication failure.
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Validation errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors are reported as bad requests.
	case store.IsDuplicateError(err):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return msgUnexpected
	}

	var ve *domain.ValidationError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return msgLoginFailed

	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return msgUnauthenticated

	// Validation messages are written for clients.
	case errors.As(err, &ve):
		return ve.Error()

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, service.ErrAvatarNotFound):
		return msgAvatarNotFound

	case errors.Is(err, store.ErrUserNotFound):
		return msgUserNotFound

	case errors.Is(err, store.ErrTaskNotFound):
		return msgTaskNotFound

	case store.IsNotFoundError(err):
		return "Not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case store.IsDuplicateError(err):
		return "Resource already exists"

	default:
		return msgUnexpected
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted details. A non-empty fallback replaces the generic 500 message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
