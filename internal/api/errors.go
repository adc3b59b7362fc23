package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/pixel-mosaic/internal/auth"
	"github.com/ryanbastic/pixel-mosaic/internal/pixel"
)

func init() {
	// Request validation failures are client errors like any other bad input.
	newError := huma.NewError
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		return newError(status, msg, errs...)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

// httpError maps a domain error to the problem response returned to clients.
// Unrecognized errors are logged and reported as a generic 500.
func httpError(logger *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, pixel.ErrUnauthenticated):
		return huma.Error401Unauthorized("authentication required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return huma.Error401Unauthorized("invalid credentials")
	case errors.Is(err, pixel.ErrInvalidArgument),
		errors.Is(err, auth.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, pixel.ErrAlreadyOwned):
		return huma.Error400BadRequest("pixel is already owned")
	case errors.Is(err, pixel.ErrSignatureInvalid):
		return huma.Error400BadRequest("webhook signature verification failed")
	case errors.Is(err, auth.ErrTokenInvalid):
		return huma.Error400BadRequest(auth.ErrTokenInvalid.Error())
	case errors.Is(err, pixel.ErrPaymentRequired):
		return huma.NewError(http.StatusPaymentRequired, "pixel must be purchased before it can be colored")
	case errors.Is(err, pixel.ErrForbidden):
		return huma.Error403Forbidden("pixel is owned by someone else")
	case errors.Is(err, auth.ErrEmailNotVerified):
		return huma.Error403Forbidden("email address has not been verified")
	case errors.Is(err, pixel.ErrNotFound):
		return huma.Error404NotFound("pixel not found")
	case errors.Is(err, auth.ErrEmailTaken):
		return huma.Error409Conflict("email already registered")
	case errors.Is(err, pixel.ErrUpstream):
		logger.Error(op+" failed", "error", err)
		return huma.Error500InternalServerError("payment processor error")
	default:
		logger.Error(op+" failed", "error", err)
		return huma.Error500InternalServerError(op + " failed")
	}
}
