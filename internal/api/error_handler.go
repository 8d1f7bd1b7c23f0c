package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusGone, "link has expired"
	case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrPurposeMismatch):
		return http.StatusUnauthorized, "invalid link"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrAPIKeyBlocked):
		return http.StatusForbidden, "api key blocked"
	case errors.Is(err, domain.ErrAggregateNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrDuplicateRequest),
		errors.Is(err, domain.ErrAlreadyConfirmed):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrAuthorUnresolvable),
		errors.Is(err, domain.ErrInvalidSnapshot),
		errors.Is(err, domain.ErrInvalidPost),
		errors.Is(err, domain.ErrInvalidRole):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrLocked):
		return http.StatusLocked, err.Error()
	case errors.Is(err, domain.ErrTransportFailure):
		log.Warn().Err(err).Str("path", c.Path()).Msg("notification transport failed")
		return http.StatusBadGateway, "notification could not be delivered"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
