package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/identity-api/internal/api/handler"
	"github.com/99minutos/identity-api/internal/core/domain"
)

// Stable error codes for non-validation failures.
const (
	codeAuthenticationFailed = "authentication_failed"
	codeForbidden            = "forbidden"
	codeInternal             = "internal_error"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error", "code", "fields"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.ErrorResponse) {
	// Request shape and field violations.
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, handler.ErrorResponse{
			Error:  verr.Error(),
			Code:   verr.Code,
			Fields: verr.Fields,
		}
	}

	// Echo's own errors (404 from router, 401 from middleware, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.ErrorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, handler.ErrorResponse{
			Error: domain.ErrInvalidCredentials.Error(),
			Code:  codeAuthenticationFailed,
		}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, handler.ErrorResponse{
			Error: "access forbidden",
			Code:  codeForbidden,
		}
	}

	// Unexpected error, UnprocessableIdentity included: log the real cause,
	// return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, handler.ErrorResponse{
		Error: "internal server error",
		Code:  codeInternal,
	}
}
