package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-api/internal/api/middleware"
	"github.com/99minutos/identity-api/internal/core/ports"
)

// ctxClaims extracts the token claims injected by the Bearer middleware.
// Their absence means the route was mounted without the middleware.
func ctxClaims(c echo.Context) (*ports.TokenClaims, error) {
	claims, ok := c.Get(middleware.ContextClaims).(*ports.TokenClaims)
	if !ok || claims == nil || claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}
