package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
)

// RequirePermission enforces that the bearer token carries every listed
// permission. It must run after Bearer.
func RequirePermission(permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ContextClaims).(*ports.TokenClaims)
			if !ok || claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			for _, p := range permissions {
				if !claims.HasScope(p) {
					return domain.ErrForbidden
				}
			}
			return next(c)
		}
	}
}
