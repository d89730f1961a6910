package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
)

func newRBACContext(claims *ports.TokenClaims) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set(ContextClaims, claims)
	}
	return c
}

func TestRequirePermission_Allows(t *testing.T) {
	c := newRBACContext(&ports.TokenClaims{UserID: "u1", Scopes: []string{"users.view", "roles.view"}})

	called := false
	handler := RequirePermission("roles.view")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRequirePermission_Forbids(t *testing.T) {
	c := newRBACContext(&ports.TokenClaims{UserID: "u1", Scopes: []string{"profile.view"}})

	handler := RequirePermission("roles.view")(func(c echo.Context) error {
		t.Fatalf("next handler should not be called")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequirePermission_NeedsEveryPermission(t *testing.T) {
	c := newRBACContext(&ports.TokenClaims{UserID: "u1", Scopes: []string{"users.view"}})

	handler := RequirePermission("users.view", "users.update")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequirePermission_MissingClaims(t *testing.T) {
	c := newRBACContext(nil)

	handler := RequirePermission("roles.view")(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	var he *echo.HTTPError
	if err := handler(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
