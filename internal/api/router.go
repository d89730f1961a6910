package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/identity-api/internal/api/handler"
	"github.com/99minutos/identity-api/internal/api/middleware"
	"github.com/99minutos/identity-api/internal/core/ports"
)

// PermissionRolesView guards the role listing.
const PermissionRolesView = "roles.view"

// Deps are the collaborators the router wires into handlers and middleware.
// TokenCache and Redis are optional.
type Deps struct {
	Store       ports.Store
	AuthService ports.AuthService
	RoleService ports.RoleService
	Minter      ports.TokenMinter
	TokenCache  ports.TokenCache
	Redis       handler.Pinger
	Now         func() time.Time
	Log         zerolog.Logger
	// Registry receives the HTTP request metrics. Defaults to the global
	// Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "identity",
		Registerer: registerer(d.Registry),
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	roleHandler := handler.NewRoleHandler(d.RoleService)
	bearer := middleware.Bearer(middleware.BearerConfig{
		Minter: d.Minter,
		Tokens: d.Store.Tokens(),
		Cache:  d.TokenCache,
		Now:    d.Now,
		Log:    d.Log,
	})

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, bearer)

	// --- Role routes ---
	e.GET("/roles", roleHandler.List, bearer, middleware.RequirePermission(PermissionRolesView))

	// --- Health probes (no auth required) ---
	deps := map[string]handler.Pinger{"store": d.Store}
	if d.Redis != nil {
		deps["redis"] = d.Redis
	}
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps, d.Log)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer(d.Registry),
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func registerer(r *prometheus.Registry) prometheus.Registerer {
	if r == nil {
		return prometheus.DefaultRegisterer
	}
	return r
}

func gatherer(r *prometheus.Registry) prometheus.Gatherer {
	if r == nil {
		return prometheus.DefaultGatherer
	}
	return r
}
