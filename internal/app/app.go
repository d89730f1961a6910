package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/identity-api/internal/api"
	"github.com/99minutos/identity-api/internal/api/handler"
	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
	"github.com/99minutos/identity-api/internal/core/service"
	"github.com/99minutos/identity-api/internal/infrastructure/config"
	mongostore "github.com/99minutos/identity-api/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/identity-api/internal/infrastructure/db/redis"
	"github.com/99minutos/identity-api/internal/infrastructure/db/sqlite"
	"github.com/99minutos/identity-api/internal/infrastructure/token"
)

const shutdownGracePeriod = 10 * time.Second

// Application holds the wired service and its long-lived connections.
type Application struct {
	cfg *config.Config
	log zerolog.Logger

	store ports.Store
	redis *goredis.Client

	server *http.Server
}

// New connects the store and cache, seeds roles and builds the HTTP server.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, error) {
	app := &Application{cfg: cfg, log: log}

	policy, err := domain.ParsePermissionPolicy(cfg.Auth.PermissionPolicy)
	if err != nil {
		return nil, err
	}

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}

	if err := app.initRedis(ctx); err != nil {
		_ = app.store.Close(ctx)
		return nil, err
	}

	if cfg.Auth.SeedRoles {
		if err := service.EnsureRoles(ctx, app.store, service.DefaultRoleSeeds, log); err != nil {
			app.closeConnections(ctx)
			return nil, fmt.Errorf("seed roles: %w", err)
		}
		log.Info().Int("roles", len(service.DefaultRoleSeeds)).Msg("default roles ensured")
	}

	minter, err := token.NewJWTMinter(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	if err != nil {
		app.closeConnections(ctx)
		return nil, fmt.Errorf("token minter: %w", err)
	}

	cache := redisstore.NewTokenCache(app.redis)

	authSvc, err := service.NewAuthService(app.store, minter, cache, service.AuthConfig{
		Policy:     policy,
		BcryptCost: cfg.Auth.BcryptCost,
		ClientName: cfg.Auth.TokenClientName,
	}, log)
	if err != nil {
		app.closeConnections(ctx)
		return nil, err
	}

	router := api.NewRouter(api.Deps{
		Store:       app.store,
		AuthService: authSvc,
		RoleService: service.NewRoleService(app.store),
		Minter:      minter,
		TokenCache:  cache,
		Redis: handler.PingFunc(func(ctx context.Context) error {
			return app.redis.Ping(ctx).Err()
		}),
		Log: log,
	})

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return app, nil
}

func (app *Application) initStore(ctx context.Context) error {
	switch app.cfg.Store.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, app.cfg.SQLite.DSN)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		app.store = store
	default:
		store, err := mongostore.Open(ctx, mongostore.Config{
			URI:      app.cfg.Mongo.URI,
			Database: app.cfg.Mongo.Database,
		})
		if err != nil {
			return fmt.Errorf("open mongo store: %w", err)
		}
		app.store = store
	}

	app.log.Info().Str("driver", app.cfg.Store.Driver).Msg("store ready")
	return nil
}

func (app *Application) initRedis(ctx context.Context) error {
	client, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     app.cfg.Redis.Addr,
		Password: app.cfg.Redis.Password,
		DB:       app.cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	app.redis = client
	return nil
}

// Run serves HTTP until the server fails or a shutdown signal arrives.
func (app *Application) Run() error {
	app.log.Info().Str("addr", app.server.Addr).Msg("identity api starting")

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		return app.Shutdown()
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the store and Redis.
func (app *Application) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.log.Error().Err(err).Msg("graceful server shutdown failed")
		_ = app.server.Close()
	}

	app.closeConnections(ctx)
	app.log.Info().Msg("identity api stopped")
	return nil
}

func (app *Application) closeConnections(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.log.Error().Err(err).Msg("error closing redis")
		}
	}
	if app.store != nil {
		if err := app.store.Close(ctx); err != nil {
			app.log.Error().Err(err).Msg("error closing store")
		}
	}
}
