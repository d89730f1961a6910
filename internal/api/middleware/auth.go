package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/identity-api/internal/api/metrics"
	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
)

// ContextClaims is the echo.Context key holding the *ports.TokenClaims of an
// authenticated request.
const ContextClaims = "claims"

// BearerConfig wires the Bearer middleware. Cache and Now are optional.
type BearerConfig struct {
	Minter ports.TokenMinter
	Tokens ports.TokenRepository
	Cache  ports.TokenCache
	Now    func() time.Time
	Log    zerolog.Logger
}

// Bearer validates the JWT, confirms its token record is still usable and
// injects the claims into context. Records are read from the cache first and
// from the store on a miss.
func Bearer(cfg BearerConfig) echo.MiddlewareFunc {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], domain.TokenTypeBearer) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := cfg.Minter.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			record, err := lookupToken(c.Request().Context(), cfg, claims.ID)
			if errors.Is(err, domain.ErrTokenNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if err != nil {
				return err
			}

			if record.UserID != claims.UserID || !record.Usable(cfg.Now()) {
				return echo.NewHTTPError(http.StatusUnauthorized, "token revoked or expired")
			}

			claims.Scopes = record.Scopes
			c.Set(ContextClaims, claims)

			return next(c)
		}
	}
}

func lookupToken(ctx context.Context, cfg BearerConfig, id string) (*domain.AccessToken, error) {
	if cfg.Cache != nil {
		record, err := cfg.Cache.Get(ctx, id)
		if err == nil {
			metrics.TokenLookupsTotal.WithLabelValues("cache").Inc()
			return record, nil
		}
		if !errors.Is(err, domain.ErrTokenNotFound) {
			cfg.Log.Warn().Err(err).Str("token_id", id).Msg("token cache read failed")
		}
	}

	record, err := cfg.Tokens.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.TokenLookupsTotal.WithLabelValues("store").Inc()

	if cfg.Cache != nil {
		if err := cfg.Cache.Put(ctx, record); err != nil {
			cfg.Log.Warn().Err(err).Str("token_id", id).Msg("token cache write failed")
		}
	}
	return record, nil
}
