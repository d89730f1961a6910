package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/identity-api/internal/core/domain"
)

// TokenCache mirrors issued access-token records in Redis so the bearer
// middleware can skip the primary store.
// Key format: token:<token_id>. Entries expire with the token.
type TokenCache struct {
	client *redis.Client
}

// NewTokenCache creates a TokenCache wrapping the given Redis client.
func NewTokenCache(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

// Put stores token until its expiry. Already expired tokens are skipped.
func (c *TokenCache) Put(ctx context.Context, token *domain.AccessToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("token cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(token.ID), b, ttl).Err(); err != nil {
		return fmt.Errorf("token cache put: %w", err)
	}
	return nil
}

// Get returns domain.ErrTokenNotFound on a cache miss.
func (c *TokenCache) Get(ctx context.Context, id string) (*domain.AccessToken, error) {
	b, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("token cache get: %w", err)
	}

	var token domain.AccessToken
	if err := json.Unmarshal(b, &token); err != nil {
		return nil, fmt.Errorf("token cache decode: %w", err)
	}
	return &token, nil
}

func (c *TokenCache) key(id string) string {
	return "token:" + id
}
