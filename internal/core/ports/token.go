package ports

import (
	"context"
	"time"

	"github.com/99minutos/identity-api/internal/core/domain"
)

// MintedToken is a freshly signed bearer credential.
type MintedToken struct {
	ID        string
	Raw       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenClaims is what a presented bearer credential asserts.
type TokenClaims struct {
	ID        string
	UserID    string
	Scopes    []string
	ExpiresAt time.Time
}

// HasScope reports whether scope was granted to the token.
func (c *TokenClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenMinter signs and parses bearer credentials.
type TokenMinter interface {
	Mint(userID string, scopes []string, issuedAt time.Time) (MintedToken, error)
	Parse(raw string) (*TokenClaims, error)
}

// TokenCache keeps recently issued token records close to the request path.
// Get returns domain.ErrTokenNotFound on a miss.
type TokenCache interface {
	Put(ctx context.Context, token *domain.AccessToken) error
	Get(ctx context.Context, id string) (*domain.AccessToken, error)
}
