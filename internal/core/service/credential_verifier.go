package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
)

// CredentialVerifier checks an email and password against active accounts.
type CredentialVerifier struct {
	store  ports.Store
	hasher *passwordHasher
	log    zerolog.Logger
}

// Verify returns the matching identity. Unknown email, inactive account and
// wrong password all yield domain.ErrInvalidCredentials.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (ports.Identity, error) {
	user, err := v.store.Users().FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			v.hasher.Burn(password)
			return ports.Identity{}, domain.ErrInvalidCredentials
		}
		return ports.Identity{}, fmt.Errorf("verify credentials: %w", err)
	}

	ok, err := v.hasher.Matches(user.PasswordHash, password)
	if err != nil {
		// The caller only learns that the credentials were rejected.
		v.log.Error().Err(err).Str("user_id", user.ID).Msg("stored password hash is unreadable")
		return ports.Identity{}, domain.ErrInvalidCredentials
	}
	if !ok {
		return ports.Identity{}, domain.ErrInvalidCredentials
	}

	return ports.Identity{UserID: user.ID}, nil
}
