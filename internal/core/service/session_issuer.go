package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
)

// SessionIssuer turns a verified identity into a bearer session.
type SessionIssuer struct {
	store      ports.Store
	minter     ports.TokenMinter
	cache      ports.TokenCache
	policy     domain.PermissionPolicy
	clientName string
	now        func() time.Time
	log        zerolog.Logger
}

// Issue re-resolves the identity, mints a token scoped to its permissions and
// records the login. The token record and login_at commit together.
func (s *SessionIssuer) Issue(ctx context.Context, id ports.Identity) (*ports.Session, error) {
	var (
		session *ports.Session
		record  *domain.AccessToken
	)

	err := s.store.WithTx(ctx, func(ctx context.Context, tx ports.Store) error {
		user, err := tx.Users().FindByID(ctx, id.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrUnprocessableIdentity
			}
			return fmt.Errorf("resolve identity: %w", err)
		}

		roles, err := tx.Roles().ListForUser(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("load roles: %w", err)
		}
		grant := s.policy.Resolve(roles)

		now := s.now().UTC()
		minted, err := s.minter.Mint(user.ID, grant.Permissions, now)
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}

		record = &domain.AccessToken{
			ID:        minted.ID,
			UserID:    user.ID,
			Name:      s.clientName,
			Scopes:    grant.Permissions,
			CreatedAt: minted.IssuedAt,
			ExpiresAt: minted.ExpiresAt,
		}
		if err := tx.Tokens().Create(ctx, record); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}

		if err := tx.Users().TouchLogin(ctx, user.ID, now); err != nil {
			return fmt.Errorf("record login: %w", err)
		}
		user.LoginAt = &now

		session = &ports.Session{
			User:        *user,
			Role:        grant.Role,
			Roles:       grant.Roles,
			Permissions: grant.Permissions,
			AccessToken: minted.Raw,
			TokenType:   domain.TokenTypeBearer,
			ExpiresAt:   minted.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnprocessableIdentity) {
			s.log.Error().Str("user_id", id.UserID).Msg("verified identity no longer resolves")
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, record); err != nil {
			s.log.Warn().Err(err).Str("token_id", record.ID).Msg("failed to cache issued token")
		}
	}

	s.log.Info().
		Str("user_id", session.User.ID).
		Str("token_id", record.ID).
		Int("scopes", len(record.Scopes)).
		Msg("session issued")

	return session, nil
}
