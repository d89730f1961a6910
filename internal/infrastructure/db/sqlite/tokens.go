package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/99minutos/identity-api/internal/core/domain"
)

type tokensRepo struct {
	q dbtx
}

func (r *tokensRepo) Create(ctx context.Context, t *domain.AccessToken) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO access_tokens (id, user_id, name, scopes, revoked, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.UserID,
		t.Name,
		strings.Join(t.Scopes, " "),
		t.Revoked,
		t.CreatedAt.UTC(),
		t.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *tokensRepo) FindByID(ctx context.Context, id string) (*domain.AccessToken, error) {
	var (
		t      domain.AccessToken
		scopes string
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, name, scopes, revoked, created_at, expires_at
		   FROM access_tokens WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.Name, &scopes, &t.Revoked, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	t.Scopes = splitScopes(scopes)
	t.CreatedAt = t.CreatedAt.UTC()
	t.ExpiresAt = t.ExpiresAt.UTC()
	return &t, nil
}
