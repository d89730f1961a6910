package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/99minutos/identity-api/internal/core/domain"
)

type usersRepo struct {
	q dbtx
}

const userColumns = `id, name, email, password_hash, is_active, email_verified_at, login_at, created_at, updated_at`

func (r *usersRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	created := *u
	created.ID = newID()

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID,
		created.Name,
		created.Email,
		created.PasswordHash,
		created.IsActive,
		nullTime(created.EmailVerifiedAt),
		nullTime(created.LoginAt),
		created.CreatedAt.UTC(),
		created.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (r *usersRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanOne(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) FindActiveByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND is_active = 1`, email))
}

func (r *usersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, email).Scan(&n); err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *usersRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET login_at = ?, updated_at = ? WHERE id = ?`, at.UTC(), at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update login_at: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update login_at: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *usersRepo) scanOne(row *sql.Row) (*domain.User, error) {
	var (
		u        domain.User
		verified sql.NullTime
		loginAt  sql.NullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.IsActive,
		&verified,
		&loginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.EmailVerifiedAt = timePtr(verified)
	u.LoginAt = timePtr(loginAt)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}
