package ports

import (
	"context"
	"time"

	"github.com/99minutos/identity-api/internal/core/domain"
)

// Store is the root persistence interface. Drivers (mongo, sqlite) expose
// one repository per aggregate.
type Store interface {
	Users() UserRepository
	Roles() RoleRepository
	Tokens() TokenRepository

	// WithTx runs fn inside a transaction. fn must use the ctx and Store it
	// receives; returning an error rolls every write back.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// UserRepository persists accounts.
type UserRepository interface {
	// Create inserts user and returns it with its assigned ID.
	// A duplicate email yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindActiveByEmail only matches accounts with is_active set.
	FindActiveByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

// RoleRepository persists roles, their permissions and user assignments.
type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	// Upsert creates the role when missing and grants any permission it
	// does not hold yet. Existing grants are never removed.
	Upsert(ctx context.Context, name string, permissions []string) (*domain.Role, error)
	AssignToUser(ctx context.Context, userID, roleID string, at time.Time) error
	// ListForUser returns the user's roles in assignment order.
	ListForUser(ctx context.Context, userID string) ([]domain.Role, error)
}

// TokenRepository persists issued access tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.AccessToken) error
	FindByID(ctx context.Context, id string) (*domain.AccessToken, error)
}
