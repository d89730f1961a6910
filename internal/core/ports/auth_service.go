package ports

import (
	"context"
	"time"

	"github.com/99minutos/identity-api/internal/core/domain"
)

// Identity is the result of a successful credential check. It is passed by
// value from verification to issuance.
type Identity struct {
	UserID string
}

// Session is everything a successful login hands back to the caller.
type Session struct {
	User        domain.User
	Role        string
	Roles       []string
	Permissions []string
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// RegisterInput carries a registration request after shape validation.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	IsActive bool
}

// RegisteredUser is the created account together with its assigned roles.
type RegisteredUser struct {
	User  domain.User
	Roles []string
}

// AuthService covers login and registration.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*RegisteredUser, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

// RoleService exposes role lookups to the transport layer.
type RoleService interface {
	ListRoles(ctx context.Context) ([]domain.Role, error)
}
