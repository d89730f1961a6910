package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-api/internal/core/ports"
)

// RoleSeed describes a role that must exist before accounts can register.
type RoleSeed struct {
	Name        string
	Permissions []string
}

// DefaultRoleSeeds are applied at startup unless seeding is disabled.
var DefaultRoleSeeds = []RoleSeed{
	{Name: "admin", Permissions: []string{"users.view", "users.create", "users.update", "roles.view"}},
	{Name: "user", Permissions: []string{"profile.view"}},
}

// EnsureRoles upserts every seed in a single transaction. Running it again is
// a no-op for roles and permissions that already exist.
func EnsureRoles(ctx context.Context, store ports.Store, seeds []RoleSeed, log zerolog.Logger) error {
	return store.WithTx(ctx, func(ctx context.Context, tx ports.Store) error {
		for _, seed := range seeds {
			role, err := tx.Roles().Upsert(ctx, seed.Name, seed.Permissions)
			if err != nil {
				return fmt.Errorf("seed role %q: %w", seed.Name, err)
			}
			log.Debug().Str("role", role.Name).Strs("permissions", role.Permissions).Msg("role ensured")
		}
		return nil
	})
}
