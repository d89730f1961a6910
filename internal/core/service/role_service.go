package service

import (
	"context"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
)

type roleService struct {
	store ports.Store
}

// NewRoleService returns a RoleService backed by store.
func NewRoleService(store ports.Store) ports.RoleService {
	return &roleService{store: store}
}

func (s *roleService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.store.Roles().List(ctx)
}
