package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/99minutos/identity-api/internal/core/domain"
)

type rolesRepo struct {
	q dbtx
}

func (r *rolesRepo) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM roles WHERE name = ?`, name,
	).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}

	if role.Permissions, err = r.permissions(ctx, role.ID); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *rolesRepo) List(ctx context.Context) ([]domain.Role, error) {
	roles, err := r.query(ctx, `SELECT id, name, created_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return r.withPermissions(ctx, roles)
}

func (r *rolesRepo) Upsert(ctx context.Context, name string, permissions []string) (*domain.Role, error) {
	now := time.Now().UTC()

	if _, err := r.q.ExecContext(ctx,
		`INSERT INTO roles (id, name, created_at) VALUES (?, ?, ?) ON CONFLICT (name) DO NOTHING`,
		newID(), name, now,
	); err != nil {
		return nil, fmt.Errorf("insert role: %w", err)
	}

	var roleID string
	if err := r.q.QueryRowContext(ctx, `SELECT id FROM roles WHERE name = ?`, name).Scan(&roleID); err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}

	for _, perm := range permissions {
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO permissions (id, name, created_at) VALUES (?, ?, ?) ON CONFLICT (name) DO NOTHING`,
			newID(), perm, now,
		); err != nil {
			return nil, fmt.Errorf("insert permission %q: %w", perm, err)
		}
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO role_permissions (role_id, permission_id)
			 SELECT ?, id FROM permissions WHERE name = ?
			 ON CONFLICT (role_id, permission_id) DO NOTHING`,
			roleID, perm,
		); err != nil {
			return nil, fmt.Errorf("grant permission %q: %w", perm, err)
		}
	}

	return r.FindByName(ctx, name)
}

func (r *rolesRepo) AssignToUser(ctx context.Context, userID, roleID string, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id, assigned_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, role_id) DO NOTHING`,
		userID, roleID, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (r *rolesRepo) ListForUser(ctx context.Context, userID string) ([]domain.Role, error) {
	roles, err := r.query(ctx,
		`SELECT ro.id, ro.name, ro.created_at
		   FROM user_roles ur
		   JOIN roles ro ON ro.id = ur.role_id
		  WHERE ur.user_id = ?
		  ORDER BY ur.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	return r.withPermissions(ctx, roles)
}

// query reads role rows fully before returning; the pool has a single
// connection, so permissions can only be loaded once the rows are closed.
func (r *rolesRepo) query(ctx context.Context, q string, args ...any) ([]domain.Role, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *rolesRepo) withPermissions(ctx context.Context, roles []domain.Role) ([]domain.Role, error) {
	for i := range roles {
		perms, err := r.permissions(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

func (r *rolesRepo) permissions(ctx context.Context, roleID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT p.name
		   FROM role_permissions rp
		   JOIN permissions p ON p.id = rp.permission_id
		  WHERE rp.role_id = ?
		  ORDER BY rp.id`, roleID)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	perms := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, name)
	}
	return perms, rows.Err()
}
