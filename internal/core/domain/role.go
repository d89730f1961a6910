package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is a named bundle of permissions. Permissions keep the order in which
// they were granted.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// PermissionPolicy decides which of a user's roles contribute permissions to
// an issued token.
type PermissionPolicy string

const (
	// PolicyUnion grants the de-duplicated union of every assigned role.
	PolicyUnion PermissionPolicy = "union"
	// PolicyPrimary grants only the first-assigned role's permissions.
	PolicyPrimary PermissionPolicy = "primary"
)

// ParsePermissionPolicy accepts "union" or "primary" (case-insensitive).
// An empty string yields PolicyUnion.
func ParsePermissionPolicy(s string) (PermissionPolicy, error) {
	switch PermissionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyUnion:
		return PolicyUnion, nil
	case PolicyPrimary:
		return PolicyPrimary, nil
	default:
		return "", fmt.Errorf("unknown permission policy %q", s)
	}
}

// Grant is the effective authorization derived from a user's roles.
type Grant struct {
	// Role is the first-assigned role name, empty when the user has none.
	Role        string
	Roles       []string
	Permissions []string
}

// Resolve derives the grant for roles listed in assignment order.
func (p PermissionPolicy) Resolve(roles []Role) Grant {
	g := Grant{
		Roles:       make([]string, 0, len(roles)),
		Permissions: []string{},
	}
	if len(roles) == 0 {
		return g
	}
	g.Role = roles[0].Name

	contributing := roles
	if p == PolicyPrimary {
		contributing = roles[:1]
	}

	seen := make(map[string]struct{})
	for _, r := range roles {
		g.Roles = append(g.Roles, r.Name)
	}
	for _, r := range contributing {
		for _, perm := range r.Permissions {
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			g.Permissions = append(g.Permissions, perm)
		}
	}
	return g
}
