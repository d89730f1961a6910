package handler

import (
	"time"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		IsActive: *req.IsActive,
	}
}

// --- Service output → Response ---

func toLoginResponse(s *ports.Session) loginResponse {
	var role *string
	if s.Role != "" {
		r := s.Role
		role = &r
	}
	return loginResponse{
		UserID:          s.User.ID,
		Name:            s.User.Name,
		Email:           s.User.Email,
		Role:            role,
		TokenType:       s.TokenType,
		Roles:           nonNil(s.Roles),
		ExpiresAt:       s.ExpiresAt.UTC().Format(time.RFC3339),
		EmailVerifiedAt: s.User.EmailVerifiedAt,
		LoginAt:         s.User.LoginAt,
		AccessToken:     s.AccessToken,
		Permissions:     nonNil(s.Permissions),
	}
}

// toRegisterResponse builds the public view of a new account. The password
// hash never leaves the service.
func toRegisterResponse(r *ports.RegisteredUser) registerResponse {
	var role string
	if len(r.Roles) > 0 {
		role = r.Roles[0]
	}
	return registerResponse{
		ID:              r.User.ID,
		Name:            r.User.Name,
		Email:           r.User.Email,
		Role:            role,
		Roles:           nonNil(r.Roles),
		IsActive:        r.User.IsActive,
		EmailVerifiedAt: r.User.EmailVerifiedAt,
		CreatedAt:       r.User.CreatedAt,
		UpdatedAt:       r.User.UpdatedAt,
	}
}

func toRoleResponses(roles []domain.Role) []roleResponse {
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleResponse{
			Name:        r.Name,
			Permissions: nonNil(r.Permissions),
			CreatedAt:   r.CreatedAt,
		})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
