package handler

import "time"

// ErrorResponse is the standard error envelope returned on all 4xx/5xx responses.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name     string `json:"name"      validate:"required,max=255"`
	Email    string `json:"email"     validate:"required,email,max=255"`
	Password string `json:"password"  validate:"required,min=6"`
	Role     string `json:"role"      validate:"required"`
	IsActive *bool  `json:"is_active" validate:"required"`
}

type loginResponse struct {
	UserID          string     `json:"user_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            *string    `json:"role"`
	TokenType       string     `json:"token_type"`
	Roles           []string   `json:"roles"`
	ExpiresAt       string     `json:"expires_at"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LoginAt         *time.Time `json:"login_at"`
	AccessToken     string     `json:"access_token"`
	Permissions     []string   `json:"permissions"`
}

type registerResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	Roles           []string   `json:"roles"`
	IsActive        bool       `json:"is_active"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type meResponse struct {
	UserID    string   `json:"user_id"`
	TokenID   string   `json:"token_id"`
	Scopes    []string `json:"scopes"`
	ExpiresAt string   `json:"expires_at"`
}

type roleResponse struct {
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

type listRolesResponse struct {
	Roles []roleResponse `json:"roles"`
}
