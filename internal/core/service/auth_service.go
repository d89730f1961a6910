package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
)

const defaultClientName = "password-grant"

// AuthConfig tunes AuthService. Zero values fall back to defaults.
type AuthConfig struct {
	Policy     domain.PermissionPolicy
	BcryptCost int
	ClientName string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// AuthService implements registration and login.
type AuthService struct {
	store    ports.Store
	hasher   *passwordHasher
	verifier *CredentialVerifier
	issuer   *SessionIssuer
	now      func() time.Time
	log      zerolog.Logger
}

// NewAuthService wires the credential verifier and session issuer over store.
// cache may be nil, including a typed nil pointer.
func NewAuthService(
	store ports.Store,
	minter ports.TokenMinter,
	cache ports.TokenCache,
	cfg AuthConfig,
	log zerolog.Logger,
) (*AuthService, error) {
	if cfg.Policy == "" {
		cfg.Policy = domain.PolicyUnion
	}
	if cfg.ClientName == "" {
		cfg.ClientName = defaultClientName
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if isNilCache(cache) {
		cache = nil
	}

	hasher, err := newPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	return &AuthService{
		store:  store,
		hasher: hasher,
		verifier: &CredentialVerifier{
			store:  store,
			hasher: hasher,
			log:    log,
		},
		issuer: &SessionIssuer{
			store:      store,
			minter:     minter,
			cache:      cache,
			policy:     cfg.Policy,
			clientName: cfg.ClientName,
			now:        cfg.Now,
			log:        log,
		},
		now: cfg.Now,
		log: log,
	}, nil
}

// Verifier exposes the credential check on its own.
func (s *AuthService) Verifier() *CredentialVerifier { return s.verifier }

// Issuer exposes session issuance on its own.
func (s *AuthService) Issuer() *SessionIssuer { return s.issuer }

// Login verifies the credentials and issues a session for the account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issuer.Issue(ctx, identity)
}

// Register creates an account and assigns it the named role. Every rejected
// field is reported together; nothing is written when any check fails.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.RegisteredUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Role = strings.TrimSpace(in.Role)

	verr := domain.NewValidationError(domain.CodeValidationFailed)
	if in.Name == "" {
		verr.Add("name", "name is required")
	}
	if in.Email == "" {
		verr.Add("email", "email is required")
	}
	if in.Password == "" {
		verr.Add("password", "password is required")
	}
	if in.Role == "" {
		verr.Add("role", "role is required")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	taken, err := s.store.Users().ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("register: check email: %w", err)
	}
	if taken {
		verr.Add("email", domain.ErrUserExists.Error())
	}

	role, err := s.store.Roles().FindByName(ctx, in.Role)
	switch {
	case errors.Is(err, domain.ErrRoleNotFound):
		verr.Add("role", domain.ErrRoleNotFound.Error())
	case err != nil:
		return nil, fmt.Errorf("register: find role: %w", err)
	}
	if verr.HasErrors() {
		return nil, verr
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	var created *domain.User
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ports.Store) error {
		u, err := tx.Users().Create(ctx, &domain.User{
			Name:         in.Name,
			Email:        in.Email,
			PasswordHash: hash,
			IsActive:     in.IsActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		if err := tx.Roles().AssignToUser(ctx, u.ID, role.ID, now); err != nil {
			return fmt.Errorf("assign role: %w", err)
		}
		created = u
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			verr.Add("email", domain.ErrUserExists.Error())
			return nil, verr
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("role", role.Name).Msg("user registered")

	return &ports.RegisteredUser{User: *created, Roles: []string{role.Name}}, nil
}

func isNilCache(c ports.TokenCache) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
