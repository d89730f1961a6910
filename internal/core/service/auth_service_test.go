package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newAuthSvc(t *testing.T, store *stubStore, minter *stubMinter, cache ports.TokenCache, policy domain.PermissionPolicy) *AuthService {
	t.Helper()
	svc, err := NewAuthService(store, minter, cache, AuthConfig{
		Policy:     policy,
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return fixedNow },
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc
}

func adaInput() ports.RegisterInput {
	return ports.RegisterInput{
		Name:     "Ada",
		Email:    "ada@x.com",
		Password: "secret1",
		Role:     "admin",
		IsActive: true,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin", "users.view", "users.create")
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, &stubCache{}, domain.PolicyUnion)

	got, err := svc.Register(context.Background(), adaInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if got.User.ID == "" {
		t.Fatalf("expected an assigned id")
	}
	if !reflect.DeepEqual(got.Roles, []string{"admin"}) {
		t.Fatalf("unexpected roles: %v", got.Roles)
	}
	if got.User.PasswordHash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(got.User.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !got.User.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected created_at: %v", got.User.CreatedAt)
	}

	roles, _ := store.Roles().ListForUser(context.Background(), got.User.ID)
	if len(roles) != 1 || roles[0].Name != "admin" {
		t.Fatalf("role not assigned: %+v", roles)
	}
}

func TestAuthService_Register_NormalizesEmail(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin")
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, nil, domain.PolicyUnion)

	in := adaInput()
	in.Email = "  Ada@X.com "
	got, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if got.User.Email != "ada@x.com" {
		t.Fatalf("expected normalized email, got %q", got.User.Email)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin")
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, nil, domain.PolicyUnion)

	if _, err := svc.Register(context.Background(), adaInput()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	before := len(store.state.users)

	in := adaInput()
	in.Name = "Ada Again"
	_, err := svc.Register(context.Background(), in)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Fields["email"] != "email already taken" {
		t.Fatalf("unexpected field errors: %+v", verr.Fields)
	}
	if len(store.state.users) != before {
		t.Fatalf("store changed on rejected registration")
	}
}

func TestAuthService_Register_UnknownRoleAndTakenEmailReportedTogether(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin")
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, nil, domain.PolicyUnion)
	_, _ = svc.Register(context.Background(), adaInput())

	in := adaInput()
	in.Role = "wizard"
	_, err := svc.Register(context.Background(), in)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Code != domain.CodeValidationFailed {
		t.Fatalf("unexpected code %q", verr.Code)
	}
	if verr.Fields["role"] != "role does not exist" || verr.Fields["email"] != "email already taken" {
		t.Fatalf("unexpected field errors: %+v", verr.Fields)
	}
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	store := newStubStore()
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, nil, domain.PolicyUnion)

	_, err := svc.Register(context.Background(), ports.RegisterInput{Email: "ada@x.com"})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, f := range []string{"name", "password", "role"} {
		if _, ok := verr.Fields[f]; !ok {
			t.Errorf("expected error for %s, got %+v", f, verr.Fields)
		}
	}
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	store := newStubStore()
	admin := store.seedRole("admin", "users.view", "users.create", "roles.view")
	minter := &stubMinter{ttl: time.Hour}
	cache := &stubCache{}
	svc := newAuthSvc(t, store, minter, cache, domain.PolicyUnion)

	reg, err := svc.Register(context.Background(), adaInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	session, err := svc.Login(context.Background(), "ada@x.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if session.Role != "admin" {
		t.Fatalf("expected role admin, got %q", session.Role)
	}
	if !reflect.DeepEqual(session.Permissions, admin.Permissions) {
		t.Fatalf("permissions = %v, want %v", session.Permissions, admin.Permissions)
	}
	if session.AccessToken == "" {
		t.Fatalf("expected access token")
	}
	if session.TokenType != "Bearer" {
		t.Fatalf("unexpected token type %q", session.TokenType)
	}
	if !session.ExpiresAt.After(fixedNow) {
		t.Fatalf("expires_at not in the future: %v", session.ExpiresAt)
	}
	if session.User.LoginAt == nil || !session.User.LoginAt.Equal(fixedNow) {
		t.Fatalf("unexpected login_at in session: %v", session.User.LoginAt)
	}

	stored := store.state.users[reg.User.ID]
	if stored.LoginAt == nil || !stored.LoginAt.Equal(fixedNow) {
		t.Fatalf("login_at not persisted: %v", stored.LoginAt)
	}
	if len(store.state.tokens) != 1 {
		t.Fatalf("expected 1 token record, got %d", len(store.state.tokens))
	}
	for _, tok := range store.state.tokens {
		if tok.UserID != reg.User.ID || !reflect.DeepEqual(tok.Scopes, admin.Permissions) {
			t.Fatalf("unexpected token record: %+v", tok)
		}
		if tok.Name != defaultClientName {
			t.Fatalf("unexpected client name %q", tok.Name)
		}
	}
	if len(cache.put) != 1 {
		t.Fatalf("expected issued token to be cached")
	}
}

func TestAuthService_Login_RejectionsAreIndistinguishable(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin", "users.view")
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, nil, domain.PolicyUnion)

	if _, err := svc.Register(context.Background(), adaInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	inactive := adaInput()
	inactive.Email = "grace@x.com"
	inactive.IsActive = false
	if _, err := svc.Register(context.Background(), inactive); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	cases := map[string][2]string{
		"unknown email":  {"ghost@x.com", "secret1"},
		"wrong password": {"ada@x.com", "nope"},
		"inactive":       {"grace@x.com", "secret1"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), c[0], c[1])
			if err != domain.ErrInvalidCredentials {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}

	if len(store.state.tokens) != 0 {
		t.Fatalf("no token should be created on rejection, got %d", len(store.state.tokens))
	}
}

func TestAuthService_Login_PrimaryPolicy(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin", "users.view")
	auditor := store.seedRole("auditor", "audit.view")
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, nil, domain.PolicyPrimary)

	reg, err := svc.Register(context.Background(), adaInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_ = store.Roles().AssignToUser(context.Background(), reg.User.ID, auditor.ID, fixedNow)

	session, err := svc.Login(context.Background(), "ada@x.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !reflect.DeepEqual(session.Roles, []string{"admin", "auditor"}) {
		t.Fatalf("unexpected roles: %v", session.Roles)
	}
	if !reflect.DeepEqual(session.Permissions, []string{"users.view"}) {
		t.Fatalf("unexpected permissions: %v", session.Permissions)
	}
}

func TestAuthService_Login_UnprocessableIdentity(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin")
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, nil, domain.PolicyUnion)
	if _, err := svc.Register(context.Background(), adaInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	store.findByIDErr = domain.ErrUserNotFound
	_, err := svc.Login(context.Background(), "ada@x.com", "secret1")
	if !errors.Is(err, domain.ErrUnprocessableIdentity) {
		t.Fatalf("expected ErrUnprocessableIdentity, got %v", err)
	}
}

func TestAuthService_Login_TokenAndLoginCommitTogether(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin")
	cache := &stubCache{}
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, cache, domain.PolicyUnion)
	reg, err := svc.Register(context.Background(), adaInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	store.touchErr = errors.New("write conflict")
	session, err := svc.Login(context.Background(), "ada@x.com", "secret1")
	if err == nil || session != nil {
		t.Fatalf("expected failure, got session %+v", session)
	}
	if len(store.state.tokens) != 0 {
		t.Fatalf("token must be rolled back when login_at fails")
	}
	if store.state.users[reg.User.ID].LoginAt != nil {
		t.Fatalf("login_at must not change")
	}
	if len(cache.put) != 0 {
		t.Fatalf("nothing should be cached on failure")
	}
}

func TestAuthService_Login_CacheFailureIsNonFatal(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin")
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, &stubCache{putErr: errors.New("redis down")}, domain.PolicyUnion)
	if _, err := svc.Register(context.Background(), adaInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Login(context.Background(), "ada@x.com", "secret1"); err != nil {
		t.Fatalf("expected cache failure to be non-fatal, got: %v", err)
	}
}

func TestAuthService_Login_EachLoginGetsItsOwnToken(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin")
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, nil, domain.PolicyUnion)
	if _, err := svc.Register(context.Background(), adaInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	first, err := svc.Login(context.Background(), "ada@x.com", "secret1")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.Login(context.Background(), "ada@x.com", "secret1")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.AccessToken == second.AccessToken {
		t.Fatalf("tokens must not be reused")
	}
	if len(store.state.tokens) != 2 {
		t.Fatalf("expected 2 token records, got %d", len(store.state.tokens))
	}
}

func TestAuthService_Login_NoRoles(t *testing.T) {
	store := newStubStore()
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, nil, domain.PolicyUnion)

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	_, _ = store.Users().Create(context.Background(), &domain.User{
		Name: "Lin", Email: "lin@x.com", PasswordHash: string(hash), IsActive: true,
	})

	session, err := svc.Login(context.Background(), "lin@x.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.Role != "" || len(session.Roles) != 0 || len(session.Permissions) != 0 {
		t.Fatalf("expected empty grant, got %+v", session)
	}
}

func TestAuthService_Login_TypedNilCacheIsIgnored(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin")
	var cache *stubCache
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, cache, domain.PolicyUnion)
	if _, err := svc.Register(context.Background(), adaInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	session, err := svc.Login(context.Background(), "ada@x.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.AccessToken == "" {
		t.Fatalf("expected access token")
	}
}

func TestAuthService_VerifierAndIssuerCompose(t *testing.T) {
	store := newStubStore()
	store.seedRole("admin")
	svc := newAuthSvc(t, store, &stubMinter{ttl: time.Hour}, nil, domain.PolicyUnion)
	if _, err := svc.Register(context.Background(), adaInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	identity, err := svc.Verifier().Verify(context.Background(), "ada@x.com", "secret1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	session, err := svc.Issuer().Issue(context.Background(), identity)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if session.User.ID != identity.UserID || session.Role != "admin" {
		t.Fatalf("unexpected session: %+v", session)
	}
}
