package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/99minutos/identity-api/internal/core/domain"
	"github.com/99minutos/identity-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub store
// ---------------------------------------------------------------------------

type memState struct {
	users      map[string]*domain.User
	roles      map[string]*domain.Role // keyed by name
	assignment map[string][]string     // user id -> role ids in order
	tokens     map[string]*domain.AccessToken
	seq        int
}

func (s *memState) clone() *memState {
	c := &memState{
		users:      make(map[string]*domain.User, len(s.users)),
		roles:      make(map[string]*domain.Role, len(s.roles)),
		assignment: make(map[string][]string, len(s.assignment)),
		tokens:     make(map[string]*domain.AccessToken, len(s.tokens)),
		seq:        s.seq,
	}
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.roles {
		r := *v
		r.Permissions = append([]string(nil), v.Permissions...)
		c.roles[k] = &r
	}
	for k, v := range s.assignment {
		c.assignment[k] = append([]string(nil), v...)
	}
	for k, v := range s.tokens {
		t := *v
		c.tokens[k] = &t
	}
	return c
}

type stubStore struct {
	state *memState

	findByIDErr    error
	tokenCreateErr error
	touchErr       error
}

func newStubStore() *stubStore {
	return &stubStore{state: &memState{
		users:      make(map[string]*domain.User),
		roles:      make(map[string]*domain.Role),
		assignment: make(map[string][]string),
		tokens:     make(map[string]*domain.AccessToken),
	}}
}

func (s *stubStore) Users() ports.UserRepository   { return stubUsers{s} }
func (s *stubStore) Roles() ports.RoleRepository   { return stubRoles{s} }
func (s *stubStore) Tokens() ports.TokenRepository { return stubTokens{s} }
func (s *stubStore) Ping(context.Context) error    { return nil }
func (s *stubStore) Close(context.Context) error   { return nil }

// WithTx runs fn against a copy of the state and keeps it only on success.
func (s *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	tx := &stubStore{
		state:          s.state.clone(),
		findByIDErr:    s.findByIDErr,
		tokenCreateErr: s.tokenCreateErr,
		touchErr:       s.touchErr,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *stubStore) seedRole(name string, perms ...string) *domain.Role {
	r, _ := s.Roles().Upsert(context.Background(), name, perms)
	return r
}

type stubUsers struct{ s *stubStore }

func (r stubUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	for _, existing := range r.s.state.users {
		if existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.s.state.seq++
	clone := *u
	clone.ID = fmt.Sprintf("user-%d", r.s.state.seq)
	r.s.state.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r stubUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.s.findByIDErr != nil {
		return nil, r.s.findByIDErr
	}
	u, ok := r.s.state.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r stubUsers) FindActiveByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.s.state.users {
		if u.Email == email && u.IsActive {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r stubUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range r.s.state.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r stubUsers) TouchLogin(_ context.Context, id string, at time.Time) error {
	if r.s.touchErr != nil {
		return r.s.touchErr
	}
	u, ok := r.s.state.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	t := at
	u.LoginAt = &t
	return nil
}

type stubRoles struct{ s *stubStore }

func (r stubRoles) FindByName(_ context.Context, name string) (*domain.Role, error) {
	role, ok := r.s.state.roles[name]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	clone := *role
	return &clone, nil
}

func (r stubRoles) List(_ context.Context) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(r.s.state.roles))
	for _, role := range r.s.state.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r stubRoles) Upsert(_ context.Context, name string, permissions []string) (*domain.Role, error) {
	role, ok := r.s.state.roles[name]
	if !ok {
		r.s.state.seq++
		role = &domain.Role{ID: fmt.Sprintf("role-%d", r.s.state.seq), Name: name}
		r.s.state.roles[name] = role
	}
	for _, p := range permissions {
		found := false
		for _, have := range role.Permissions {
			if have == p {
				found = true
				break
			}
		}
		if !found {
			role.Permissions = append(role.Permissions, p)
		}
	}
	clone := *role
	return &clone, nil
}

func (r stubRoles) AssignToUser(_ context.Context, userID, roleID string, _ time.Time) error {
	r.s.state.assignment[userID] = append(r.s.state.assignment[userID], roleID)
	return nil
}

func (r stubRoles) ListForUser(_ context.Context, userID string) ([]domain.Role, error) {
	var out []domain.Role
	for _, id := range r.s.state.assignment[userID] {
		for _, role := range r.s.state.roles {
			if role.ID == id {
				out = append(out, *role)
			}
		}
	}
	return out, nil
}

type stubTokens struct{ s *stubStore }

func (r stubTokens) Create(_ context.Context, t *domain.AccessToken) error {
	if r.s.tokenCreateErr != nil {
		return r.s.tokenCreateErr
	}
	clone := *t
	r.s.state.tokens[t.ID] = &clone
	return nil
}

func (r stubTokens) FindByID(_ context.Context, id string) (*domain.AccessToken, error) {
	t, ok := r.s.state.tokens[id]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	clone := *t
	return &clone, nil
}

// ---------------------------------------------------------------------------
// Token minter and cache stubs
// ---------------------------------------------------------------------------

type stubMinter struct {
	ttl     time.Duration
	seq     int
	lastSub string
	err     error
}

func (m *stubMinter) Mint(userID string, scopes []string, issuedAt time.Time) (ports.MintedToken, error) {
	if m.err != nil {
		return ports.MintedToken{}, m.err
	}
	m.seq++
	m.lastSub = userID
	return ports.MintedToken{
		ID:        fmt.Sprintf("tok-%d", m.seq),
		Raw:       fmt.Sprintf("raw-%d", m.seq),
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(m.ttl),
	}, nil
}

func (m *stubMinter) Parse(string) (*ports.TokenClaims, error) {
	return nil, errors.New("not implemented")
}

type stubCache struct {
	put    []*domain.AccessToken
	putErr error
}

func (c *stubCache) Put(_ context.Context, t *domain.AccessToken) error {
	if c.putErr != nil {
		return c.putErr
	}
	c.put = append(c.put, t)
	return nil
}

func (c *stubCache) Get(context.Context, string) (*domain.AccessToken, error) {
	return nil, domain.ErrTokenNotFound
}
