package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/identity-api/internal/core/ports"
)

const defaultTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload of an access token. The jti is the key of the
// persisted token record.
type Claims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// JWTMinter signs HS256 access tokens.
type JWTMinter struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTMinter returns a minter signing with secret. A non-positive ttl
// falls back to 24h.
func NewJWTMinter(secret, issuer string, ttl time.Duration) (*JWTMinter, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is empty")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &JWTMinter{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

func (m *JWTMinter) Mint(userID string, scopes []string, issuedAt time.Time) (ports.MintedToken, error) {
	if scopes == nil {
		scopes = []string{}
	}
	// JWT dates have second precision; truncate so the record and the
	// signed claims agree.
	issuedAt = issuedAt.UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.ttl)
	id := uuid.NewString()

	claims := Claims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return ports.MintedToken{}, fmt.Errorf("sign token: %w", err)
	}

	return ports.MintedToken{
		ID:        id,
		Raw:       raw,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse verifies the signature, algorithm, expiry and issuer of raw.
func (m *JWTMinter) Parse(raw string) (*ports.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &ports.TokenClaims{
		ID:        claims.ID,
		UserID:    claims.Subject,
		Scopes:    claims.Scopes,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
