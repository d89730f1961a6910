package domain

import "time"

// TokenTypeBearer is the only token type the service issues.
const TokenTypeBearer = "Bearer"

// AccessToken is the persisted record of an issued bearer token. Scopes are a
// snapshot of the holder's permissions at issuance; later role changes do not
// alter them.
type AccessToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Scopes    []string  `json:"scopes"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Usable reports whether the token can still authenticate requests at now.
func (t *AccessToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
