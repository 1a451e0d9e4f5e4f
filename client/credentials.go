// Package client holds the caller side of authentication: credential
// storage, the auth context apps consult for login state, and an HTTP
// transport that attaches the bearer token.
package client

import (
	"time"
)

// Credential is a stored session token plus enough user info to render
// "logged in as" UI without a round trip.
type Credential struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id,omitempty"`
	UserEmail   string    `json:"user_email,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsExpired returns true if the session token has expired.
func (c *Credential) IsExpired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// CredentialStore persists a single credential.
type CredentialStore interface {
	// Load retrieves the stored credential. Returns nil, nil when no
	// credential exists.
	Load() (*Credential, error)

	// Save stores the credential, replacing any existing one.
	Save(cred *Credential) error

	// Clear removes the stored credential. Clearing an empty store is not
	// an error.
	Clear() error
}
