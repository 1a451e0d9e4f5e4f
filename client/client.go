package client

import (
	"fmt"
	"net/http"
	"sync"
)

// Context is the app-side view of authentication state. All checks go
// through the credential store, so state survives restarts; a missing,
// unreadable or expired credential all read as logged out.
type Context struct {
	mu    sync.Mutex
	store CredentialStore
}

func NewContext(store CredentialStore) *Context {
	return &Context{store: store}
}

// IsLoggedIn reports whether a usable credential is stored. It never
// returns an error: any failure to produce a valid credential means the
// user is not logged in.
func (c *Context) IsLoggedIn() bool {
	if c == nil || c.store == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cred, err := c.store.Load()
	if err != nil || cred == nil {
		return false
	}
	return !cred.IsExpired()
}

// Token returns the stored session token, or "" when logged out.
func (c *Context) Token() string {
	if c == nil || c.store == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cred, err := c.store.Load()
	if err != nil || cred == nil || cred.IsExpired() {
		return ""
	}
	return cred.AccessToken
}

// Credential returns the stored credential, expired or not, for callers
// that want the user info. Returns nil, nil when nothing is stored.
func (c *Context) Credential() (*Credential, error) {
	if c == nil || c.store == nil {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Load()
}

// Login stores the credential returned by a successful signup or login.
func (c *Context) Login(cred *Credential) error {
	if c == nil || c.store == nil {
		return fmt.Errorf("no credential store configured")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Save(cred); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Logout discards the stored credential. The token itself stays valid
// until it expires; there is nothing to revoke server-side.
func (c *Context) Logout() error {
	if c == nil || c.store == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Clear()
}

// HTTPClient returns an http.Client that attaches the current token to
// every request. The token is read per request so a re-login is picked up
// without rebuilding the client.
func (c *Context) HTTPClient() *http.Client {
	return &http.Client{
		Transport: &AuthTransport{TokenFunc: c.Token},
	}
}
