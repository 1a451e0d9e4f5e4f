package bookauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
)

// MinPasswordLength is the minimum accepted password length for signup.
const MinPasswordLength = 8

// MaxPasswordLength is bcrypt's input limit. Anything longer is a
// validation error, not a server fault.
const MaxPasswordLength = 72

// LocalAuth handles email/password signup and login. All collaborators are
// passed in explicitly; nothing is registered process-wide.
type LocalAuth struct {
	Store  AccountStore
	Hasher *Hasher
	Issuer *Issuer

	// Optional limiter for login attempts (keyed by client IP + email).
	Limiter RateLimiter

	// Optional session manager. When set, the logged-in account id is
	// mirrored into the server session for browser flows.
	Session *scs.SessionManager
}

func NewLocalAuth(store AccountStore, hasher *Hasher, issuer *Issuer) *LocalAuth {
	return &LocalAuth{Store: store, Hasher: hasher, Issuer: issuer}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// parseCredentials accepts JSON and form-encoded bodies.
func parseCredentials(r *http.Request) (*credentialsRequest, *AuthError) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return nil, NewAuthError(ErrCodeMissingField, "Error parsing form", "")
		}
		return &credentialsRequest{
			Email:       r.FormValue("email"),
			Password:    r.FormValue("password"),
			DisplayName: r.FormValue("displayName"),
		}, nil
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, NewAuthError(ErrCodeMissingField, "Invalid request body", "")
	}
	return &req, nil
}

// HandleSignup processes account registration.
func (a *LocalAuth) HandleSignup(w http.ResponseWriter, r *http.Request) {
	req, authErr := parseCredentials(r)
	if authErr != nil {
		WriteAuthError(w, authErr)
		return
	}

	if authErr := validateSignup(req); authErr != nil {
		WriteAuthError(w, authErr)
		return
	}

	email := NormalizeEmail(req.Email)

	// Pre-check for a friendlier conflict response; the store's uniqueness
	// constraint still catches concurrent signups that race past this.
	if _, err := a.Store.FindByEmail(email); err == nil {
		WriteAuthError(w, NewAuthError(ErrCodeEmailExists, "Email is already registered", "email"))
		return
	} else if !errors.Is(err, ErrAccountNotFound) {
		log.Printf("signup: store lookup failed: %v", err)
		writeServerError(w)
		return
	}

	hash, err := a.Hasher.HashPassword(req.Password)
	if err != nil {
		log.Printf("signup: hashing failed: %v", err)
		writeServerError(w)
		return
	}

	account := &Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  DisplayNameFor(req.DisplayName, email),
		IsActive:     true,
	}
	if err := a.Store.Create(account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			WriteAuthError(w, NewAuthError(ErrCodeEmailExists, "Email is already registered", "email"))
			return
		}
		log.Printf("signup: create failed: %v", err)
		writeServerError(w)
		return
	}

	token, err := a.Issuer.Issue(account.ID, account.Email)
	if err != nil {
		log.Printf("signup: token issuance failed: %v", err)
		writeServerError(w)
		return
	}

	a.putSession(r, account)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Account created",
		"user":    account.Summary(),
		"token":   token,
	})
}

// HandleLogin processes email/password authentication. Unknown email and
// wrong password produce the same generic response so accounts cannot be
// enumerated.
func (a *LocalAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, authErr := parseCredentials(r)
	if authErr != nil {
		WriteAuthError(w, authErr)
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteAuthError(w, NewAuthError(ErrCodeMissingField, "Email and password are required", ""))
		return
	}

	email := NormalizeEmail(req.Email)
	limiterKey := getClientIP(r) + ":" + email
	if a.Limiter != nil && !a.Limiter.Allow(limiterKey) {
		WriteAuthError(w, NewAuthError(ErrCodeRateLimited, "Too many login attempts", ""))
		return
	}

	account, err := a.Store.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			a.unauthorized(w)
			return
		}
		log.Printf("login: store lookup failed: %v", err)
		writeServerError(w)
		return
	}

	if err := a.Hasher.CheckPassword(req.Password, account.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			a.unauthorized(w)
			return
		}
		log.Printf("login: verification fault: %v", err)
		writeServerError(w)
		return
	}

	now := time.Now()
	account.LastLoginAt = &now
	if err := a.Store.Save(account); err != nil {
		// The login itself succeeded; a stale last-login timestamp is not
		// worth failing the request over.
		log.Printf("login: failed to update last login for %s: %v", account.ID, err)
	}

	token, err := a.Issuer.Issue(account.ID, account.Email)
	if err != nil {
		log.Printf("login: token issuance failed: %v", err)
		writeServerError(w)
		return
	}

	if limiter, ok := a.Limiter.(*LoginLimiter); ok && limiter != nil {
		limiter.Reset(limiterKey)
	}
	a.putSession(r, account)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  account.Summary(),
		"token": token,
	})
}

// HandleLogout acknowledges a logout. Tokens are stateless and not tracked
// server-side, so the client must discard its copy; only the server session
// (if any) is cleared here.
func (a *LocalAuth) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if a.Session != nil {
		if err := a.Session.Destroy(r.Context()); err != nil {
			log.Printf("logout: failed to destroy session: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Logged out",
	})
}

func (a *LocalAuth) unauthorized(w http.ResponseWriter) {
	WriteAuthError(w, NewAuthError(ErrCodeInvalidCreds, "Invalid email or password", ""))
}

func (a *LocalAuth) putSession(r *http.Request, account *Account) {
	if a.Session != nil {
		a.Session.Put(r.Context(), SessionAccountIDKey, account.ID)
	}
}

func validateSignup(req *credentialsRequest) *AuthError {
	if req.Email == "" {
		return NewAuthError(ErrCodeMissingField, "Email is required", "email")
	}
	if req.Password == "" {
		return NewAuthError(ErrCodeMissingField, "Password is required", "password")
	}
	if !ValidEmail(NormalizeEmail(req.Email)) {
		return NewAuthError(ErrCodeInvalidEmail, "Invalid email format", "email")
	}
	if len(req.Password) < MinPasswordLength {
		return NewAuthError(ErrCodeWeakPassword,
			fmt.Sprintf("Password must be at least %d characters", MinPasswordLength), "password")
	}
	if len(req.Password) > MaxPasswordLength {
		return NewAuthError(ErrCodeInvalidPassword,
			fmt.Sprintf("Password must be at most %d bytes", MaxPasswordLength), "password")
	}
	return nil
}
