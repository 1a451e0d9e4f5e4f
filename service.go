package bookauth

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	xoauth2 "golang.org/x/oauth2"

	"github.com/robotics-press/bookauth/oauth2"
)

// Config carries everything Service needs to run. Google settings may be
// left empty to disable the OAuth routes.
type Config struct {
	// JWTSecret signs session tokens. Required; New fails without it.
	JWTSecret string
	JWTIssuer string

	// TokenExpiry defaults to DefaultTokenExpiry when zero.
	TokenExpiry time.Duration

	// BcryptCost defaults to DefaultBcryptCost when zero.
	BcryptCost int

	// FrontendURL is where the OAuth bootstrap page sends the browser after
	// storing the token. Defaults to "/".
	FrontendURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// LoginAttemptsPerMinute and LoginBurst tune the login limiter. Zero
	// values use the limiter defaults.
	LoginAttemptsPerMinute float64
	LoginBurst             int
}

// Service wires the handlers, token issuer and store into one HTTP surface.
type Service struct {
	Store      AccountStore
	Hasher     *Hasher
	Issuer     *Issuer
	Local      *LocalAuth
	Google     *oauth2.GoogleOAuth
	Middleware *Middleware
	Session    *scs.SessionManager
	Limiter    *LoginLimiter

	frontendURL string
}

func New(store AccountStore, cfg Config) (*Service, error) {
	issuer, err := NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenExpiry)
	if err != nil {
		return nil, err
	}

	hasher := NewHasher(cfg.BcryptCost)
	limiter := NewLoginLimiter(cfg.LoginAttemptsPerMinute, cfg.LoginBurst)

	session := scs.New()
	session.Lifetime = issuer.Expiry()
	session.Cookie.HttpOnly = true
	session.Cookie.SameSite = http.SameSiteLaxMode

	frontendURL := cfg.FrontendURL
	if frontendURL == "" {
		frontendURL = "/"
	}

	svc := &Service{
		Store:       store,
		Hasher:      hasher,
		Issuer:      issuer,
		Session:     session,
		Limiter:     limiter,
		frontendURL: frontendURL,
	}
	svc.Local = &LocalAuth{
		Store:   store,
		Hasher:  hasher,
		Issuer:  issuer,
		Limiter: limiter,
		Session: session,
	}
	svc.Middleware = &Middleware{
		Issuer:  issuer,
		Session: session,
	}
	if cfg.GoogleClientID != "" {
		svc.Google = oauth2.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.GoogleCallbackURL, svc.handleOAuthProfile)
	}
	return svc, nil
}

// Close stops background work (the login limiter's cleanup goroutine).
func (s *Service) Close() {
	if s.Limiter != nil {
		s.Limiter.Stop()
	}
}

// Router builds the route table. Callers that need extra routes can add them
// to the returned router before serving.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHealth).Methods("GET")
	r.HandleFunc("/signup", s.Local.HandleSignup).Methods("POST")
	r.HandleFunc("/login", s.Local.HandleLogin).Methods("POST")
	r.HandleFunc("/logout", s.Local.HandleLogout).Methods("POST")
	if s.Google != nil {
		r.HandleFunc("/auth/google", s.Google.HandleRedirect).Methods("GET")
		r.HandleFunc("/auth/google/callback", s.Google.HandleCallback).Methods("GET")
	}
	r.Handle("/auth/me", s.Middleware.RequireAccount(http.HandlerFunc(s.handleMe))).Methods("GET")
	r.Handle("/auth/password", s.Middleware.RequireAccount(http.HandlerFunc(s.handleUpdatePassword))).Methods("POST")
	return r
}

// Handler wraps the router with session loading.
func (s *Service) Handler() http.Handler {
	return s.Session.LoadAndSave(s.Router())
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleMe reads the account fresh from the store so the response reflects
// current state rather than whatever was baked into the token.
func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	accountID := AccountIDFromContext(r.Context())
	account, err := s.Store.FindByID(accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			WriteAuthError(w, NewAuthError(ErrCodeInvalidCreds, "Authentication required", ""))
			return
		}
		log.Printf("me: store lookup failed: %v", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": account.Summary()})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Service) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAuthError(w, NewAuthError(ErrCodeMissingField, "Invalid request body", ""))
		return
	}
	if req.CurrentPassword == "" {
		WriteAuthError(w, NewAuthError(ErrCodeMissingField, "Current password is required", "currentPassword"))
		return
	}
	if len(req.NewPassword) < MinPasswordLength {
		WriteAuthError(w, NewAuthError(ErrCodeWeakPassword, "New password is too short", "newPassword"))
		return
	}
	if len(req.NewPassword) > MaxPasswordLength {
		WriteAuthError(w, NewAuthError(ErrCodeInvalidPassword, "New password is too long", "newPassword"))
		return
	}

	accountID := AccountIDFromContext(r.Context())
	account, err := s.Store.FindByID(accountID)
	if err != nil {
		log.Printf("password: store lookup failed: %v", err)
		writeServerError(w)
		return
	}
	if err := s.Hasher.CheckPassword(req.CurrentPassword, account.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			WriteAuthError(w, NewAuthError(ErrCodeInvalidCreds, "Invalid email or password", ""))
			return
		}
		log.Printf("password: verification fault: %v", err)
		writeServerError(w)
		return
	}
	hash, err := s.Hasher.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("password: hashing failed: %v", err)
		writeServerError(w)
		return
	}
	account.PasswordHash = hash
	if err := s.Store.Save(account); err != nil {
		log.Printf("password: save failed: %v", err)
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password updated"})
}

// handleOAuthProfile reconciles a Google profile against the account store,
// matching by normalized email. First-time OAuth users get an account with a
// random password so the credential paths stay uniform.
func (s *Service) handleOAuthProfile(profile *oauth2.Profile, token *xoauth2.Token, w http.ResponseWriter, r *http.Request) {
	email := NormalizeEmail(profile.Email)
	account, err := s.Store.FindByEmail(email)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			log.Printf("oauth: store lookup failed: %v", err)
			writeServerError(w)
			return
		}
		placeholder, err := RandomPassword()
		if err != nil {
			log.Printf("oauth: placeholder generation failed: %v", err)
			writeServerError(w)
			return
		}
		hash, err := s.Hasher.HashPassword(placeholder)
		if err != nil {
			log.Printf("oauth: hashing failed: %v", err)
			writeServerError(w)
			return
		}
		account = &Account{
			ID:            uuid.NewString(),
			Email:         email,
			PasswordHash:  hash,
			DisplayName:   DisplayNameFor(profile.Name, email),
			IsActive:      true,
			EmailVerified: true,
		}
		if err := s.Store.Create(account); err != nil {
			if errors.Is(err, ErrDuplicateEmail) {
				// Lost a race with a concurrent signup for the same email.
				account, err = s.Store.FindByEmail(email)
			}
			if err != nil {
				log.Printf("oauth: create failed: %v", err)
				writeServerError(w)
				return
			}
		}
	}

	now := time.Now()
	account.LastLoginAt = &now
	if err := s.Store.Save(account); err != nil {
		log.Printf("oauth: failed to update last login for %s: %v", account.ID, err)
	}

	sessionToken, err := s.Issuer.Issue(account.ID, account.Email)
	if err != nil {
		log.Printf("oauth: token issuance failed: %v", err)
		writeServerError(w)
		return
	}
	s.Session.Put(r.Context(), SessionAccountIDKey, account.ID)

	redirectTo := s.frontendURL
	if cookie, err := r.Cookie(oauth2.CallbackCookieName); err == nil && cookie.Value != "" {
		redirectTo = s.safeRedirectTarget(cookie.Value)
		http.SetCookie(w, &http.Cookie{Name: oauth2.CallbackCookieName, Path: "/", MaxAge: -1})
	}
	s.renderBootstrapPage(w, account, sessionToken, redirectTo)
}

// safeRedirectTarget accepts a requested post-login destination only when
// it cannot leave the app: a relative path, or a URL on the frontend's own
// origin. The cookie it comes from is client-settable, so anything else
// falls back to the frontend URL.
func (s *Service) safeRedirectTarget(target string) string {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.Contains(target, "\\") {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return s.frontendURL
	}
	front, err := url.Parse(s.frontendURL)
	if err != nil || u.Scheme != front.Scheme || u.Host == "" || u.Host != front.Host {
		return s.frontendURL
	}
	return target
}

// bootstrapPage hands the token to the SPA: it stores token and user in
// localStorage and then navigates to the frontend. Values are injected as
// JSON so the template engine cannot mangle them.
var bootstrapPage = template.Must(template.New("bootstrap").Parse(`<!DOCTYPE html>
<html>
<head><title>Signing in...</title></head>
<body>
<script>
localStorage.setItem("authToken", {{.Token}});
localStorage.setItem("authUser", JSON.stringify({{.User}}));
window.location.replace({{.RedirectTo}});
</script>
</body>
</html>
`))

func (s *Service) renderBootstrapPage(w http.ResponseWriter, account *Account, token string, redirectTo string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := bootstrapPage.Execute(w, map[string]any{
		"Token":      token,
		"User":       account.Summary(),
		"RedirectTo": redirectTo,
	})
	if err != nil {
		log.Printf("oauth: bootstrap render failed: %v", err)
	}
}
