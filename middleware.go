package bookauth

import (
	"context"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
)

// SessionAccountIDKey is the session key under which the logged-in account
// id is mirrored for browser flows.
const SessionAccountIDKey = "accountId"

type contextKey string

const accountIDContextKey = contextKey("bookauth.accountID")

// Middleware resolves the calling account for incoming requests. Identity is
// looked up in order: request context, server session, Authorization header,
// token cookie. The first hit wins.
type Middleware struct {
	Issuer *Issuer

	// HeaderName is the header carrying the bearer token. Defaults to
	// "Authorization".
	HeaderName string

	// CookieName, when set, names a cookie that may carry the raw token.
	CookieName string

	Session *scs.SessionManager
}

func NewMiddleware(issuer *Issuer) *Middleware {
	return &Middleware{Issuer: issuer, HeaderName: "Authorization"}
}

// AccountID returns the authenticated account id for the request, or "" when
// the request carries no usable identity.
func (m *Middleware) AccountID(r *http.Request) string {
	if id := AccountIDFromContext(r.Context()); id != "" {
		return id
	}
	if m.Session != nil {
		if id := m.Session.GetString(r.Context(), SessionAccountIDKey); id != "" {
			return id
		}
	}
	if token := m.bearerToken(r); token != "" {
		if claims, err := m.Issuer.Verify(token); err == nil {
			return claims.AccountID
		}
	}
	if m.CookieName != "" {
		if cookie, err := r.Cookie(m.CookieName); err == nil && cookie.Value != "" {
			if claims, err := m.Issuer.Verify(cookie.Value); err == nil {
				return claims.AccountID
			}
		}
	}
	return ""
}

func (m *Middleware) bearerToken(r *http.Request) string {
	header := m.HeaderName
	if header == "" {
		header = "Authorization"
	}
	value := r.Header.Get(header)
	if value == "" {
		return ""
	}
	parts := strings.SplitN(value, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(value)
}

// ExtractAccount resolves the caller's identity (if any) into the request
// context and always passes the request through.
func (m *Middleware) ExtractAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := m.AccountID(r); id != "" {
			r = r.WithContext(ContextWithAccountID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAccount rejects requests without a resolvable identity.
func (m *Middleware) RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := m.AccountID(r)
		if id == "" {
			WriteAuthError(w, NewAuthError(ErrCodeInvalidCreds, "Authentication required", ""))
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithAccountID(r.Context(), id)))
	})
}

// ContextWithAccountID returns a context carrying the given account id.
func ContextWithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDContextKey, accountID)
}

// AccountIDFromContext returns the account id stored by ExtractAccount or
// RequireAccount, or "".
func AccountIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(accountIDContextKey).(string); ok {
		return id
	}
	return ""
}
