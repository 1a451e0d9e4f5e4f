package bookauth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/robotics-press/bookauth"
)

func TestMiddlewareBearerToken(t *testing.T) {
	issuer, _ := bookauth.NewIssuer("test-secret", "test", 0)
	mw := bookauth.NewMiddleware(issuer)

	token, err := issuer.Issue("user-123", "a@b.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		expectedID string
	}{
		{"valid bearer token", "Bearer " + token, "user-123"},
		{"bare token", token, "user-123"},
		{"no header", "", ""},
		{"garbage token", "Bearer garbage", ""},
		{"wrong scheme with garbage", "Basic dXNlcjpwYXNz", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if got := mw.AccountID(req); got != tt.expectedID {
				t.Errorf("Expected account id %q, got %q", tt.expectedID, got)
			}
		})
	}
}

func TestMiddlewareCookieToken(t *testing.T) {
	issuer, _ := bookauth.NewIssuer("test-secret", "test", 0)
	mw := bookauth.NewMiddleware(issuer)
	mw.CookieName = "authToken"

	token, _ := issuer.Issue("user-456", "c@d.com")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "authToken", Value: token})

	if got := mw.AccountID(req); got != "user-456" {
		t.Errorf("Expected account id 'user-456', got %q", got)
	}
}

func TestRequireAccount(t *testing.T) {
	issuer, _ := bookauth.NewIssuer("test-secret", "test", 0)
	mw := bookauth.NewMiddleware(issuer)

	var seenID string
	handler := mw.RequireAccount(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = bookauth.AccountIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("rejects anonymous request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, rr.Code)
		}
	})

	t.Run("passes authenticated request with context", func(t *testing.T) {
		token, _ := issuer.Issue("user-789", "e@f.com")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
		}
		if seenID != "user-789" {
			t.Errorf("Expected context account id 'user-789', got %q", seenID)
		}
	})
}

func TestExtractAccountPassesAnonymous(t *testing.T) {
	issuer, _ := bookauth.NewIssuer("test-secret", "test", 0)
	mw := bookauth.NewMiddleware(issuer)

	handler := mw.ExtractAccount(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := bookauth.AccountIDFromContext(r.Context()); id != "" {
			t.Errorf("Expected empty account id, got %q", id)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected anonymous request to pass through, got %d", rr.Code)
	}
}
