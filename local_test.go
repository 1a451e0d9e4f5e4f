package bookauth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/robotics-press/bookauth"
	"github.com/robotics-press/bookauth/stores"
)

func newTestAuth(t *testing.T) (*bookauth.LocalAuth, *stores.MemStore) {
	t.Helper()
	issuer, err := bookauth.NewIssuer("test-secret", "test", 0)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	store := stores.NewMemStore()
	return &bookauth.LocalAuth{
		Store:  store,
		Hasher: bookauth.NewHasher(bcryptTestCost),
		Issuer: issuer,
	}, store
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to encode body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestSignupValidation(t *testing.T) {
	auth, _ := newTestAuth(t)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "missing email",
			body:           map[string]string{"password": "password123"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "missing_field",
		},
		{
			name:           "missing password",
			body:           map[string]string{"email": "a@b.com"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "missing_field",
		},
		{
			name:           "malformed email",
			body:           map[string]string{"email": "not-an-email", "password": "password123"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_email",
		},
		{
			name:           "short password",
			body:           map[string]string{"email": "a@b.com", "password": "1234567"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "weak_password",
		},
		{
			name:           "password beyond bcrypt limit",
			body:           map[string]string{"email": "a@b.com", "password": strings.Repeat("a", 100)},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_password",
		},
		{
			name:           "valid signup",
			body:           map[string]string{"email": "a@b.com", "password": "password123"},
			expectedStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, auth.HandleSignup, "/signup", tt.body)
			if rr.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d. Body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
			if tt.expectedCode != "" {
				body := decodeBody(t, rr)
				if body["code"] != tt.expectedCode {
					t.Errorf("Expected error code %q, got %v", tt.expectedCode, body["code"])
				}
			}
		})
	}
}

func TestSignupAcceptsFormEncoding(t *testing.T) {
	auth, _ := newTestAuth(t)

	form := url.Values{}
	form.Set("email", "form@example.com")
	form.Set("password", "password123")

	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	auth.HandleSignup(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d. Body: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
}

// TestSignupLoginJourney walks the canonical flow: register, get rejected as
// a duplicate, fail a login with the wrong password, then log in properly.
func TestSignupLoginJourney(t *testing.T) {
	auth, _ := newTestAuth(t)

	// Signup a@b.com
	rr := postJSON(t, auth.HandleSignup, "/signup", map[string]string{
		"email": "a@b.com", "password": "password123",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d. Body: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["token"] == "" || body["token"] == nil {
		t.Error("Expected signup response to carry a token")
	}
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("Expected user object in response, got: %v", body["user"])
	}
	if user["email"] != "a@b.com" {
		t.Errorf("Expected user email 'a@b.com', got %v", user["email"])
	}

	// Second signup with the same email conflicts.
	rr = postJSON(t, auth.HandleSignup, "/signup", map[string]string{
		"email": "a@b.com", "password": "password456",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected status %d for duplicate email, got %d", http.StatusConflict, rr.Code)
	}

	// Same address, different case, still a duplicate.
	rr = postJSON(t, auth.HandleSignup, "/signup", map[string]string{
		"email": "A@B.COM", "password": "password456",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected status %d for case-variant duplicate, got %d", http.StatusConflict, rr.Code)
	}

	// Wrong password is rejected.
	rr = postJSON(t, auth.HandleLogin, "/login", map[string]string{
		"email": "a@b.com", "password": "wrongpassword",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status %d for wrong password, got %d", http.StatusUnauthorized, rr.Code)
	}

	// Correct password succeeds and yields a verifiable token.
	rr = postJSON(t, auth.HandleLogin, "/login", map[string]string{
		"email": "a@b.com", "password": "password123",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d. Body: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	body = decodeBody(t, rr)
	token, _ := body["token"].(string)
	claims, err := auth.Issuer.Verify(token)
	if err != nil {
		t.Fatalf("Login token failed to verify: %v", err)
	}
	if claims.Email != "a@b.com" {
		t.Errorf("Expected token email 'a@b.com', got '%s'", claims.Email)
	}
}

// TestLoginResponsesDoNotLeakAccountExistence checks that an unknown email
// and a wrong password are indistinguishable to the caller.
func TestLoginResponsesDoNotLeakAccountExistence(t *testing.T) {
	auth, _ := newTestAuth(t)

	rr := postJSON(t, auth.HandleSignup, "/signup", map[string]string{
		"email": "known@example.com", "password": "password123",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Signup failed: %d %s", rr.Code, rr.Body.String())
	}

	unknownRR := postJSON(t, auth.HandleLogin, "/login", map[string]string{
		"email": "unknown@example.com", "password": "password123",
	})
	wrongRR := postJSON(t, auth.HandleLogin, "/login", map[string]string{
		"email": "known@example.com", "password": "wrongpassword",
	})

	if unknownRR.Code != http.StatusUnauthorized || wrongRR.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for both, got %d and %d", unknownRR.Code, wrongRR.Code)
	}
	if unknownRR.Body.String() != wrongRR.Body.String() {
		t.Errorf("Responses differ:\n unknown email: %s\n wrong password: %s",
			unknownRR.Body.String(), wrongRR.Body.String())
	}
}

func TestResponsesNeverContainPasswordHash(t *testing.T) {
	auth, store := newTestAuth(t)

	rr := postJSON(t, auth.HandleSignup, "/signup", map[string]string{
		"email": "a@b.com", "password": "password123",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Signup failed: %d %s", rr.Code, rr.Body.String())
	}

	account, err := store.FindByEmail("a@b.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if account.PasswordHash == "" || account.PasswordHash == "password123" {
		t.Fatal("Expected a stored bcrypt hash")
	}
	if strings.Contains(rr.Body.String(), account.PasswordHash) {
		t.Error("Signup response leaked the password hash")
	}

	loginRR := postJSON(t, auth.HandleLogin, "/login", map[string]string{
		"email": "a@b.com", "password": "password123",
	})
	if strings.Contains(loginRR.Body.String(), account.PasswordHash) {
		t.Error("Login response leaked the password hash")
	}
}

func TestLoginUpdatesLastLogin(t *testing.T) {
	auth, store := newTestAuth(t)

	postJSON(t, auth.HandleSignup, "/signup", map[string]string{
		"email": "a@b.com", "password": "password123",
	})
	rr := postJSON(t, auth.HandleLogin, "/login", map[string]string{
		"email": "a@b.com", "password": "password123",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Login failed: %d %s", rr.Code, rr.Body.String())
	}

	account, err := store.FindByEmail("a@b.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if account.LastLoginAt == nil {
		t.Error("Expected LastLoginAt to be set after login")
	}
}

func TestLoginRateLimiting(t *testing.T) {
	auth, _ := newTestAuth(t)
	limiter := bookauth.NewLoginLimiter(1, 3)
	defer limiter.Stop()
	auth.Limiter = limiter

	postJSON(t, auth.HandleSignup, "/signup", map[string]string{
		"email": "a@b.com", "password": "password123",
	})

	var sawTooMany bool
	for i := 0; i < 10; i++ {
		rr := postJSON(t, auth.HandleLogin, "/login", map[string]string{
			"email": "a@b.com", "password": "wrongpassword",
		})
		if rr.Code == http.StatusTooManyRequests {
			sawTooMany = true
			break
		}
	}
	if !sawTooMany {
		t.Error("Expected repeated failed logins to hit the rate limit")
	}
}

func TestLogout(t *testing.T) {
	auth, _ := newTestAuth(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rr := httptest.NewRecorder()
	auth.HandleLogout(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
}
