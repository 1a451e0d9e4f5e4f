package client_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotics-press/bookauth/client"
)

func tempStore(t *testing.T) *client.FSCredentialStore {
	t.Helper()
	return client.NewFSCredentialStore(filepath.Join(t.TempDir(), "credentials.json"))
}

func validCredential() *client.Credential {
	return &client.Credential{
		AccessToken: "token-abc",
		UserID:      "user-1",
		UserEmail:   "a@b.com",
		ExpiresAt:   time.Now().Add(30 * 24 * time.Hour),
		CreatedAt:   time.Now(),
	}
}

func TestContextLifecycle(t *testing.T) {
	ctx := client.NewContext(tempStore(t))

	assert.False(t, ctx.IsLoggedIn(), "fresh context should be logged out")
	assert.Empty(t, ctx.Token())

	require.NoError(t, ctx.Login(validCredential()))
	assert.True(t, ctx.IsLoggedIn())
	assert.Equal(t, "token-abc", ctx.Token())

	require.NoError(t, ctx.Logout())
	assert.False(t, ctx.IsLoggedIn())
	assert.Empty(t, ctx.Token())
}

func TestContextStateSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	first := client.NewContext(client.NewFSCredentialStore(path))
	require.NoError(t, first.Login(validCredential()))

	// A new context over the same file sees the stored login.
	second := client.NewContext(client.NewFSCredentialStore(path))
	assert.True(t, second.IsLoggedIn())
	assert.Equal(t, "token-abc", second.Token())
}

func TestContextTreatsExpiredAsLoggedOut(t *testing.T) {
	ctx := client.NewContext(tempStore(t))

	cred := validCredential()
	cred.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, ctx.Login(cred))

	assert.False(t, ctx.IsLoggedIn(), "expired credential should read as logged out")
	assert.Empty(t, ctx.Token())
}

func TestContextTreatsCorruptStoreAsLoggedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	ctx := client.NewContext(client.NewFSCredentialStore(path))
	assert.False(t, ctx.IsLoggedIn(), "unreadable credential should read as logged out")
}

// A context over an absent store must read as logged out everywhere, not
// fail: apps consult it before any credential file exists.
func TestContextNilStore(t *testing.T) {
	for name, ctx := range map[string]*client.Context{
		"nil context": nil,
		"nil store":   client.NewContext(nil),
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, ctx.IsLoggedIn())
			assert.Empty(t, ctx.Token())

			cred, err := ctx.Credential()
			assert.NoError(t, err)
			assert.Nil(t, cred)

			assert.Error(t, ctx.Login(validCredential()), "login with nowhere to store must fail, not panic")
			assert.NoError(t, ctx.Logout())
		})
	}
}

func TestContextNilStoreHTTPClient(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	ctx := client.NewContext(nil)
	resp, err := ctx.HTTPClient().Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, seenAuth)
}

func TestFSStorePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	store := client.NewFSCredentialStore(path)

	require.NoError(t, store.Save(validCredential()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "credential file should not be world-readable")
}

func TestFSStoreLoadMissing(t *testing.T) {
	store := tempStore(t)

	cred, err := store.Load()
	require.NoError(t, err, "missing file is not an error")
	assert.Nil(t, cred)

	require.NoError(t, store.Clear(), "clearing an empty store is not an error")
}

func TestAuthTransportAddsBearerHeader(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	httpClient := &http.Client{Transport: client.NewAuthTransport("token-xyz")}
	resp, err := httpClient.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer token-xyz", seenAuth)
}

func TestContextHTTPClientPicksUpRelogin(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	ctx := client.NewContext(tempStore(t))
	httpClient := ctx.HTTPClient()

	resp, err := httpClient.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, seenAuth, "logged-out client should send no Authorization header")

	require.NoError(t, ctx.Login(validCredential()))
	resp, err = httpClient.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer token-abc", seenAuth)
}
