// Package bookauth provides email/password and Google OAuth authentication
// for HTTP services, issuing stateless JWT session tokens.
//
// # Architecture
//
// Account: a registered user, looked up by a case-insensitively unique email
// address. Passwords are stored only as bcrypt hashes; OAuth-created accounts
// get a random placeholder password so every account has one.
//
// Issuer: mints and verifies HS256 session tokens. Tokens are self-contained
// and expire after 30 days; there is no server-side revocation.
//
// LocalAuth: the signup/login/logout HTTP handlers. Storage, hashing and
// token issuance are injected, so any AccountStore implementation works.
//
// The oauth2 subpackage runs the provider side of the authorization code
// flow and hands resolved profiles back through a delegate callback.
//
// # Basic Usage
//
// Wire a store and a Service:
//
//	import (
//	    "github.com/robotics-press/bookauth"
//	    "github.com/robotics-press/bookauth/stores"
//	)
//
//	store := stores.NewMemStore()
//	svc, err := bookauth.New(store, bookauth.Config{
//	    JWTSecret:   os.Getenv("JWT_SECRET"),
//	    FrontendURL: "https://yourapp.com",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", svc.Handler())
//
// Or mount the pieces yourself: LocalAuth's handlers are plain
// http.HandlerFuncs and Middleware.RequireAccount guards any route.
//
// # Store Implementations
//
// The stores package has an in-memory store for tests and development; the
// stores/gorm package persists accounts to any database GORM supports and is
// what production deployments should use.
//
// # Testing
//
// Handlers are tested without a running server via httptest.NewRequest and
// httptest.ResponseRecorder. The Issuer takes an optional clock override so
// expiry behavior can be tested without waiting.
package bookauth
