package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	StateCookieName    = "oauthstate"
	CallbackCookieName = "oauthCallbackURL"
)

// Profile is the normalized identity returned by a provider after a
// successful code exchange.
type Profile struct {
	Provider string
	Subject  string
	Email    string
	Name     string

	// Raw is the provider's userinfo payload as returned, for callers that
	// need fields beyond the normalized ones.
	Raw map[string]any
}

// HandleProfileFunc receives the provider profile after a successful
// callback. The delegate owns account reconciliation and the response.
type HandleProfileFunc func(profile *Profile, token *oauth2.Token, w http.ResponseWriter, r *http.Request)

func generateStateCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		log.Println("Error generating rand: ", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:    StateCookieName,
		Value:   state,
		Path:    "/",
		Expires: time.Now().Add(10 * time.Minute),
	})
	return state
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   StateCookieName,
		Path:   "/",
		MaxAge: -1,
	})
}
