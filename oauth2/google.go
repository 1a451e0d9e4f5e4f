// Package oauth2 implements provider-side pieces of the authorization code
// flow. Each provider handles the redirect and callback legs and hands the
// resolved profile to a caller-supplied delegate; issuing tokens and
// reconciling accounts happen outside this package.
package oauth2

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuth drives the Google authorization code flow.
type GoogleOAuth struct {
	Config oauth2.Config

	// UserInfoURL is the endpoint queried for the user's profile after the
	// code exchange. Overridable for tests.
	UserInfoURL string

	HandleProfile HandleProfileFunc
}

func NewGoogleOAuth(clientId string, clientSecret string, callbackUrl string, handleProfile HandleProfileFunc) *GoogleOAuth {
	if clientId == "" {
		clientId = os.Getenv("OAUTH2_GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("OAUTH2_GOOGLE_CLIENT_SECRET")
	}
	if callbackUrl == "" {
		callbackUrl = os.Getenv("OAUTH2_GOOGLE_CALLBACK_URL")
	}
	return &GoogleOAuth{
		Config: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		UserInfoURL:   googleUserInfoURL,
		HandleProfile: handleProfile,
	}
}

// HandleRedirect starts the flow: it plants a random state cookie and sends
// the browser to Google's consent page. An optional callbackURL query param
// is remembered in a short-lived cookie so the delegate knows where to land
// the user afterwards.
func (g *GoogleOAuth) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	if callbackURL := r.URL.Query().Get("callbackURL"); callbackURL != "" {
		http.SetCookie(w, &http.Cookie{
			Name:   CallbackCookieName,
			Value:  callbackURL,
			Path:   "/",
			MaxAge: 120, // keep this short
		})
	}
	state := generateStateCookie(w)
	http.Redirect(w, r, g.Config.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback finishes the flow: it checks the state cookie, exchanges
// the code for tokens, fetches the userinfo payload and passes the profile
// to the delegate. State problems are the client's fault (400); exchange or
// userinfo failures mean we could not establish who the caller is (401).
func (g *GoogleOAuth) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, _ := r.Cookie(StateCookieName)
	if stateCookie == nil {
		log.Println("oauth callback without state cookie")
		http.Error(w, "Missing oauth state", http.StatusBadRequest)
		return
	}
	if r.FormValue("state") != stateCookie.Value {
		clearStateCookie(w)
		log.Printf("oauth state mismatch: form=%q cookie=%q", r.FormValue("state"), stateCookie.Value)
		http.Error(w, "Invalid oauth state", http.StatusBadRequest)
		return
	}
	clearStateCookie(w)

	token, err := g.Config.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		log.Println("code exchange failed: ", err)
		http.Error(w, "Authorization code exchange failed", http.StatusUnauthorized)
		return
	}

	userInfo, err := g.fetchUserInfo(token)
	if err != nil {
		log.Println("userinfo fetch failed: ", err)
		http.Error(w, "Could not fetch user profile", http.StatusUnauthorized)
		return
	}

	profile := profileFromUserInfo(userInfo)
	if profile.Email == "" {
		log.Println("userinfo payload carried no email")
		http.Error(w, "Provider returned no email", http.StatusUnauthorized)
		return
	}
	g.HandleProfile(profile, token, w, r)
}

func (g *GoogleOAuth) fetchUserInfo(token *oauth2.Token) (map[string]any, error) {
	query := url.Values{"access_token": {token.AccessToken}}
	response, err := http.Get(g.UserInfoURL + "?" + query.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", response.StatusCode)
	}
	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed read response: %w", err)
	}
	var userInfo map[string]any
	if err := json.Unmarshal(contents, &userInfo); err != nil {
		return nil, fmt.Errorf("failed parsing userinfo: %w", err)
	}
	return userInfo, nil
}

func profileFromUserInfo(userInfo map[string]any) *Profile {
	str := func(key string) string {
		if v, ok := userInfo[key].(string); ok {
			return v
		}
		return ""
	}
	return &Profile{
		Provider: "google",
		Subject:  str("id"),
		Email:    str("email"),
		Name:     str("name"),
		Raw:      userInfo,
	}
}
