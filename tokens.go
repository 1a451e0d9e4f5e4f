package bookauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiry is how long issued session tokens stay valid.
const DefaultTokenExpiry = 30 * 24 * time.Hour

// Claims is the verified content of a session token.
type Claims struct {
	AccountID string
	Email     string
}

// Issuer mints and verifies stateless session tokens (HS256 JWTs). Validity
// is determined by signature and expiry alone: there is no revocation list,
// so a leaked token stays valid until it expires. Callers that need account
// freshness must re-fetch the account after Verify.
type Issuer struct {
	secretKey []byte
	issuer    string
	expiry    time.Duration

	// TimeFunc overrides the clock for issuance and verification.
	// Nil means time.Now.
	TimeFunc func() time.Time
}

// NewIssuer creates a token issuer. An empty secret is a deployment error,
// not a safe default, and is rejected outright.
func NewIssuer(secretKey, issuer string, expiry time.Duration) (*Issuer, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("token signing secret must not be empty")
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &Issuer{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		expiry:    expiry,
	}, nil
}

// Expiry returns how long issued tokens stay valid.
func (i *Issuer) Expiry() time.Duration {
	return i.expiry
}

func (i *Issuer) now() time.Time {
	if i.TimeFunc != nil {
		return i.TimeFunc()
	}
	return time.Now()
}

// Issue signs a token carrying the account id and email.
func (i *Issuer) Issue(accountID, email string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   accountID,
		"email": email,
		"iss":   i.issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(i.expiry).Unix(),
	})
	tokenString, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks signature and expiry and returns the claims. It does not
// check that the account still exists or is active.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if i.TimeFunc != nil {
		opts = append(opts, jwt.WithTimeFunc(i.TimeFunc))
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return i.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("claims is not a map")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("subject not found")
	}
	email, _ := claims["email"].(string)
	return &Claims{AccountID: sub, Email: email}, nil
}
