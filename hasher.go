package bookauth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the default work factor for password hashing.
const DefaultBcryptCost = 12

// Hasher hashes and verifies passwords with bcrypt. The output of
// HashPassword embeds the algorithm parameters and salt, so verification
// needs nothing beyond the stored hash.
type Hasher struct {
	Cost int
}

func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	return &Hasher{Cost: cost}
}

// HashPassword hashes a plaintext password. Errors here are infrastructure
// failures, never a statement about the password itself (beyond bcrypt's
// 72-byte input limit).
func (h *Hasher) HashPassword(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("password exceeds maximum length of 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against a stored hash.
// A mismatch and a malformed hash both return ErrInvalidPassword: a record
// whose hash cannot be parsed must fail closed, not crash or pass. Any other
// bcrypt fault is wrapped so callers can tell infrastructure failure apart
// from bad credentials.
func (h *Hasher) CheckPassword(plaintext, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	var prefixErr bcrypt.InvalidHashPrefixError
	if errors.Is(err, bcrypt.ErrHashTooShort) || errors.As(err, &prefixErr) {
		return ErrInvalidPassword
	}
	return fmt.Errorf("password verification failed: %w", err)
}

// RandomPassword generates a cryptographically secure placeholder password
// for accounts provisioned through an OAuth provider. The value is never
// shown to anyone and is hashed immediately.
func RandomPassword() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return hex.EncodeToString(b), nil
}
