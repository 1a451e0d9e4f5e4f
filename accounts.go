package bookauth

import (
	"regexp"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Account is a persisted user identity record. PasswordHash always holds a
// bcrypt hash, never plaintext, and is never serialized.
type Account struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	DisplayName   string     `json:"displayName"`
	IsActive      bool       `json:"isActive"`
	EmailVerified bool       `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// AccountSummary is the client-facing view of an account. It is the only
// account shape handlers return.
type AccountSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (a *Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName}
}

// AccountStore manages account records. Implementations must enforce email
// uniqueness themselves (unique index or equivalent) so concurrent Create
// calls with the same email cannot both succeed.
type AccountStore interface {
	// FindByEmail looks an account up by normalized email.
	// Returns ErrAccountNotFound if no account exists.
	FindByEmail(email string) (*Account, error)

	// FindByID looks an account up by its ID.
	// Returns ErrAccountNotFound if no account exists.
	FindByID(id string) (*Account, error)

	// Create persists a new account. Returns ErrDuplicateEmail if the email
	// is already taken (case-insensitive).
	Create(account *Account) error

	// Save persists mutations to an existing account. Last write wins.
	Save(account *Account) error
}

// NormalizeEmail trims and lowercases an email so lookups and the uniqueness
// constraint are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the (normalized) email matches the basic
// address pattern.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// DisplayNameFor returns the display name to use for an account: the given
// name if present, otherwise the local part of the email.
func DisplayNameFor(name, email string) string {
	if name != "" {
		return name
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
