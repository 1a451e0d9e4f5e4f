// Package stores provides account store implementations. MemStore lives
// here; the gorm subpackage holds the database-backed store.
package stores

import (
	"sync"

	"github.com/robotics-press/bookauth"
)

// MemStore is an in-memory AccountStore for tests and development. It is
// safe for concurrent use and enforces the same email uniqueness the
// database store does.
type MemStore struct {
	mu      sync.RWMutex
	byID    map[string]*bookauth.Account
	byEmail map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		byID:    map[string]*bookauth.Account{},
		byEmail: map[string]string{},
	}
}

func (s *MemStore) FindByEmail(email string) (*bookauth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[bookauth.NormalizeEmail(email)]
	if !ok {
		return nil, bookauth.ErrAccountNotFound
	}
	return copyAccount(s.byID[id]), nil
}

func (s *MemStore) FindByID(id string) (*bookauth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.byID[id]
	if !ok {
		return nil, bookauth.ErrAccountNotFound
	}
	return copyAccount(account), nil
}

func (s *MemStore) Create(account *bookauth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := bookauth.NormalizeEmail(account.Email)
	if _, exists := s.byEmail[email]; exists {
		return bookauth.ErrDuplicateEmail
	}
	stored := copyAccount(account)
	stored.Email = email
	s.byID[stored.ID] = stored
	s.byEmail[email] = stored.ID
	return nil
}

func (s *MemStore) Save(account *bookauth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[account.ID]
	if !ok {
		return bookauth.ErrAccountNotFound
	}
	stored := copyAccount(account)
	stored.Email = bookauth.NormalizeEmail(account.Email)
	if stored.Email != existing.Email {
		if id, taken := s.byEmail[stored.Email]; taken && id != account.ID {
			return bookauth.ErrDuplicateEmail
		}
		delete(s.byEmail, existing.Email)
		s.byEmail[stored.Email] = account.ID
	}
	s.byID[account.ID] = stored
	return nil
}

func copyAccount(a *bookauth.Account) *bookauth.Account {
	out := *a
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		out.LastLoginAt = &t
	}
	return &out
}
