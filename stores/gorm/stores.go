package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/robotics-press/bookauth"
)

// AutoMigrate runs database migrations for the account table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&AccountModel{})
}

// AccountStore implements bookauth.AccountStore using GORM.
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) FindByEmail(email string) (*bookauth.Account, error) {
	var model AccountModel
	err := s.db.First(&model, "email = ?", bookauth.NormalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookauth.ErrAccountNotFound
		}
		return nil, err
	}
	return model.ToAccount(), nil
}

func (s *AccountStore) FindByID(id string) (*bookauth.Account, error) {
	var model AccountModel
	err := s.db.First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookauth.ErrAccountNotFound
		}
		return nil, err
	}
	return model.ToAccount(), nil
}

func (s *AccountStore) Create(account *bookauth.Account) error {
	model := AccountToModel(account)
	if err := s.db.Create(model).Error; err != nil {
		// Requires gorm.Config{TranslateError: true} on the session.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return bookauth.ErrDuplicateEmail
		}
		return err
	}
	account.CreatedAt = model.CreatedAt
	account.UpdatedAt = model.UpdatedAt
	return nil
}

func (s *AccountStore) Save(account *bookauth.Account) error {
	model := AccountToModel(account)
	err := s.db.Save(model).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return bookauth.ErrDuplicateEmail
	}
	return err
}
