package gorm

import (
	"time"

	"github.com/robotics-press/bookauth"
)

// AccountModel is the GORM model for accounts. Emails are stored normalized
// (lowercased) so the unique index enforces case-insensitive uniqueness.
type AccountModel struct {
	ID            string    `gorm:"primaryKey;size:64"`
	Email         string    `gorm:"uniqueIndex;size:255"`
	PasswordHash  string    `gorm:"size:128"`
	DisplayName   string    `gorm:"size:255"`
	IsActive      bool      `gorm:"default:true"`
	EmailVerified bool      `gorm:"default:false"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
	LastLoginAt   *time.Time
}

func (AccountModel) TableName() string {
	return "accounts"
}

func (m *AccountModel) ToAccount() *bookauth.Account {
	return &bookauth.Account{
		ID:            m.ID,
		Email:         m.Email,
		PasswordHash:  m.PasswordHash,
		DisplayName:   m.DisplayName,
		IsActive:      m.IsActive,
		EmailVerified: m.EmailVerified,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		LastLoginAt:   m.LastLoginAt,
	}
}

func AccountToModel(a *bookauth.Account) *AccountModel {
	return &AccountModel{
		ID:            a.ID,
		Email:         bookauth.NormalizeEmail(a.Email),
		PasswordHash:  a.PasswordHash,
		DisplayName:   a.DisplayName,
		IsActive:      a.IsActive,
		EmailVerified: a.EmailVerified,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
		LastLoginAt:   a.LastLoginAt,
	}
}
