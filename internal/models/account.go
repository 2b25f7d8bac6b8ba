package models

import (
	"time"

	"gorm.io/gorm"
)

// Account is a disposable address and the secret that unlocks it.
type Account struct {
	Address   string    `gorm:"column:address;type:varchar(255);primaryKey"`
	Secret    string    `gorm:"column:secret;type:varchar(64);not null"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	ExpiresAt time.Time `gorm:"column:expires_at;type:timestamp;index;not null"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (a *Account) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}
