package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is the single persistent entity: a user account with one nullable
// pending-action triplet per confirmation flow. A token field is set iff its
// paired expiry is set and the action is still awaiting confirmation.
type Account struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	IsVerified bool `gorm:"default:false" json:"is_verified"`

	EmailVerificationToken   *string    `gorm:"index" json:"-"`
	EmailVerificationExpires *time.Time `json:"-"`

	PasswordChangeToken   *string    `gorm:"index" json:"-"`
	PasswordChangeExpires *time.Time `json:"-"`
	PendingPasswordHash   *string    `json:"-"`

	UsernameChangeToken   *string    `gorm:"index" json:"-"`
	UsernameChangeExpires *time.Time `json:"-"`
	PendingUsername       *string    `json:"-"`

	DeleteAccountToken   *string    `gorm:"index" json:"-"`
	DeleteAccountExpires *time.Time `json:"-"`

	// Accounts are removed with a hard delete; no gorm.DeletedAt on purpose.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
