package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/veriauth/veriauth/internal/models"
	"github.com/veriauth/veriauth/internal/pending"
	"github.com/veriauth/veriauth/pkg/crypto"
	"github.com/veriauth/veriauth/pkg/mail"
)

// PasswordChangeService runs the two-step password change: an authenticated
// request stores the new hash as pending, and an emailed link (or the API
// variant) applies it. The live password is untouched until confirmation.
type PasswordChangeService struct {
	db      *gorm.DB
	tokens  *pending.Manager
	mailer  mail.Mailer
	baseURL string
}

// NewPasswordChangeService constructs a PasswordChangeService.
func NewPasswordChangeService(db *gorm.DB, tokens *pending.Manager, mailer mail.Mailer, baseURL string) (*PasswordChangeService, error) {
	if db == nil {
		return nil, errors.New("password change service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("password change service: token manager is required")
	}

	return &PasswordChangeService{
		db:      db,
		tokens:  tokens,
		mailer:  mailer,
		baseURL: baseURL,
	}, nil
}

// Request verifies the current password, stages the new hash as the pending
// payload, and emails a confirmation link. A wrong current password fails
// without side effects.
func (s *PasswordChangeService) Request(ctx context.Context, accountID, currentPassword, newPassword string) error {
	var account models.Account
	err := s.db.WithContext(ctx).Take(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("password change service: query account: %w", err)
	}

	if !crypto.VerifyPassword(account.Password, currentPassword) {
		return ErrCurrentPasswordIncorrect
	}

	pendingHash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("password change service: hash password: %w", err)
	}

	token, err := s.tokens.Issue(ctx, account.ID, pending.FlowPasswordChange, pendingHash)
	if err != nil {
		return fmt.Errorf("password change service: issue token: %w", err)
	}

	link := confirmationLink(s.baseURL, "verify-password-change", token)
	body := fmt.Sprintf("Click here to verify your password change: %s\n", link)
	return deliver(ctx, s.mailer, account.Email, "Verify Your Password Change", body)
}

// ConfirmFromLink applies the staged pending hash. Used by the unauthenticated
// email link.
func (s *PasswordChangeService) ConfirmFromLink(ctx context.Context, token string) error {
	account, err := s.tokens.Resolve(ctx, pending.FlowPasswordChange, token)
	if err != nil {
		if errors.Is(err, pending.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if account.PendingPasswordHash == nil {
		return ErrInvalidToken
	}

	err = s.tokens.Consume(ctx, account.ID, pending.FlowPasswordChange, token, map[string]any{
		"password": *account.PendingPasswordHash,
	})
	if errors.Is(err, pending.ErrTokenNotFound) {
		return ErrInvalidToken
	}
	return err
}

// ConfirmWithPassword is the API variant: the caller supplies the new password
// at confirm time and it replaces the staged one.
func (s *PasswordChangeService) ConfirmWithPassword(ctx context.Context, token, newPassword string) error {
	account, err := s.tokens.Resolve(ctx, pending.FlowPasswordChange, token)
	if err != nil {
		if errors.Is(err, pending.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("password change service: hash password: %w", err)
	}

	err = s.tokens.Consume(ctx, account.ID, pending.FlowPasswordChange, token, map[string]any{
		"password": hash,
	})
	if errors.Is(err, pending.ErrTokenNotFound) {
		return ErrInvalidToken
	}
	return err
}
