package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/veriauth/veriauth/internal/models"
	"github.com/veriauth/veriauth/internal/pending"
	"github.com/veriauth/veriauth/pkg/mail"
)

// AccountDeletionService stages account deletion behind an emailed
// confirmation link. Confirmation removes the record permanently; there is no
// soft delete and no grace period beyond the token window.
type AccountDeletionService struct {
	db      *gorm.DB
	tokens  *pending.Manager
	mailer  mail.Mailer
	baseURL string
}

// NewAccountDeletionService constructs an AccountDeletionService.
func NewAccountDeletionService(db *gorm.DB, tokens *pending.Manager, mailer mail.Mailer, baseURL string) (*AccountDeletionService, error) {
	if db == nil {
		return nil, errors.New("account deletion service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("account deletion service: token manager is required")
	}

	return &AccountDeletionService{
		db:      db,
		tokens:  tokens,
		mailer:  mailer,
		baseURL: baseURL,
	}, nil
}

// Request issues a deletion pending action and emails the confirmation link.
func (s *AccountDeletionService) Request(ctx context.Context, accountID string) error {
	var account models.Account
	err := s.db.WithContext(ctx).Take(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("account deletion service: query account: %w", err)
	}

	token, err := s.tokens.Issue(ctx, account.ID, pending.FlowAccountDeletion, "")
	if err != nil {
		return fmt.Errorf("account deletion service: issue token: %w", err)
	}

	link := confirmationLink(s.baseURL, "confirm-delete", token)
	body := fmt.Sprintf("Click this link to permanently delete your account: %s\n\nThis link expires in 1 hour.\n", link)
	return deliver(ctx, s.mailer, account.Email, "Confirm Account Deletion", body)
}

// Confirm permanently deletes the account behind a valid token.
func (s *AccountDeletionService) Confirm(ctx context.Context, token string) error {
	account, err := s.tokens.Resolve(ctx, pending.FlowAccountDeletion, token)
	if err != nil {
		if errors.Is(err, pending.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	err = s.tokens.ConsumeDelete(ctx, account.ID, pending.FlowAccountDeletion, token)
	if errors.Is(err, pending.ErrTokenNotFound) {
		return ErrInvalidToken
	}
	return err
}
