package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/veriauth/veriauth/internal/models"
	"github.com/veriauth/veriauth/internal/pending"
	"github.com/veriauth/veriauth/pkg/mail"
)

// UsernameChangeService stages a username change behind an emailed
// confirmation link. The candidate is validated at request time and again at
// confirm time, so a name claimed by another account in between is rejected.
type UsernameChangeService struct {
	db      *gorm.DB
	tokens  *pending.Manager
	mailer  mail.Mailer
	baseURL string
}

// NewUsernameChangeService constructs a UsernameChangeService.
func NewUsernameChangeService(db *gorm.DB, tokens *pending.Manager, mailer mail.Mailer, baseURL string) (*UsernameChangeService, error) {
	if db == nil {
		return nil, errors.New("username change service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("username change service: token manager is required")
	}

	return &UsernameChangeService{
		db:      db,
		tokens:  tokens,
		mailer:  mailer,
		baseURL: baseURL,
	}, nil
}

// Request validates the candidate username, stages it as the pending payload,
// and emails a confirmation link to the account's address.
func (s *UsernameChangeService) Request(ctx context.Context, email, newUsername string) error {
	email = strings.TrimSpace(email)
	newUsername = strings.TrimSpace(newUsername)

	var account models.Account
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("username change service: query account: %w", err)
	}

	if account.Username == newUsername {
		return ErrUsernameUnchanged
	}

	taken, err := s.usernameTaken(ctx, newUsername, account.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}

	token, err := s.tokens.Issue(ctx, account.ID, pending.FlowUsernameChange, newUsername)
	if err != nil {
		return fmt.Errorf("username change service: issue token: %w", err)
	}

	link := confirmationLink(s.baseURL, "confirm-username", token)
	body := fmt.Sprintf("Click here to confirm your username change: %s\n", link)
	return deliver(ctx, s.mailer, account.Email, "Confirm Username Change", body)
}

// Confirm applies the staged username. Uniqueness is re-checked here because
// another account may have claimed the name since the request was made.
func (s *UsernameChangeService) Confirm(ctx context.Context, token string) error {
	account, err := s.tokens.Resolve(ctx, pending.FlowUsernameChange, token)
	if err != nil {
		if errors.Is(err, pending.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if account.PendingUsername == nil {
		return ErrInvalidToken
	}

	taken, err := s.usernameTaken(ctx, *account.PendingUsername, account.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}

	err = s.tokens.Consume(ctx, account.ID, pending.FlowUsernameChange, token, map[string]any{
		"username": *account.PendingUsername,
	})
	if errors.Is(err, pending.ErrTokenNotFound) {
		return ErrInvalidToken
	}
	return err
}

func (s *UsernameChangeService) usernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("username = ? AND id <> ?", username, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("username change service: count usernames: %w", err)
	}
	return count > 0, nil
}
