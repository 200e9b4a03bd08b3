package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/veriauth/veriauth/internal/models"
	"github.com/veriauth/veriauth/internal/pending"
	"github.com/veriauth/veriauth/pkg/crypto"
	"github.com/veriauth/veriauth/pkg/mail"
)

// SignupInput captures the fields accepted when registering an account.
type SignupInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// AccountService handles registration, email verification, login, and profile
// lookup. New accounts start unverified and cannot log in until the emailed
// verification link is followed.
type AccountService struct {
	db      *gorm.DB
	tokens  *pending.Manager
	mailer  mail.Mailer
	baseURL string
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB, tokens *pending.Manager, mailer mail.Mailer, baseURL string) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("account service: token manager is required")
	}

	return &AccountService{
		db:      db,
		tokens:  tokens,
		mailer:  mailer,
		baseURL: baseURL,
	}, nil
}

// Signup creates an unverified account, issues an email-verification pending
// action, and emails the confirmation link. No session is returned; the user
// must verify before logging in.
func (s *AccountService) Signup(ctx context.Context, input SignupInput) (*models.Account, error) {
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account service: hash password: %w", err)
	}

	account := models.Account{
		Name:     strings.TrimSpace(input.Name),
		Username: strings.TrimSpace(input.Username),
		Email:    strings.TrimSpace(strings.ToLower(input.Email)),
		Password: hash,
	}

	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAccountExists.WithInternal(err)
		}
		return nil, fmt.Errorf("account service: create account: %w", err)
	}

	token, err := s.tokens.Issue(ctx, account.ID, pending.FlowEmailVerification, "")
	if err != nil {
		return nil, fmt.Errorf("account service: issue verification token: %w", err)
	}

	link := confirmationLink(s.baseURL, "verify-email", token)
	body := fmt.Sprintf("Please click this link to verify your email: %s\n", link)
	if err := deliver(ctx, s.mailer, account.Email, "Verify your Email", body); err != nil {
		return nil, err
	}

	return &account, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
// The verified flag is monotonic; nothing in the service resets it.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	account, err := s.tokens.Resolve(ctx, pending.FlowEmailVerification, token)
	if err != nil {
		if errors.Is(err, pending.ErrTokenNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	err = s.tokens.Consume(ctx, account.ID, pending.FlowEmailVerification, token, map[string]any{
		"is_verified": true,
	})
	if errors.Is(err, pending.ErrTokenNotFound) {
		return ErrInvalidToken
	}
	return err
}

// Authenticate verifies an email/password pair. Unknown email and wrong
// password collapse into one generic failure; an unverified account is the one
// case reported with its own message.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var account models.Account
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("account service: query account: %w", err)
	}

	if !account.IsVerified {
		return nil, ErrEmailNotVerified
	}

	if !crypto.VerifyPassword(account.Password, password) {
		return nil, ErrInvalidCredentials
	}

	return &account, nil
}

// Profile returns the account for the given id.
func (s *AccountService) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Take(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account service: query account: %w", err)
	}

	return &account, nil
}
