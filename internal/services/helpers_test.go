package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/veriauth/veriauth/internal/database/testutil"
	"github.com/veriauth/veriauth/internal/models"
	"github.com/veriauth/veriauth/internal/pending"
	"github.com/veriauth/veriauth/internal/services"
	"github.com/veriauth/veriauth/pkg/crypto"
	"github.com/veriauth/veriauth/pkg/mail"
)

const testBaseURL = "http://localhost:5000"

// captureMailer records outbound messages instead of dialing SMTP.
type captureMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *captureMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

type serviceStack struct {
	db        *gorm.DB
	tokens    *pending.Manager
	mailer    *captureMailer
	accounts  *services.AccountService
	passwords *services.PasswordChangeService
	usernames *services.UsernameChangeService
	deletions *services.AccountDeletionService
}

func newServiceStack(t *testing.T) *serviceStack {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	tokens, err := pending.NewManager(db)
	require.NoError(t, err)

	mailer := &captureMailer{}

	accounts, err := services.NewAccountService(db, tokens, mailer, testBaseURL)
	require.NoError(t, err)
	passwords, err := services.NewPasswordChangeService(db, tokens, mailer, testBaseURL)
	require.NoError(t, err)
	usernames, err := services.NewUsernameChangeService(db, tokens, mailer, testBaseURL)
	require.NoError(t, err)
	deletions, err := services.NewAccountDeletionService(db, tokens, mailer, testBaseURL)
	require.NoError(t, err)

	return &serviceStack{
		db:        db,
		tokens:    tokens,
		mailer:    mailer,
		accounts:  accounts,
		passwords: passwords,
		usernames: usernames,
		deletions: deletions,
	}
}

// seedVerifiedAccount persists an already verified account with a known password.
func seedVerifiedAccount(t *testing.T, db *gorm.DB, username, email, password string) *models.Account {
	t.Helper()

	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)

	account := &models.Account{
		Name:       "Seeded User",
		Username:   username,
		Email:      email,
		Password:   hash,
		IsVerified: true,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func reloadAccount(t *testing.T, db *gorm.DB, id string) *models.Account {
	t.Helper()

	var account models.Account
	require.NoError(t, db.Take(&account, "id = ?", id).Error)
	return &account
}
