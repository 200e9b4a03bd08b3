package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veriauth/veriauth/internal/services"
	"github.com/veriauth/veriauth/pkg/crypto"
)

func TestPasswordChangeRequestStagesPendingHash(t *testing.T) {
	stack := newServiceStack(t)
	account := seedVerifiedAccount(t, stack.db, "ada", "ada@example.com", "oldpassword")

	require.NoError(t, stack.passwords.Request(context.Background(), account.ID, "oldpassword", "newpassword"))

	stored := reloadAccount(t, stack.db, account.ID)
	require.NotNil(t, stored.PasswordChangeToken)
	require.NotNil(t, stored.PendingPasswordHash)
	require.True(t, crypto.VerifyPassword(*stored.PendingPasswordHash, "newpassword"))

	// The live password is untouched until confirmation.
	require.True(t, crypto.VerifyPassword(stored.Password, "oldpassword"))

	sent := stack.mailer.sent()
	require.Len(t, sent, 1)
	require.Equal(t, "Verify Your Password Change", sent[0].Subject)
	require.Contains(t, sent[0].Body, testBaseURL+"/api/auth/verify-password-change/"+*stored.PasswordChangeToken)
}

func TestPasswordChangeRequestWrongCurrentPassword(t *testing.T) {
	stack := newServiceStack(t)
	account := seedVerifiedAccount(t, stack.db, "ada", "ada@example.com", "oldpassword")

	err := stack.passwords.Request(context.Background(), account.ID, "not-the-password", "newpassword")
	require.ErrorIs(t, err, services.ErrCurrentPasswordIncorrect)

	// A rejected request leaves no pending action and sends no mail.
	stored := reloadAccount(t, stack.db, account.ID)
	require.Nil(t, stored.PasswordChangeToken)
	require.Nil(t, stored.PendingPasswordHash)
	require.Empty(t, stack.mailer.sent())
}

func TestPasswordChangeConfirmFromLink(t *testing.T) {
	stack := newServiceStack(t)
	account := seedVerifiedAccount(t, stack.db, "ada", "ada@example.com", "oldpassword")

	require.NoError(t, stack.passwords.Request(context.Background(), account.ID, "oldpassword", "newpassword"))
	token := *reloadAccount(t, stack.db, account.ID).PasswordChangeToken

	require.NoError(t, stack.passwords.ConfirmFromLink(context.Background(), token))

	stored := reloadAccount(t, stack.db, account.ID)
	require.True(t, crypto.VerifyPassword(stored.Password, "newpassword"))
	require.Nil(t, stored.PasswordChangeToken)
	require.Nil(t, stored.PendingPasswordHash)

	// Confirmation consumes the token.
	err := stack.passwords.ConfirmFromLink(context.Background(), token)
	require.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestPasswordChangeConfirmWithPasswordOverridesStagedHash(t *testing.T) {
	stack := newServiceStack(t)
	account := seedVerifiedAccount(t, stack.db, "ada", "ada@example.com", "oldpassword")

	require.NoError(t, stack.passwords.Request(context.Background(), account.ID, "oldpassword", "stagedpassword"))
	token := *reloadAccount(t, stack.db, account.ID).PasswordChangeToken

	// The API variant takes the password at confirm time.
	require.NoError(t, stack.passwords.ConfirmWithPassword(context.Background(), token, "confirmpassword"))

	stored := reloadAccount(t, stack.db, account.ID)
	require.True(t, crypto.VerifyPassword(stored.Password, "confirmpassword"))
	require.False(t, crypto.VerifyPassword(stored.Password, "stagedpassword"))
}

func TestPasswordChangeConfirmInvalidToken(t *testing.T) {
	stack := newServiceStack(t)

	err := stack.passwords.ConfirmFromLink(context.Background(), "bogus")
	require.ErrorIs(t, err, services.ErrInvalidToken)

	err = stack.passwords.ConfirmWithPassword(context.Background(), "bogus", "newpassword")
	require.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestPasswordChangeReissueInvalidatesEarlierLink(t *testing.T) {
	stack := newServiceStack(t)
	account := seedVerifiedAccount(t, stack.db, "ada", "ada@example.com", "oldpassword")

	require.NoError(t, stack.passwords.Request(context.Background(), account.ID, "oldpassword", "firstchoice"))
	first := *reloadAccount(t, stack.db, account.ID).PasswordChangeToken

	require.NoError(t, stack.passwords.Request(context.Background(), account.ID, "oldpassword", "secondchoice"))

	err := stack.passwords.ConfirmFromLink(context.Background(), first)
	require.ErrorIs(t, err, services.ErrInvalidToken)

	second := *reloadAccount(t, stack.db, account.ID).PasswordChangeToken
	require.NoError(t, stack.passwords.ConfirmFromLink(context.Background(), second))

	stored := reloadAccount(t, stack.db, account.ID)
	require.True(t, crypto.VerifyPassword(stored.Password, "secondchoice"))
}
