package pending_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/veriauth/veriauth/internal/database/testutil"
	"github.com/veriauth/veriauth/internal/models"
	"github.com/veriauth/veriauth/internal/pending"
)

func createAccount(t *testing.T, db *gorm.DB) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:     "Test User",
		Username: "testuser",
		Email:    "test@example.com",
		Password: "$2a$10$abcdefghijklmnopqrstuv",
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestManagerIssueAndResolve(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	account := createAccount(t, db)

	mgr, err := pending.NewManager(db)
	require.NoError(t, err)

	token, err := mgr.Issue(context.Background(), account.ID, pending.FlowEmailVerification, "")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := mgr.Resolve(context.Background(), pending.FlowEmailVerification, token)
	require.NoError(t, err)
	require.Equal(t, account.ID, resolved.ID)
	require.NotNil(t, resolved.EmailVerificationToken)
	require.NotNil(t, resolved.EmailVerificationExpires)
}

func TestManagerIssueUnknownAccount(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	mgr, err := pending.NewManager(db)
	require.NoError(t, err)

	_, err = mgr.Issue(context.Background(), "00000000-0000-0000-0000-000000000000", pending.FlowEmailVerification, "")
	require.ErrorIs(t, err, pending.ErrAccountNotFound)
}

func TestManagerUnknownFlow(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	account := createAccount(t, db)

	mgr, err := pending.NewManager(db)
	require.NoError(t, err)

	_, err = mgr.Issue(context.Background(), account.ID, pending.Flow("bogus"), "")
	require.ErrorIs(t, err, pending.ErrUnknownFlow)

	_, err = mgr.Resolve(context.Background(), pending.Flow("bogus"), "token")
	require.ErrorIs(t, err, pending.ErrUnknownFlow)
}

func TestManagerResolveRejectsEmptyToken(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	mgr, err := pending.NewManager(db)
	require.NoError(t, err)

	_, err = mgr.Resolve(context.Background(), pending.FlowEmailVerification, "   ")
	require.ErrorIs(t, err, pending.ErrTokenNotFound)
}

func TestManagerExpiredTokenLooksAbsent(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	account := createAccount(t, db)

	current := time.Now()
	mgr, err := pending.NewManager(db, pending.WithClock(func() time.Time { return current }))
	require.NoError(t, err)

	token, err := mgr.Issue(context.Background(), account.ID, pending.FlowEmailVerification, "")
	require.NoError(t, err)

	// Advance past the one hour TTL; the token must now be indistinguishable
	// from one that never existed.
	current = current.Add(pending.DefaultTTL + time.Minute)

	_, err = mgr.Resolve(context.Background(), pending.FlowEmailVerification, token)
	require.ErrorIs(t, err, pending.ErrTokenNotFound)
}

func TestManagerReissueInvalidatesPriorToken(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	account := createAccount(t, db)

	mgr, err := pending.NewManager(db)
	require.NoError(t, err)

	first, err := mgr.Issue(context.Background(), account.ID, pending.FlowUsernameChange, "newname1")
	require.NoError(t, err)

	second, err := mgr.Issue(context.Background(), account.ID, pending.FlowUsernameChange, "newname2")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = mgr.Resolve(context.Background(), pending.FlowUsernameChange, first)
	require.ErrorIs(t, err, pending.ErrTokenNotFound)

	resolved, err := mgr.Resolve(context.Background(), pending.FlowUsernameChange, second)
	require.NoError(t, err)
	require.NotNil(t, resolved.PendingUsername)
	require.Equal(t, "newname2", *resolved.PendingUsername)
}

func TestManagerFlowsAreIndependent(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	account := createAccount(t, db)

	mgr, err := pending.NewManager(db)
	require.NoError(t, err)

	verifyToken, err := mgr.Issue(context.Background(), account.ID, pending.FlowEmailVerification, "")
	require.NoError(t, err)
	deleteToken, err := mgr.Issue(context.Background(), account.ID, pending.FlowAccountDeletion, "")
	require.NoError(t, err)

	// A token only resolves under its own flow.
	_, err = mgr.Resolve(context.Background(), pending.FlowAccountDeletion, verifyToken)
	require.ErrorIs(t, err, pending.ErrTokenNotFound)

	_, err = mgr.Resolve(context.Background(), pending.FlowEmailVerification, verifyToken)
	require.NoError(t, err)
	_, err = mgr.Resolve(context.Background(), pending.FlowAccountDeletion, deleteToken)
	require.NoError(t, err)
}

func TestManagerConsumeAppliesUpdatesAndClearsTriplet(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	account := createAccount(t, db)

	mgr, err := pending.NewManager(db)
	require.NoError(t, err)

	token, err := mgr.Issue(context.Background(), account.ID, pending.FlowEmailVerification, "")
	require.NoError(t, err)

	require.NoError(t, mgr.Consume(context.Background(), account.ID, pending.FlowEmailVerification, token, map[string]any{
		"is_verified": true,
	}))

	var updated models.Account
	require.NoError(t, db.Take(&updated, "id = ?", account.ID).Error)
	require.True(t, updated.IsVerified)
	require.Nil(t, updated.EmailVerificationToken)
	require.Nil(t, updated.EmailVerificationExpires)
}

func TestManagerDoubleConsumeFails(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	account := createAccount(t, db)

	mgr, err := pending.NewManager(db)
	require.NoError(t, err)

	token, err := mgr.Issue(context.Background(), account.ID, pending.FlowEmailVerification, "")
	require.NoError(t, err)

	require.NoError(t, mgr.Consume(context.Background(), account.ID, pending.FlowEmailVerification, token, map[string]any{
		"is_verified": true,
	}))

	// The second confirmation matches zero rows: the token guard in the
	// conditional update closes the race.
	err = mgr.Consume(context.Background(), account.ID, pending.FlowEmailVerification, token, map[string]any{
		"is_verified": true,
	})
	require.ErrorIs(t, err, pending.ErrTokenNotFound)
}

func TestManagerConsumeDeleteRemovesAccount(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	account := createAccount(t, db)

	mgr, err := pending.NewManager(db)
	require.NoError(t, err)

	token, err := mgr.Issue(context.Background(), account.ID, pending.FlowAccountDeletion, "")
	require.NoError(t, err)

	require.NoError(t, mgr.ConsumeDelete(context.Background(), account.ID, pending.FlowAccountDeletion, token))

	err = db.Take(&models.Account{}, "id = ?", account.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = mgr.ConsumeDelete(context.Background(), account.ID, pending.FlowAccountDeletion, token)
	require.ErrorIs(t, err, pending.ErrTokenNotFound)
}

func TestManagerClearExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	account := createAccount(t, db)

	current := time.Now()
	mgr, err := pending.NewManager(db, pending.WithClock(func() time.Time { return current }))
	require.NoError(t, err)

	_, err = mgr.Issue(context.Background(), account.ID, pending.FlowEmailVerification, "")
	require.NoError(t, err)
	_, err = mgr.Issue(context.Background(), account.ID, pending.FlowPasswordChange, "pendinghash")
	require.NoError(t, err)

	// Nothing has expired yet.
	cleared, err := mgr.ClearExpired(context.Background())
	require.NoError(t, err)
	require.Zero(t, cleared)

	current = current.Add(pending.DefaultTTL + time.Minute)

	cleared, err = mgr.ClearExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), cleared)

	var updated models.Account
	require.NoError(t, db.Take(&updated, "id = ?", account.ID).Error)
	require.Nil(t, updated.EmailVerificationToken)
	require.Nil(t, updated.PasswordChangeToken)
	require.Nil(t, updated.PendingPasswordHash)
}

func TestManagerCustomTTL(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	account := createAccount(t, db)

	current := time.Now()
	mgr, err := pending.NewManager(db,
		pending.WithTTL(10*time.Minute),
		pending.WithClock(func() time.Time { return current }),
	)
	require.NoError(t, err)
	require.Equal(t, 10*time.Minute, mgr.TTL())

	token, err := mgr.Issue(context.Background(), account.ID, pending.FlowEmailVerification, "")
	require.NoError(t, err)

	current = current.Add(11 * time.Minute)
	_, err = mgr.Resolve(context.Background(), pending.FlowEmailVerification, token)
	require.ErrorIs(t, err, pending.ErrTokenNotFound)
}

func TestNewManagerRequiresDB(t *testing.T) {
	_, err := pending.NewManager(nil)
	require.Error(t, err)
}
