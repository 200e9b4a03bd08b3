package pending

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/veriauth/veriauth/internal/models"
	"github.com/veriauth/veriauth/pkg/crypto"
	"github.com/veriauth/veriauth/pkg/metrics"
)

// Flow identifies one of the account confirmation flows. Each flow owns a
// token/expiry column pair on the account row, plus an optional payload column
// holding the mutation to apply on confirmation.
type Flow string

const (
	FlowEmailVerification Flow = "email_verification"
	FlowPasswordChange    Flow = "password_change"
	FlowUsernameChange    Flow = "username_change"
	FlowAccountDeletion   Flow = "account_deletion"
)

var (
	// ErrTokenNotFound covers absent, mismatched, already-consumed, and expired
	// tokens alike; callers must not be able to tell these apart.
	ErrTokenNotFound = errors.New("pending: invalid or expired token")
	// ErrAccountNotFound indicates the account to issue against does not exist.
	ErrAccountNotFound = errors.New("pending: account not found")
	// ErrUnknownFlow indicates an unregistered flow kind.
	ErrUnknownFlow = errors.New("pending: unknown flow")
)

// DefaultTTL is the validity window for all confirmation links.
const DefaultTTL = time.Hour

const defaultTokenBytes = 48

type flowColumns struct {
	token   string
	expires string
	payload string // empty when the flow carries no payload
}

var columnsByFlow = map[Flow]flowColumns{
	FlowEmailVerification: {token: "email_verification_token", expires: "email_verification_expires"},
	FlowPasswordChange:    {token: "password_change_token", expires: "password_change_expires", payload: "pending_password_hash"},
	FlowUsernameChange:    {token: "username_change_token", expires: "username_change_expires", payload: "pending_username"},
	FlowAccountDeletion:   {token: "delete_account_token", expires: "delete_account_expires"},
}

// Option customises the Manager.
type Option func(*Manager)

// WithTTL overrides the token lifetime.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithTokenLength adjusts the number of random bytes in generated tokens.
func WithTokenLength(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.tokenLength = n
		}
	}
}

// WithClock injects a custom time source.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// Manager issues, resolves, and consumes single-use pending-action tokens.
// The account row is the only coordination point: issuing overwrites any prior
// token of the same flow, and consumption is a conditional write guarded on
// the token still matching.
type Manager struct {
	db          *gorm.DB
	ttl         time.Duration
	tokenLength int
	now         func() time.Time
}

// NewManager constructs a Manager with the default one-hour TTL.
func NewManager(db *gorm.DB, opts ...Option) (*Manager, error) {
	if db == nil {
		return nil, errors.New("pending: db is required")
	}

	m := &Manager{
		db:          db,
		ttl:         DefaultTTL,
		tokenLength: defaultTokenBytes,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// TTL reports the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue generates an unguessable token for the flow and writes the
// token/expiry/payload triplet onto the account row in a single update,
// implicitly invalidating any previously issued token of the same flow.
func (m *Manager) Issue(ctx context.Context, accountID string, flow Flow, payload string) (string, error) {
	cols, ok := columnsByFlow[flow]
	if !ok {
		return "", ErrUnknownFlow
	}

	token, err := crypto.GenerateToken(m.tokenLength)
	if err != nil {
		return "", fmt.Errorf("pending: generate token: %w", err)
	}

	updates := map[string]any{
		cols.token:   token,
		cols.expires: m.now().Add(m.ttl),
	}
	if cols.payload != "" {
		updates[cols.payload] = payload
	}

	result := m.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(updates)
	if result.Error != nil {
		return "", fmt.Errorf("pending: issue %s: %w", flow, result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrAccountNotFound
	}

	metrics.PendingActionsIssued.WithLabelValues(string(flow)).Inc()
	return token, nil
}

// Resolve returns the account holding a matching, unexpired token for the
// flow. It does not clear the token; a failure between resolve and consume
// leaves the pending action intact for retry.
func (m *Manager) Resolve(ctx context.Context, flow Flow, token string) (*models.Account, error) {
	cols, ok := columnsByFlow[flow]
	if !ok {
		return nil, ErrUnknownFlow
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenNotFound
	}

	var account models.Account
	err := m.db.WithContext(ctx).
		Where(fmt.Sprintf("%s = ? AND %s > ?", cols.token, cols.expires), token, m.now()).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.PendingActionsConsumed.WithLabelValues(string(flow), "miss").Inc()
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pending: resolve %s: %w", flow, err)
	}

	return &account, nil
}

// Consume applies the confirmed mutation and clears the pending triplet in one
// conditional update. The token guard in the WHERE clause makes a concurrent
// double confirmation lose: the second writer matches zero rows.
func (m *Manager) Consume(ctx context.Context, accountID string, flow Flow, token string, updates map[string]any) error {
	cols, ok := columnsByFlow[flow]
	if !ok {
		return ErrUnknownFlow
	}

	merged := make(map[string]any, len(updates)+3)
	for k, v := range updates {
		merged[k] = v
	}
	merged[cols.token] = nil
	merged[cols.expires] = nil
	if cols.payload != "" {
		merged[cols.payload] = nil
	}

	result := m.db.WithContext(ctx).
		Model(&models.Account{}).
		Where(fmt.Sprintf("id = ? AND %s = ?", cols.token), accountID, token).
		Updates(merged)
	if result.Error != nil {
		return fmt.Errorf("pending: consume %s: %w", flow, result.Error)
	}
	if result.RowsAffected == 0 {
		metrics.PendingActionsConsumed.WithLabelValues(string(flow), "miss").Inc()
		return ErrTokenNotFound
	}

	metrics.PendingActionsConsumed.WithLabelValues(string(flow), "success").Inc()
	return nil
}

// ConsumeDelete permanently removes the account, guarded on the token still
// matching. Used by the account-deletion flow; there is no soft delete.
func (m *Manager) ConsumeDelete(ctx context.Context, accountID string, flow Flow, token string) error {
	cols, ok := columnsByFlow[flow]
	if !ok {
		return ErrUnknownFlow
	}

	result := m.db.WithContext(ctx).
		Where(fmt.Sprintf("id = ? AND %s = ?", cols.token), accountID, token).
		Delete(&models.Account{})
	if result.Error != nil {
		return fmt.Errorf("pending: consume delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		metrics.PendingActionsConsumed.WithLabelValues(string(flow), "miss").Inc()
		return ErrTokenNotFound
	}

	metrics.PendingActionsConsumed.WithLabelValues(string(flow), "success").Inc()
	return nil
}

// ClearExpired nulls out every pending triplet whose expiry has passed and
// returns the number of rows touched. Expired tokens already fail Resolve;
// this keeps stale columns from lingering in the table.
func (m *Manager) ClearExpired(ctx context.Context) (int64, error) {
	now := m.now()
	var total int64

	for flow, cols := range columnsByFlow {
		updates := map[string]any{
			cols.token:   nil,
			cols.expires: nil,
		}
		if cols.payload != "" {
			updates[cols.payload] = nil
		}

		result := m.db.WithContext(ctx).
			Model(&models.Account{}).
			Where(fmt.Sprintf("%s IS NOT NULL AND %s <= ?", cols.token, cols.expires), now).
			Updates(updates)
		if result.Error != nil {
			return total, fmt.Errorf("pending: clear expired %s: %w", flow, result.Error)
		}
		total += result.RowsAffected
	}

	return total, nil
}
