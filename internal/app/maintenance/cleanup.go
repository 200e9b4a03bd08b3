package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/veriauth/veriauth/internal/pending"
	"github.com/veriauth/veriauth/pkg/logger"
)

const defaultSchedule = "@hourly"

// Cleaner periodically nulls out expired pending-action triplets. Expired
// tokens already fail resolution; this only keeps stale columns from
// accumulating in the accounts table.
type Cleaner struct {
	tokens   *pending.Manager
	cron     *cron.Cron
	schedule string
	log      *zap.Logger
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for pending-action cleanup.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with an hourly default schedule.
func NewCleaner(tokens *pending.Manager, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		tokens:   tokens,
		schedule: defaultSchedule,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the cleanup job and launches the scheduler.
func (c *Cleaner) Start() error {
	if c.tokens == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if _, err := c.tokens.ClearExpired(context.Background()); err != nil {
			c.log.Warn("pending-action cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any running job to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes the cleanup routine immediately. Used in tests and during
// graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.tokens != nil {
		if _, err := c.tokens.ClearExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
