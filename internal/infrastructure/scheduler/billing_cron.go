package scheduler

import (
	"context"
	"sync"
	"time"

	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PeriodEnsurer creates the upcoming monthly billing periods
type PeriodEnsurer interface {
	EnsureUpcoming(ctx context.Context, actor identity.Actor, months int) (*financeapp.EnsureUpcomingResult, error)
}

// OverdueMarker flips past-due invoices to overdue
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, actor identity.Actor) (int, error)
}

// BillingCronConfig holds configuration for the daily billing job
type BillingCronConfig struct {
	// RunHour is the UTC hour (0-23) the job fires at
	RunHour int

	// UpcomingMonths is how many monthly periods, starting with the current one, must exist
	UpcomingMonths int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// JobTimeout bounds a single run
	JobTimeout time.Duration
}

// DefaultBillingCronConfig returns default billing job configuration
func DefaultBillingCronConfig() BillingCronConfig {
	return BillingCronConfig{
		RunHour:        1,
		UpcomingMonths: 3,
		CheckInterval:  time.Minute,
		JobTimeout:     5 * time.Minute,
	}
}

// BillingCronConfigFrom maps the scheduler settings onto BillingCronConfig,
// keeping defaults for zero values
func BillingCronConfigFrom(cfg config.SchedulerConfig) BillingCronConfig {
	out := DefaultBillingCronConfig()
	out.RunHour = cfg.RunHour
	if cfg.UpcomingMonths > 0 {
		out.UpcomingMonths = cfg.UpcomingMonths
	}
	if cfg.JobTimeout > 0 {
		out.JobTimeout = cfg.JobTimeout
	}
	return out
}

// Validate checks the configuration
func (c BillingCronConfig) Validate() error {
	if c.RunHour < 0 || c.RunHour > 23 {
		return ErrInvalidConfig
	}
	if c.UpcomingMonths < 1 || c.UpcomingMonths > 24 {
		return ErrInvalidConfig
	}
	if c.CheckInterval <= 0 || c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// RunResult summarises one billing job run
type RunResult struct {
	PeriodsCreated  int
	InvoicesOverdue int
}

// BillingCron runs the daily billing housekeeping
type BillingCron struct {
	config  BillingCronConfig
	periods PeriodEnsurer
	overdue OverdueMarker
	logger  *zap.Logger
	now     func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewBillingCron creates a new billing job
func NewBillingCron(cfg BillingCronConfig, periods PeriodEnsurer, overdue OverdueMarker, logger *zap.Logger) (*BillingCron, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingCron{
		config:  cfg,
		periods: periods,
		overdue: overdue,
		logger:  logger.Named("billing_cron"),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start starts the ticker loop
func (c *BillingCron) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Billing cron started",
		zap.Int("run_hour", c.config.RunHour),
		zap.Int("upcoming_months", c.config.UpcomingMonths),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the loop and waits for an in-flight run, bounded by ctx
func (c *BillingCron) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Billing cron stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (c *BillingCron) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isRunning
}

func (c *BillingCron) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndRun(ctx)
		}
	}
}

// checkAndRun fires RunOnce at most once per UTC day, at or after RunHour
func (c *BillingCron) checkAndRun(ctx context.Context) bool {
	now := c.now()
	today := now.Format("2006-01-02")

	c.mu.Lock()
	if c.lastRunDate == today || now.Hour() < c.config.RunHour {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = today
	c.mu.Unlock()

	if _, err := c.RunOnce(ctx); err != nil {
		c.logger.Error("Billing cron run failed", zap.Error(err))
	}
	return true
}

// RunOnce ensures the upcoming periods exist and marks past-due invoices overdue.
// A failure in the first step does not skip the second.
func (c *BillingCron) RunOnce(ctx context.Context) (*RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.JobTimeout)
	defer cancel()
	ctx, span := telemetry.StartSpan(ctx, "billing_cron.run",
		telemetry.WithAttribute("upcoming_months", c.config.UpcomingMonths))
	defer span.End()

	actor := identity.SystemActor()
	result := &RunResult{}
	var firstErr error

	ensured, err := c.periods.EnsureUpcoming(ctx, actor, c.config.UpcomingMonths)
	if err != nil {
		c.logger.Error("Failed to ensure upcoming billing periods", zap.Error(err))
		firstErr = err
	} else {
		result.PeriodsCreated = len(ensured.Created)
	}

	marked, err := c.overdue.MarkOverdue(ctx, actor)
	if err != nil {
		c.logger.Error("Failed to mark overdue invoices", zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	} else {
		result.InvoicesOverdue = marked
	}

	telemetry.SetAttributes(span,
		"periods_created", result.PeriodsCreated,
		"invoices_overdue", result.InvoicesOverdue,
	)
	if firstErr != nil {
		telemetry.RecordError(span, firstErr)
	} else {
		telemetry.SetOK(span)
	}

	c.logger.Info("Billing cron run finished",
		zap.Int("periods_created", result.PeriodsCreated),
		zap.Int("invoices_overdue", result.InvoicesOverdue),
	)
	return result, firstErr
}
