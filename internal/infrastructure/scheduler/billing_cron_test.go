package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	financeapp "github.com/propledger/backend/internal/application/finance"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPeriods struct {
	calls  atomic.Int32
	months int
	err    error
}

func (s *stubPeriods) EnsureUpcoming(_ context.Context, actor identity.Actor, months int) (*financeapp.EnsureUpcomingResult, error) {
	s.calls.Add(1)
	s.months = months
	if s.err != nil {
		return nil, s.err
	}
	if !actor.CanManageBilling() {
		return nil, errors.New("system actor must manage billing")
	}
	return &financeapp.EnsureUpcomingResult{
		Created: make([]financeapp.BillingPeriodResponse, 2),
	}, nil
}

type stubOverdue struct {
	calls  atomic.Int32
	marked int
	err    error
}

func (s *stubOverdue) MarkOverdue(context.Context, identity.Actor) (int, error) {
	s.calls.Add(1)
	return s.marked, s.err
}

func newTestCron(t *testing.T, cfg BillingCronConfig, p *stubPeriods, o *stubOverdue) *BillingCron {
	t.Helper()
	c, err := NewBillingCron(cfg, p, o, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestBillingCronConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BillingCronConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*BillingCronConfig) {}},
		{name: "hour too large", mutate: func(c *BillingCronConfig) { c.RunHour = 24 }, wantErr: true},
		{name: "no months", mutate: func(c *BillingCronConfig) { c.UpcomingMonths = 0 }, wantErr: true},
		{name: "zero interval", mutate: func(c *BillingCronConfig) { c.CheckInterval = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultBillingCronConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBillingCronConfigFrom(t *testing.T) {
	cfg := BillingCronConfigFrom(config.SchedulerConfig{Enabled: true, RunHour: 4})
	assert.Equal(t, 4, cfg.RunHour)
	assert.Equal(t, 3, cfg.UpcomingMonths)
	assert.Equal(t, 5*time.Minute, cfg.JobTimeout)

	cfg = BillingCronConfigFrom(config.SchedulerConfig{RunHour: 0, UpcomingMonths: 6, JobTimeout: time.Minute})
	assert.Equal(t, 6, cfg.UpcomingMonths)
	assert.Equal(t, time.Minute, cfg.JobTimeout)
}

func TestBillingCron_RunOnce(t *testing.T) {
	periods := &stubPeriods{}
	overdue := &stubOverdue{marked: 5}
	c := newTestCron(t, DefaultBillingCronConfig(), periods, overdue)

	result, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.PeriodsCreated)
	assert.Equal(t, 5, result.InvoicesOverdue)
	assert.Equal(t, 3, periods.months)
}

func TestBillingCron_RunOnce_ContinuesAfterPeriodFailure(t *testing.T) {
	boom := errors.New("db down")
	periods := &stubPeriods{err: boom}
	overdue := &stubOverdue{marked: 1}
	c := newTestCron(t, DefaultBillingCronConfig(), periods, overdue)

	result, err := c.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), overdue.calls.Load())
	assert.Equal(t, 1, result.InvoicesOverdue)
	assert.Zero(t, result.PeriodsCreated)
}

func TestBillingCron_CheckAndRun_OncePerDay(t *testing.T) {
	periods := &stubPeriods{}
	overdue := &stubOverdue{}
	cfg := DefaultBillingCronConfig()
	cfg.RunHour = 2
	c := newTestCron(t, cfg, periods, overdue)

	now := time.Date(2025, time.March, 10, 1, 30, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	assert.False(t, c.checkAndRun(context.Background()), "before run hour")

	now = now.Add(time.Hour)
	assert.True(t, c.checkAndRun(context.Background()))
	assert.False(t, c.checkAndRun(context.Background()), "already ran today")

	now = now.Add(24 * time.Hour)
	assert.True(t, c.checkAndRun(context.Background()))
	assert.Equal(t, int32(2), periods.calls.Load())
}

func TestBillingCron_StartStop(t *testing.T) {
	periods := &stubPeriods{}
	overdue := &stubOverdue{}
	cfg := DefaultBillingCronConfig()
	cfg.RunHour = 0
	cfg.CheckInterval = 10 * time.Millisecond
	c := newTestCron(t, cfg, periods, overdue)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.IsRunning())

	assert.Eventually(t, func() bool { return periods.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
	assert.False(t, c.IsRunning())
	require.NoError(t, c.Stop(ctx))
}
