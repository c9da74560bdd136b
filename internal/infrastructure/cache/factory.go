package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SequenceBackendFactory builds the document number allocator selected by ledger.sequence_backend
type SequenceBackendFactory struct {
	ledger        config.LedgerConfig
	redis         config.RedisConfig
	logger        *zap.Logger
	allowFallback bool
	pingTimeout   time.Duration
}

// SequenceBackendOption configures the factory
type SequenceBackendOption func(*SequenceBackendFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SequenceBackendOption {
	return func(f *SequenceBackendFactory) {
		f.logger = logger
	}
}

// WithGormFallback controls whether an unreachable Redis falls back to the counter table.
// Default is false: a configured Redis backend must be available.
func WithGormFallback(allow bool) SequenceBackendOption {
	return func(f *SequenceBackendFactory) {
		f.allowFallback = allow
	}
}

// NewSequenceBackendFactory creates a new factory
func NewSequenceBackendFactory(ledger config.LedgerConfig, redisCfg config.RedisConfig, opts ...SequenceBackendOption) *SequenceBackendFactory {
	f := &SequenceBackendFactory{
		ledger:      ledger,
		redis:       redisCfg,
		logger:      zap.NewNop(),
		pingTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RepositoryOptions returns the options to pass to the ledger transaction scope and a
// closer for any connection it opened. The gorm backend needs no options.
func (f *SequenceBackendFactory) RepositoryOptions(ctx context.Context, db *gorm.DB) ([]persistence.RepositoryOption, func() error, error) {
	noop := func() error { return nil }

	if f.ledger.SequenceBackend != "redis" {
		f.logger.Info("Using database sequence counters")
		return nil, noop, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     f.redis.Addr(),
		Password: f.redis.Password,
		DB:       f.redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, f.pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !f.allowFallback {
			return nil, noop, fmt.Errorf("redis sequence backend unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to database sequence counters",
			zap.String("addr", f.redis.Addr()),
			zap.Error(err),
		)
		return nil, noop, nil
	}

	alloc := NewRedisSequenceAllocator(client, WithSeed(persistence.NewGormSequenceAllocator(db)))
	f.logger.Info("Using Redis sequence counters", zap.String("addr", f.redis.Addr()))
	return []persistence.RepositoryOption{persistence.WithSequenceAllocator(alloc)}, alloc.Close, nil
}
