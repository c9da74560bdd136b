package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/propledger/backend/internal/domain/finance"
	"github.com/redis/go-redis/v9"
)

// DefaultSequenceKeyPrefix namespaces the counters, e.g. ledger:seq:INV-202501
const DefaultSequenceKeyPrefix = "ledger:seq:"

// SequenceSeed reports the last number already issued for a scope, so a fresh
// Redis instance continues where the database counters left off.
type SequenceSeed interface {
	Current(ctx context.Context, scope string) (int64, error)
}

// RedisSequenceAllocator hands out document numbers with INCR.
// Numbers are not returned when the owning transaction rolls back, so the
// sequence can have gaps; it never repeats.
type RedisSequenceAllocator struct {
	client    redis.UniversalClient
	keyPrefix string
	seed      SequenceSeed
	seeded    sync.Map
}

// RedisSequenceOption configures a RedisSequenceAllocator
type RedisSequenceOption func(*RedisSequenceAllocator)

// WithKeyPrefix overrides DefaultSequenceKeyPrefix
func WithKeyPrefix(prefix string) RedisSequenceOption {
	return func(a *RedisSequenceAllocator) {
		if prefix != "" {
			a.keyPrefix = prefix
		}
	}
}

// WithSeed makes the first allocation per scope start after seed's current value
func WithSeed(seed SequenceSeed) RedisSequenceOption {
	return func(a *RedisSequenceAllocator) {
		a.seed = seed
	}
}

// NewRedisSequenceAllocator creates an allocator on an existing client
func NewRedisSequenceAllocator(client redis.UniversalClient, opts ...RedisSequenceOption) *RedisSequenceAllocator {
	a := &RedisSequenceAllocator{client: client, keyPrefix: DefaultSequenceKeyPrefix}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Next increments the counter for scope and returns the new value
func (a *RedisSequenceAllocator) Next(ctx context.Context, scope string) (int64, error) {
	key := a.keyPrefix + scope
	if err := a.ensureSeeded(ctx, scope, key); err != nil {
		return 0, err
	}

	n, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return n, nil
}

// Current returns the last value handed out for scope, or 0
func (a *RedisSequenceAllocator) Current(ctx context.Context, scope string) (int64, error) {
	n, err := a.client.Get(ctx, a.keyPrefix+scope).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// ensureSeeded sets the counter to the seed value only if the key does not exist yet
func (a *RedisSequenceAllocator) ensureSeeded(ctx context.Context, scope, key string) error {
	if a.seed == nil {
		return nil
	}
	if _, done := a.seeded.Load(scope); done {
		return nil
	}

	current, err := a.seed.Current(ctx, scope)
	if err != nil {
		return fmt.Errorf("seed %s: %w", scope, err)
	}
	if err := a.client.SetNX(ctx, key, current, 0).Err(); err != nil {
		return fmt.Errorf("redis setnx %s: %w", key, err)
	}
	a.seeded.Store(scope, struct{}{})
	return nil
}

// Close closes the Redis client
func (a *RedisSequenceAllocator) Close() error {
	return a.client.Close()
}

var _ finance.SequenceAllocator = (*RedisSequenceAllocator)(nil)
