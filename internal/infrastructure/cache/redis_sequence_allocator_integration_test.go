//go:build integration

package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type fixedSeed map[string]int64

func (s fixedSeed) Current(_ context.Context, scope string) (int64, error) {
	return s[scope], nil
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return redis.NewClient(&redis.Options{Addr: endpoint})
}

func TestRedisSequenceAllocator_SeedsThenIncrements(t *testing.T) {
	client := newRedisClient(t)
	alloc := NewRedisSequenceAllocator(client, WithSeed(fixedSeed{"INV-202501": 41}))
	defer alloc.Close()
	ctx := context.Background()

	n, err := alloc.Next(ctx, "INV-202501")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = alloc.Next(ctx, "RCP-202501")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	current, err := alloc.Current(ctx, "INV-202501")
	require.NoError(t, err)
	assert.Equal(t, int64(42), current)
}

func TestRedisSequenceAllocator_ConcurrentNext(t *testing.T) {
	client := newRedisClient(t)
	alloc := NewRedisSequenceAllocator(client, WithKeyPrefix("test:seq:"))
	ctx := context.Background()

	const workers = 50
	seen := sync.Map{}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := alloc.Next(ctx, "INV-202502")
			assert.NoError(t, err)
			_, dup := seen.LoadOrStore(n, true)
			assert.False(t, dup, "number %d handed out twice", n)
		}()
	}
	wg.Wait()

	current, err := alloc.Current(ctx, "INV-202502")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), current)
}
