package redis

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"trackvote/internal/domain"
)

var (
	testRedisURL string
	redContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	flag.Parse()

	// Skip container setup if running in short mode
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	redContainer, err = redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := redContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	defer func() {
		if err := redContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
		}
	}()
	os.Exit(m.Run())
}

func setupTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, testRedisURL)
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}

	if err := client.FlushAll(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "not-a-redis-url")
	require.Error(t, err)
}

func TestTopCache_RoundTrip(t *testing.T) {
	client := setupTestClient(t)
	cache := NewTopCache(client, time.Minute)
	ctx := context.Background()

	_, ok := cache.GetTop(ctx, 10)
	assert.False(t, ok)

	tracks := []domain.Track{
		{ID: uuid.New(), Title: "First", Rating: 4.5, VoteCount: 2},
		{ID: uuid.New(), Title: "Second", Rating: 3.0, VoteCount: 1},
	}
	cache.SetTop(ctx, 10, tracks)

	got, ok := cache.GetTop(ctx, 10)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, tracks[0].ID, got[0].ID)
	assert.Equal(t, "First", got[0].Title)
	assert.InDelta(t, 4.5, got[0].Rating, 1e-9)
}

func TestTopCache_KeysAreScopedByLimit(t *testing.T) {
	client := setupTestClient(t)
	cache := NewTopCache(client, time.Minute)
	ctx := context.Background()

	cache.SetTop(ctx, 5, []domain.Track{{Title: "five"}})
	cache.SetTop(ctx, 10, []domain.Track{{Title: "ten"}})

	five, ok := cache.GetTop(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, "five", five[0].Title)

	ten, ok := cache.GetTop(ctx, 10)
	require.True(t, ok)
	assert.Equal(t, "ten", ten[0].Title)
}

func TestTopCache_InvalidateDropsAllLimits(t *testing.T) {
	client := setupTestClient(t)
	cache := NewTopCache(client, time.Minute)
	ctx := context.Background()

	cache.SetTop(ctx, 5, []domain.Track{{Title: "five"}})
	cache.SetTop(ctx, 10, []domain.Track{{Title: "ten"}})

	cache.Invalidate(ctx)

	_, ok := cache.GetTop(ctx, 5)
	assert.False(t, ok)
	_, ok = cache.GetTop(ctx, 10)
	assert.False(t, ok)
}

func TestTopCache_EntriesExpire(t *testing.T) {
	client := setupTestClient(t)
	cache := NewTopCache(client, 50*time.Millisecond)
	ctx := context.Background()

	cache.SetTop(ctx, 3, []domain.Track{{Title: "fleeting"}})

	_, ok := cache.GetTop(ctx, 3)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := cache.GetTop(ctx, 3)
		return !ok
	}, time.Second, 20*time.Millisecond)
}

func TestTopCache_CorruptPayloadIsAMiss(t *testing.T) {
	client := setupTestClient(t)
	cache := NewTopCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, topKey(7), "{not json", time.Minute).Err())

	_, ok := cache.GetTop(ctx, 7)
	assert.False(t, ok)
}
