package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"trackvote/internal/domain"
)

const topKeyPrefix = "top_tracks:"

// TopCache caches top-track listings keyed by limit, with a short TTL.
// Failures degrade to cache misses; the catalog never depends on Redis being
// healthy.
type TopCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTopCache(rdb *redis.Client, ttl time.Duration) *TopCache {
	return &TopCache{rdb: rdb, ttl: ttl}
}

// GetTop returns the cached listing for limit, or (nil, false) on a miss.
func (c *TopCache) GetTop(ctx context.Context, limit int) ([]domain.Track, bool) {
	payload, err := c.rdb.Get(ctx, topKey(limit)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.DebugContext(ctx, "Top cache read failed, treating as miss", "error", err)
		return nil, false
	}

	var tracks []domain.Track
	if err := json.Unmarshal(payload, &tracks); err != nil {
		slog.WarnContext(ctx, "Top cache payload corrupt, treating as miss", "error", err)
		return nil, false
	}
	return tracks, true
}

// SetTop stores the listing for limit. Best effort.
func (c *TopCache) SetTop(ctx context.Context, limit int, tracks []domain.Track) {
	payload, err := json.Marshal(tracks)
	if err != nil {
		slog.WarnContext(ctx, "Top cache encode failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, topKey(limit), payload, c.ttl).Err(); err != nil {
		slog.DebugContext(ctx, "Top cache write failed", "error", err)
	}
}

// Invalidate drops every cached listing. Called after any catalog mutation.
func (c *TopCache) Invalidate(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, topKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.DebugContext(ctx, "Top cache scan failed during invalidation", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.DebugContext(ctx, "Top cache invalidation failed", "error", err)
	}
}

func topKey(limit int) string {
	return fmt.Sprintf("%s%d", topKeyPrefix, limit)
}
