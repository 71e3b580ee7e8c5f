package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"soundscape/logger"
)

// Keys for the cached analytics rollups.
const (
	KeyEmotionPatterns = "analytics:emotions"
	KeyTagPatterns     = "analytics:tags"
	KeyLocationStats   = "analytics:locations"
	KeyTimeline        = "analytics:timeline"
)

// AnalyticsCache stores serialized analytics results in Redis with a short
// TTL. A nil *AnalyticsCache is valid and behaves as a permanent miss, so
// callers never need to branch on cache availability.
type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalyticsCache creates a cache over the given client.
func NewAnalyticsCache(client *redis.Client, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{client: client, ttl: ttl}
}

// Get unmarshals the cached value for key into dest and reports a hit.
func (c *AnalyticsCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("analytics cache read failed", logger.String("key", key), logger.ErrorField(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Warn("analytics cache entry corrupt", logger.String("key", key), logger.ErrorField(err))
		return false
	}
	return true
}

// Set stores value under key with the configured TTL. Failures are logged
// and otherwise ignored; the cache is an optimization, not a dependency.
func (c *AnalyticsCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("analytics cache marshal failed", logger.String("key", key), logger.ErrorField(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Warn("analytics cache write failed", logger.String("key", key), logger.ErrorField(err))
	}
}

// Invalidate drops the cached rollups. Mutating handlers call it so fresh
// writes show up before the TTL expires.
func (c *AnalyticsCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	keys := []string{KeyEmotionPatterns, KeyTagPatterns, KeyLocationStats, KeyTimeline}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("analytics cache invalidate failed", logger.ErrorField(err))
	}
}
