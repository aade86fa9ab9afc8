// Package cache keeps the public request feed in Redis. The feed is the
// hottest read in the system and tolerates short staleness, so it is
// cached with a small TTL and invalidated on every request mutation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bloodlink-api-server/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	feedKey = "bloodlink:requests:active"
	feedTTL = 30 * time.Second
)

// FeedCache is a read-through cache for the active request feed. A nil
// client disables caching entirely.
type FeedCache struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewFeedCache(rdb *redis.Client, log *zap.Logger) *FeedCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedCache{rdb: rdb, log: log}
}

// Get returns the cached feed, or nil on miss or any cache failure.
func (c *FeedCache) Get(ctx context.Context) []models.Request {
	if c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, feedKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("feed cache read failed", zap.Error(err))
		}
		return nil
	}

	var requests []models.Request
	if err := json.Unmarshal(raw, &requests); err != nil {
		c.log.Warn("feed cache entry corrupt, dropping", zap.Error(err))
		c.Invalidate(ctx)
		return nil
	}
	return requests
}

// Set stores the feed. Failures are logged and ignored; the database copy
// is authoritative.
func (c *FeedCache) Set(ctx context.Context, requests []models.Request) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(requests)
	if err != nil {
		c.log.Warn("feed cache marshal failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, feedKey, raw, feedTTL).Err(); err != nil {
		c.log.Warn("feed cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached feed after any request mutation.
func (c *FeedCache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, feedKey).Err(); err != nil {
		c.log.Warn("feed cache invalidation failed", zap.Error(err))
	}
}
