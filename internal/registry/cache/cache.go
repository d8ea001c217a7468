// Package cache provides a Redis-backed read-through cache for record
// visibility lookups. Visibility checks are the registry's hottest read path
// (every external consumer gates on them), and the flag changes rarely.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gboigwe/StratoLedger/internal/registry/models"
)

const visibilityKeyPrefix = "registry:visibility:"

// DefaultTTL bounds staleness if an invalidation is ever lost.
const DefaultTTL = 5 * time.Minute

// VisibilityCache caches is_public flags by record id. Failures degrade to
// cache misses; the store remains the source of truth.
type VisibilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *VisibilityCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &VisibilityCache{client: client, ttl: ttl, logger: logger}
}

func key(id models.RecordID) string {
	return fmt.Sprintf("%s%d", visibilityKeyPrefix, id)
}

// Get returns the cached visibility and whether the lookup hit.
func (c *VisibilityCache) Get(ctx context.Context, id models.RecordID) (bool, bool) {
	val, err := c.client.Get(ctx, key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "visibility cache read failed",
			"record_id", id,
			"error", err.Error(),
		)
		return false, false
	}
	return val == "1", true
}

// Set stores the visibility flag with the configured TTL.
func (c *VisibilityCache) Set(ctx context.Context, id models.RecordID, isPublic bool) {
	val := "0"
	if isPublic {
		val = "1"
	}
	if err := c.client.Set(ctx, key(id), val, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "visibility cache write failed",
			"record_id", id,
			"error", err.Error(),
		)
	}
}

// Invalidate drops the cached flag after a metadata update.
func (c *VisibilityCache) Invalidate(ctx context.Context, id models.RecordID) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.WarnContext(ctx, "visibility cache invalidation failed",
			"record_id", id,
			"error", err.Error(),
		)
	}
}
