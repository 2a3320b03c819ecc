package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lumina/internal/metrics"
	"lumina/internal/schedule"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AvailabilityCache holds display-time availability responses in Redis with a
// short TTL. It only ever serves the slot listing shown to clients; the
// commit-time conflict check always reads the database directly.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// New creates a cache. A nil client disables caching entirely.
func New(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl, logger: logger}
}

func key(staffID uuid.UUID, date time.Time, durationMinutes int) string {
	return fmt.Sprintf("availability:%s:%s:%d", staffID, date.Format("2006-01-02"), durationMinutes)
}

// Get returns cached windows for the request, or false on a miss.
func (c *AvailabilityCache) Get(ctx context.Context, staffID uuid.UUID, date time.Time, durationMinutes int) ([]schedule.WindowInfo, bool) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil, false
	}

	val, err := c.client.Get(ctx, key(staffID, date, durationMinutes)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("availability cache read failed")
		}
		metrics.IncCacheMiss()
		return nil, false
	}

	var windows []schedule.WindowInfo
	if err := json.Unmarshal([]byte(val), &windows); err != nil {
		metrics.IncCacheMiss()
		return nil, false
	}

	metrics.IncCacheHit()
	return windows, true
}

// Set stores windows for the request. Failures are logged and ignored; the
// cache is advisory.
func (c *AvailabilityCache) Set(ctx context.Context, staffID uuid.UUID, date time.Time, durationMinutes int, windows []schedule.WindowInfo) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return
	}

	data, err := json.Marshal(windows)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(staffID, date, durationMinutes), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("availability cache write failed")
	}
}

// InvalidateDay drops every cached availability entry for one staff-day.
// Called after any appointment write touching that day.
func (c *AvailabilityCache) InvalidateDay(ctx context.Context, staffID uuid.UUID, date time.Time) {
	if c == nil || c.client == nil {
		return
	}

	pattern := fmt.Sprintf("availability:%s:%s:*", staffID, date.Format("2006-01-02"))
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Msg("availability cache scan failed")
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.Warn().Err(err).Msg("availability cache invalidation failed")
		}
	}
}
