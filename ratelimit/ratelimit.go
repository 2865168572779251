// Package ratelimit implements per-source sliding-window admission
// control on Redis. The limiter fails open: a backend outage must never
// block ingestion.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// Window is the sliding admission window
	Window = 60 * time.Second
	// keyTTL keeps idle keys from lingering; refreshed on every check
	keyTTL = 120 * time.Second

	keyPrefix = "rl:"
)

type Limiter struct {
	client *redis.Client
	logger zerolog.Logger
}

// New creates a limiter on the given Redis client
func New(client *redis.Client, logger zerolog.Logger) *Limiter {
	return &Limiter{client: client, logger: logger}
}

/* Allow checks and records one admission for the key.
 * One transactional pipeline per check keeps the four sub-operations
 * atomic relative to concurrent checks on the same key:
 * drop entries older than the window, count the remainder, insert the
 * current instant, refresh the key TTL. The request is admitted iff the
 * pre-insert count is under the limit.
 */
func (l *Limiter) Allow(ctx context.Context, key string, perMinute int) bool {
	now := time.Now()
	windowStart := now.Add(-Window)
	redisKey := keyPrefix + key

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixMilli()))
	count := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d:%s", now.UnixMilli(), uuid.NewString()),
	})
	pipe.Expire(ctx, redisKey, keyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn().Err(err).Str("key", key).
			Msg("rate limit check failed, allowing request")
		return true
	}

	return count.Val() < int64(perMinute)
}
