// Package ratelimit backs the quota counters with redis INCR + expiry so
// concurrent requests from the same user count atomically across processes.
package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type RedisCounter struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb, prefix: "rl:"}
}

// Incr bumps the key and returns the count inside the current window. The
// expiry is armed only on first increment, giving a fixed window per key.
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	full := c.prefix + key

	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, full)
	pipe.ExpireNX(ctx, full, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
