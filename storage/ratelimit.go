package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateStore counts requests per identifier in fixed windows shared by
// every API instance. It satisfies echo's middleware.RateLimiterStore.
type RedisRateStore struct {
	client  *redis.Client
	limit   int64
	window  time.Duration
	timeout time.Duration
	now     func() time.Time
}

// NewRedisRateStore allows limit requests per window for each identifier.
func NewRedisRateStore(client *redis.Client, limit int, window time.Duration) *RedisRateStore {
	return &RedisRateStore{
		client:  client,
		limit:   int64(limit),
		window:  window,
		timeout: time.Second,
		now:     time.Now,
	}
}

func (r *RedisRateStore) key(identifier string) string {
	slot := r.now().UnixNano() / int64(r.window)
	return fmt.Sprintf("gtd:ratelimit:%s:%d", identifier, slot)
}

// Allow increments the counter for the current window and reports whether it
// is still within the limit.
func (r *RedisRateStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		k := r.key(identifier)
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, r.window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= r.limit, nil
}
