package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateKeyPrefix = "doorbell:rl:"

// CounterRepository is an atomically incrementing counter with a window-bound
// expiry, used by the rate limiter's durable path.
type CounterRepository interface {
	// Incr increments the counter for (purpose, key) and returns the
	// post-increment count plus the time left until the window expires.
	Incr(ctx context.Context, purpose, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisCounterRepository implements the counter on redis INCR. The expiry is
// set exactly once, on the increment that creates the key, so later hits
// never push the window forward.
type RedisCounterRepository struct {
	client *redis.Client
}

func NewRedisCounterRepository(client *redis.Client) *RedisCounterRepository {
	return &RedisCounterRepository{client: client}
}

func (r *RedisCounterRepository) Incr(ctx context.Context, purpose, key string, window time.Duration) (int64, time.Duration, error) {
	counterKey := rateKeyPrefix + purpose + ":" + key

	count, err := r.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to increment rate counter: %w", err)
	}

	if count == 1 {
		if err := r.client.PExpire(ctx, counterKey, window).Err(); err != nil {
			return count, window, fmt.Errorf("failed to set rate counter expiry: %w", err)
		}
		return count, window, nil
	}

	ttl, err := r.client.PTTL(ctx, counterKey).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return count, ttl, nil
}
