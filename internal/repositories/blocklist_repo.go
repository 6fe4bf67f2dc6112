package repositories

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const blockedSetKey = "doorbell:blocked_ips"

// BlockSetRepository is the durable mirror of the blocked-IP set.
type BlockSetRepository interface {
	Add(ctx context.Context, ip string) error
	Remove(ctx context.Context, ip string) error
	Contains(ctx context.Context, ip string) (bool, error)
	Members(ctx context.Context) ([]string, error)
	// Replace overwrites the whole set with the given members.
	Replace(ctx context.Context, ips []string) error
}

// RedisBlockSetRepository stores blocked IPs in a redis set.
type RedisBlockSetRepository struct {
	client *redis.Client
}

func NewRedisBlockSetRepository(client *redis.Client) *RedisBlockSetRepository {
	return &RedisBlockSetRepository{client: client}
}

func (r *RedisBlockSetRepository) Add(ctx context.Context, ip string) error {
	if err := r.client.SAdd(ctx, blockedSetKey, ip).Err(); err != nil {
		return fmt.Errorf("failed to add %s to blocked set: %w", ip, err)
	}
	return nil
}

func (r *RedisBlockSetRepository) Remove(ctx context.Context, ip string) error {
	if err := r.client.SRem(ctx, blockedSetKey, ip).Err(); err != nil {
		return fmt.Errorf("failed to remove %s from blocked set: %w", ip, err)
	}
	return nil
}

func (r *RedisBlockSetRepository) Contains(ctx context.Context, ip string) (bool, error) {
	member, err := r.client.SIsMember(ctx, blockedSetKey, ip).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blocked set membership: %w", err)
	}
	return member, nil
}

func (r *RedisBlockSetRepository) Members(ctx context.Context) ([]string, error) {
	members, err := r.client.SMembers(ctx, blockedSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read blocked set: %w", err)
	}
	return members, nil
}

func (r *RedisBlockSetRepository) Replace(ctx context.Context, ips []string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, blockedSetKey)
	if len(ips) > 0 {
		args := make([]interface{}, len(ips))
		for i, ip := range ips {
			args[i] = ip
		}
		pipe.SAdd(ctx, blockedSetKey, args...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace blocked set: %w", err)
	}
	return nil
}
