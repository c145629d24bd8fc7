package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisThrottle allows one action per key per window. The first caller sets
// the key with a TTL; callers that find it present are refused until it
// expires.
type RedisThrottle struct {
	client *redis.Client
	prefix string
	window time.Duration
}

func NewRedisThrottle(client *redis.Client, prefix string, window time.Duration) *RedisThrottle {
	return &RedisThrottle{client: client, prefix: prefix, window: window}
}

func (t *RedisThrottle) Allow(ctx context.Context, key string) (bool, error) {
	if t.window <= 0 {
		return true, nil
	}

	ok, err := t.client.SetNX(ctx, t.prefix+key, 1, t.window).Result()
	if err != nil {
		return false, fmt.Errorf("throttle check failed: %w", err)
	}
	return ok, nil
}

// NoopThrottle allows everything. It is used when redis is not configured.
type NoopThrottle struct{}

func (NoopThrottle) Allow(context.Context, string) (bool, error) {
	return true, nil
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
