// Package ratelimit throttles repeated requests per key, used to slow down
// admin password guessing.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a sliding-window limiter backed by a Redis sorted set per key.
type RedisLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	rate      int
	window    time.Duration
	now       func() time.Time
}

// RedisConfig holds Redis rate limiter configuration.
type RedisConfig struct {
	Client    redis.Cmdable
	KeyPrefix string // defaults to "ratelimit:"
	Rate      int    // requests allowed per window
	Window    time.Duration
}

// NewRedisLimiter creates a new Redis-backed rate limiter.
func NewRedisLimiter(cfg RedisConfig) *RedisLimiter {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisLimiter{
		client:    cfg.Client,
		keyPrefix: prefix,
		rate:      cfg.Rate,
		window:    cfg.Window,
		now:       time.Now,
	}
}

var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
if redis.call('ZCARD', key) >= rate then
	return 0
end
redis.call('ZADD', key, now, ARGV[5])
redis.call('PEXPIRE', key, window_ms)
return 1
`)

// Allow records a request for key and reports whether it fits in the window.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := r.now()
	nowMicro := now.UnixMicro()
	member := strconv.FormatInt(now.UnixNano(), 10)

	result, err := slidingWindow.Run(ctx, r.client, []string{r.keyPrefix + key},
		now.Add(-r.window).UnixMicro(),
		nowMicro,
		r.rate,
		r.window.Milliseconds(),
		member,
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis rate limit script failed: %w", err)
	}
	return result == 1, nil
}

// Reset clears the recorded requests for key.
func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.keyPrefix+key).Err()
}

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
