package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every instance that
// points at the same Redis. It is the deployment-wide counterpart of
// LocalLimiter.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	window time.Duration
	max    int64
}

func NewRedisLimiter(client *redis.Client, prefix string, window time.Duration, max int) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		window: window,
		max:    int64(max),
	}
}

// windowScript counts a hit and starts the window in one step. A counter
// left without a TTL gets one on the next hit.
var windowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + ":" + key

	count, err := windowScript.Run(ctx, l.client, []string{redisKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	return count <= l.max, nil
}

func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}
