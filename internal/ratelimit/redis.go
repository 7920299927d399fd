package ratelimit

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Counter increment and expiry must happen in one atomic step, otherwise
// two instances can both observe "under limit" for an over-limit burst.
const fixedWindowScript = `
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], window)
end

local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], window)
  ttl = window
end

if count > max then
  return {0, 0, ttl}
end
return {1, max - count, ttl}
`

// RedisLimiter is a fixed-window counter backed by a shared redis store,
// safe under concurrent access from multiple service instances.
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	if client == nil {
		return nil
	}
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(fixedWindowScript),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (Result, error) {
	if l == nil || l.client == nil {
		return Result{}, errors.New("rate limiter not configured")
	}
	if err := validate(key, window, max); err != nil {
		return Result{}, err
	}

	res, err := l.script.Run(
		ctx,
		l.client,
		[]string{"ratelimit:" + key},
		max,
		int64(window/time.Millisecond),
	).Slice()
	if err != nil {
		return Result{}, err
	}
	if len(res) < 3 {
		return Result{}, errors.New("invalid rate limit script response")
	}

	allowed := castToInt(res[0]) == 1
	remaining := int(castToInt(res[1]))
	ttl := time.Duration(castToInt(res[2])) * time.Millisecond

	result := Result{Allowed: allowed, Remaining: remaining}
	if !allowed {
		result.RetryAfter = ttl
	}
	return result, nil
}

func castToInt(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	default:
		return 0
	}
}
