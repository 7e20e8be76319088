package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketfuse/internal/domain"
)

// fixedWindowLua counts a request in the current window and reports whether
// the limit was exceeded. INCR and EXPIRE run atomically so concurrent
// fetchers cannot race past the limit.
const fixedWindowLua = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
if count > tonumber(ARGV[1]) then
    return 0
end
return 1
`

// RateLimiter implements domain.RateLimiter with a fixed-window counter per
// key.
type RateLimiter struct {
	rdb    *redis.Client
	script *redis.Script
}

var _ domain.RateLimiter = (*RateLimiter)(nil)

// NewRateLimiter creates a RateLimiter backed by the given Client.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{
		rdb:    c.Underlying(),
		script: redis.NewScript(fixedWindowLua),
	}
}

func rateLimitKey(key string) string {
	return "mf:ratelimit:" + key
}

// Allow reports whether a request for the given key is permitted under the
// limit for the current window. Allowed requests are counted.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	result, err := rl.script.Run(
		ctx,
		rl.rdb,
		[]string{rateLimitKey(key)},
		limit,
		window.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit allow %s: %w", key, err)
	}
	return result == 1, nil
}
