// Package ratelimit throttles the Steam proxy routes with a Redis-backed
// fixed window, one bucket per authenticated user. The upstream API is
// rate-limited; the caches absorb most traffic and this bounds the rest.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key inside a fixed window.
type Limiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

func NewLimiter(client *redis.Client, keyPrefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
	}
}

// allowScript increments the window counter atomically and sets its expiry
// on first use, so counting and expiring can't race.
var allowScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

// Allow reports whether one more request under key fits the current window.
// Redis errors fail open: throttling is protection, not correctness.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := allowScript.Run(ctx, l.client,
		[]string{l.keyPrefix + key}, l.window.Milliseconds()).Int64()
	if err != nil {
		return true, fmt.Errorf("ratelimit: redis script: %w", err)
	}
	return count <= int64(l.limit), nil
}
