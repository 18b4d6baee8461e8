package middleware

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a Redis-backed fixed-window limiter keyed by client IP.
// It protects this service's own endpoints and fails open when Redis errors.
type RateLimiter struct {
	rdb     redis.Cmdable
	maxReqs int
	window  time.Duration
	skip    map[string]bool
}

// NewRateLimiter creates a rate limiter. Paths in skip are never limited.
func NewRateLimiter(rdb redis.Cmdable, maxReqs, windowSec int, skip ...string) *RateLimiter {
	rl := &RateLimiter{
		rdb:     rdb,
		maxReqs: maxReqs,
		window:  time.Duration(windowSec) * time.Second,
		skip:    make(map[string]bool, len(skip)),
	}
	for _, p := range skip {
		rl.skip[p] = true
	}
	return rl
}

// Handler returns a Fiber middleware handler for rate limiting.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		if rl.skip[c.Path()] {
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:%s", c.IP())
		ctx := c.Context()

		count, err := rl.rdb.Incr(ctx, key).Result()
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "error", err)
			return c.Next()
		}
		if count == 1 {
			rl.expire(c, key)
		}

		ttl, err := rl.rdb.TTL(ctx, key).Result()
		switch {
		case err != nil:
			ttl = rl.window
		case ttl < 0:
			// Counter has no expiry, so the first EXPIRE was lost.
			rl.expire(c, key)
			ttl = rl.window
		}
		reset := int(ttl.Seconds())

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.maxReqs))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(rl.maxReqs)-count), 10))
		c.Set("X-RateLimit-Reset", strconv.Itoa(reset))

		if int(count) > rl.maxReqs {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(reset))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"retry_after": reset,
			})
		}

		return c.Next()
	}
}

func (rl *RateLimiter) expire(c fiber.Ctx, key string) {
	if err := rl.rdb.Expire(c.Context(), key, rl.window).Err(); err != nil {
		slog.Warn("failed to set rate limit window", "key", key, "error", err)
	}
}
