package middleware

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/betslib/feedsync/internal/config"
	"github.com/betslib/feedsync/internal/telemetry"
)

// bucketIdleEvictAfter is how long an untouched partition survives before the
// next sweep drops it
const bucketIdleEvictAfter = time.Hour

// bucket holds the token state for one caller identity. Each partition has
// its own mutex; contention per identity is low.
type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// RateLimiter is an in-process token bucket rate limiter partitioned per
// caller identity
type RateLimiter struct {
	cfg       config.RateLimitConfig
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter creates a rate limiter with the given settings
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Admit consumes one token for the identity if available. On rejection it
// returns the duration after which the caller should retry.
func (l *RateLimiter) Admit(identity string) (bool, time.Duration) {
	b := l.bucket(identity)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.now()
	perToken := l.cfg.ReplenishPeriod / time.Duration(l.cfg.TokensPerPeriod)
	refill := float64(now.Sub(b.last)) / float64(perToken)
	b.tokens = math.Min(float64(l.cfg.TokenLimit), b.tokens+refill)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}

	deficit := 1 - b.tokens
	retryAfter := time.Duration(deficit * float64(perToken))
	return false, retryAfter
}

// bucket returns the partition for the identity, creating it full on first use
func (l *RateLimiter) bucket(identity string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep()

	b, ok := l.buckets[identity]
	if !ok {
		b = &bucket{tokens: float64(l.cfg.TokenLimit), last: l.now()}
		l.buckets[identity] = b
	}
	return b
}

// sweep drops partitions that have been idle long enough to be full again.
// Eviction is normal cache aging; correctness does not depend on it.
func (l *RateLimiter) sweep() {
	now := l.now()
	if now.Sub(l.lastSweep) < bucketIdleEvictAfter {
		return
	}
	l.lastSweep = now
	for identity, b := range l.buckets {
		if now.Sub(b.last) > bucketIdleEvictAfter {
			delete(l.buckets, identity)
		}
	}
}

// RateLimit returns the admission-control middleware. Health check paths
// bypass the limiter entirely as an explicit exemption. The partition key is
// the authenticated user id when present, else the caller network address.
func RateLimit(limiter *RateLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !limiter.cfg.Enabled || isExempt(c.Path()) {
			return c.Next()
		}

		identity := c.Get("X-User-ID")
		if identity == "" {
			identity = c.IP()
		}

		allowed, retryAfter := limiter.Admit(identity)
		if allowed {
			return c.Next()
		}

		telemetry.RateLimitRejects.Inc()
		seconds := int(math.Ceil(retryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", seconds))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"slug":        "rate-limited",
			"error":       "rate limit exceeded",
			"retry_after": seconds,
		})
	}
}

func isExempt(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/metrics")
}
