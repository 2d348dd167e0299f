package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betslib/feedsync/internal/config"
)

func testRateLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:         true,
		TokenLimit:      3,
		TokensPerPeriod: 3,
		ReplenishPeriod: time.Minute,
	}
}

func newTestLimiter(cfg config.RateLimitConfig) (*RateLimiter, *time.Time) {
	limiter := NewRateLimiter(cfg)
	now := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	return limiter, &now
}

func TestRateLimiter_Admit(t *testing.T) {
	limiter, _ := newTestLimiter(testRateLimitConfig())

	// A fresh identity starts with a full bucket
	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Admit("user-1")
		assert.True(t, allowed, "request %d should be admitted", i)
	}

	allowed, retryAfter := limiter.Admit("user-1")
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))

	// Other identities are unaffected
	allowed, _ = limiter.Admit("user-2")
	assert.True(t, allowed)
}

func TestRateLimiter_Replenish(t *testing.T) {
	limiter, now := newTestLimiter(testRateLimitConfig())

	for i := 0; i < 3; i++ {
		limiter.Admit("user-1")
	}
	allowed, retryAfter := limiter.Admit("user-1")
	require.False(t, allowed)

	// One token refills every 20 seconds at 3 tokens per minute
	assert.InDelta(t, (20 * time.Second).Seconds(), retryAfter.Seconds(), 1)

	*now = now.Add(20 * time.Second)
	allowed, _ = limiter.Admit("user-1")
	assert.True(t, allowed)

	// Tokens never accumulate past the limit
	*now = now.Add(24 * time.Hour)
	for i := 0; i < 3; i++ {
		allowed, _ = limiter.Admit("user-1")
		assert.True(t, allowed, "request %d should be admitted after refill", i)
	}
	allowed, _ = limiter.Admit("user-1")
	assert.False(t, allowed)
}

func TestRateLimiter_SweepEvictsIdleBuckets(t *testing.T) {
	limiter, now := newTestLimiter(testRateLimitConfig())

	limiter.Admit("user-1")
	*now = now.Add(bucketIdleEvictAfter + time.Minute)

	// Touching another identity triggers the sweep
	limiter.Admit("user-2")

	limiter.mu.Lock()
	_, exists := limiter.buckets["user-1"]
	limiter.mu.Unlock()
	assert.False(t, exists, "idle bucket should have been evicted")
}

func newRateLimitTestApp(cfg config.RateLimitConfig) (*fiber.App, *RateLimiter) {
	limiter := NewRateLimiter(cfg)
	app := fiber.New()
	app.Use(RateLimit(limiter))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/api/v1/jobs", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app, limiter
}

func TestRateLimit_Middleware(t *testing.T) {
	cfg := testRateLimitConfig()
	cfg.TokenLimit = 1
	app, _ := newRateLimitTestApp(cfg)

	req := httptest.NewRequest("GET", "/api/v1/jobs", nil)
	req.Header.Set("X-User-ID", "user-1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))

	// A different user still gets through
	otherReq := httptest.NewRequest("GET", "/api/v1/jobs", nil)
	otherReq.Header.Set("X-User-ID", "user-2")
	resp, err = app.Test(otherReq)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimit_HealthExempt(t *testing.T) {
	cfg := testRateLimitConfig()
	cfg.TokenLimit = 1
	app, _ := newRateLimitTestApp(cfg)

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, "health request %d should bypass the limiter", i)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	cfg := testRateLimitConfig()
	cfg.Enabled = false
	cfg.TokenLimit = 1
	app, _ := newRateLimitTestApp(cfg)

	req := httptest.NewRequest("GET", "/api/v1/jobs", nil)
	req.Header.Set("X-User-ID", "user-1")
	for i := 0; i < 5; i++ {
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
