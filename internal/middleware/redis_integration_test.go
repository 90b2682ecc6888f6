//go:build integration

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traffic-tacos/movie-api/internal/config"
	"github.com/traffic-tacos/movie-api/internal/logging"
	"github.com/traffic-tacos/movie-api/internal/session"
	"github.com/traffic-tacos/movie-api/internal/testinfra"
)

func setupRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	addr := testinfra.StartRedis(t, ctx)
	client, err := NewRedisClient(ctx, &config.RedisConfig{
		Address:     addr,
		PoolSize:    5,
		PoolTimeout: time.Second,
	}, "", nil, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisHealthCheck(t *testing.T) {
	client := setupRedis(t)
	assert.NoError(t, RedisHealthCheck(client, logging.Discard())(context.Background()))
}

func TestRedisDenylist(t *testing.T) {
	client := setupRedis(t)
	denylist := session.NewRedisDenylist(client)
	ctx := context.Background()

	revoked, err := denylist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, denylist.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err = denylist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(ctx, "session:revoked:jti-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestRateLimit_TokenBucket(t *testing.T) {
	client := setupRedis(t)
	cfg := &config.RateLimitConfig{
		Enabled:     true,
		RPS:         1,
		Burst:       3,
		WindowSize:  time.Minute,
		ExemptPaths: []string{"/healthz"},
	}

	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(logging.Discard())})
	app.Use(NewRateLimitMiddleware(cfg, client, logging.Discard()).Handle())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	request := func(path string) *http.Response {
		req := httptest.NewRequest(fiber.MethodGet, path, nil)
		req.Header.Set(fiber.HeaderXForwardedFor, "198.51.100.7")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	for i := 0; i < cfg.Burst; i++ {
		resp := request("/")
		assert.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i+1)
		assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp := request("/")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))

	assert.Equal(t, http.StatusOK, request("/healthz").StatusCode)

	exists, err := client.Exists(context.Background(), "ratelimit:ip:198.51.100.7").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
}
