//go:build integration

package routes

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
	"github.com/traffic-tacos/movie-api/internal/testinfra"
)

func TestRateLimit_KeysAuthenticatedCallersByAccount(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: testinfra.StartRedis(t, ctx)})
	t.Cleanup(func() { _ = rdb.Close() })

	s := newTestServerWithRedis(t, rdb, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{
			Enabled:     true,
			RPS:         100,
			Burst:       100,
			WindowSize:  time.Second,
			ExemptPaths: []string{"/healthz"},
		}
	})

	token, id := s.signup(t, "carol")

	status, _ := s.call(t, fiber.MethodGet, "/api/auth/me", token, "")
	require.Equal(t, http.StatusOK, status)

	exists, err := rdb.Exists(ctx, "ratelimit:user:"+id).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists, "authenticated request should use the account bucket")

	// signup carried no token, so it was keyed by the socket address
	exists, err = rdb.Exists(ctx, "ratelimit:ip:0.0.0.0").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	req := httptest.NewRequest(fiber.MethodGet, "/api/movies", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, "203.0.113.9")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	exists, err = rdb.Exists(ctx, "ratelimit:ip:203.0.113.9").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists, "untrusted X-Forwarded-For must not pick the bucket")
}
