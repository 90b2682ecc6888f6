package middleware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/config"
	"github.com/traffic-tacos/movie-api/internal/metrics"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

// KEYS[1] bucket; ARGV capacity, refill per window, window ms, cost.
// Tokens are kept fractional so frequent callers still refill.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill = tonumber(ARGV[2])
local window_ms = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local bucket = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(bucket[1]) or capacity
local last_refill = tonumber(bucket[2]) or 0

local now = redis.call("TIME")
local now_ms = now[1] * 1000 + math.floor(now[2] / 1000)

if last_refill > 0 and now_ms > last_refill then
    tokens = math.min(capacity, tokens + (now_ms - last_refill) / window_ms * refill)
end

local allowed = 0
if tokens >= requested then
    tokens = tokens - requested
    allowed = 1
end

redis.call("HSET", key, "tokens", tostring(tokens), "last_refill", now_ms)
redis.call("PEXPIRE", key, math.max(window_ms * math.ceil(capacity / math.max(refill, 1)) * 2, 60000))

return {allowed, math.floor(tokens), capacity}
`)

type RateLimitMiddleware struct {
	config      *config.RateLimitConfig
	redisClient redis.UniversalClient
	logger      *logrus.Logger
}

func NewRateLimitMiddleware(cfg *config.RateLimitConfig, redisClient redis.UniversalClient, logger *logrus.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// Handle applies the per-account or per-IP token bucket. Redis failures let
// the request through.
func (r *RateLimitMiddleware) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !r.config.Enabled || r.redisClient == nil {
			return c.Next()
		}

		path := c.Path()
		for _, exemptPath := range r.config.ExemptPaths {
			if exemptPath != "" && strings.HasPrefix(path, exemptPath) {
				return c.Next()
			}
		}

		key, keyType := r.generateKey(c)

		start := time.Now()
		allowed, remaining, err := r.checkRateLimit(c.UserContext(), key)
		if err != nil {
			metrics.RecordRedisOperation("ratelimit", "error", time.Since(start))
			r.logger.WithError(err).Error("Rate limit check failed")
			return c.Next()
		}
		metrics.RecordRedisOperation("ratelimit", "success", time.Since(start))

		r.setRateLimitHeaders(c, remaining)

		if !allowed {
			metrics.RecordRateLimitDrop(keyType)
			r.logger.WithFields(logrus.Fields{
				"key":     key,
				"path":    path,
				"method":  c.Method(),
				"user_id": CallerID(c),
			}).Warn("Rate limit exceeded")

			return apperrors.NewAppError(apperrors.CodeRateLimited, "Rate limit exceeded. Please try again later.", nil)
		}

		return c.Next()
	}
}

// generateKey prefers the caller's account id. c.IP() honours a proxy
// header only for trusted proxies, as set up in the Fiber config.
func (r *RateLimitMiddleware) generateKey(c *fiber.Ctx) (string, string) {
	if callerID := CallerID(c); callerID != "" {
		return fmt.Sprintf("ratelimit:user:%s", callerID), "user"
	}
	return fmt.Sprintf("ratelimit:ip:%s", c.IP()), "ip"
}

func (r *RateLimitMiddleware) checkRateLimit(ctx context.Context, key string) (bool, int, error) {
	windowMs := r.config.WindowSize.Milliseconds()
	if windowMs <= 0 {
		windowMs = 1000
	}

	result, err := tokenBucket.Run(ctx, r.redisClient, []string{key},
		r.config.Burst, r.config.RPS, windowMs, 1).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("failed to execute rate limit script: %w", err)
	}
	if len(result) != 3 {
		return false, 0, fmt.Errorf("unexpected script result format")
	}

	allowed, ok := result[0].(int64)
	if !ok {
		return false, 0, fmt.Errorf("failed to parse allowed result")
	}
	remaining, ok := result[1].(int64)
	if !ok {
		return false, 0, fmt.Errorf("failed to parse remaining result")
	}
	return allowed == 1, int(remaining), nil
}

func (r *RateLimitMiddleware) setRateLimitHeaders(c *fiber.Ctx, remaining int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(r.config.Burst))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Set("X-RateLimit-Window", r.config.WindowSize.String())

	if remaining <= 0 {
		retryAfter := 1
		if r.config.RPS > 0 {
			retryAfter = int(r.config.WindowSize.Seconds()/float64(r.config.RPS)) + 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
	}
}
