package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/config"
	"github.com/traffic-tacos/movie-api/internal/session"
)

// Manager holds all middleware instances
type Manager struct {
	Auth         *AuthMiddleware
	RateLimit    *RateLimitMiddleware
	ErrorLogger  *ErrorLoggerMiddleware
	ErrorHandler fiber.ErrorHandler
	Denylist     session.Denylist
	// RedisClient is nil when Redis is disabled or unreachable.
	RedisClient redis.UniversalClient
	Config      *config.Config
	Logger      *logrus.Logger
}

// NewManager wires the middleware. Without Redis, revocations are kept in
// process memory and rate limiting is off.
func NewManager(cfg *config.Config, verifier TokenVerifier, accounts AccountResolver, redisClient redis.UniversalClient, logger *logrus.Logger) *Manager {
	var denylist session.Denylist
	if redisClient != nil {
		denylist = session.NewRedisDenylist(redisClient)
	} else {
		denylist = session.NewMemoryDenylist()
	}

	errorHandler := NewErrorHandler(logger)

	return &Manager{
		Auth:         NewAuthMiddleware(verifier, denylist, accounts, logger),
		RateLimit:    NewRateLimitMiddleware(&cfg.RateLimit, redisClient, logger),
		ErrorLogger:  NewErrorLoggerMiddleware(logger, errorHandler),
		ErrorHandler: errorHandler,
		Denylist:     denylist,
		RedisClient:  redisClient,
		Config:       cfg,
		Logger:       logger,
	}
}

// Close closes all middleware resources
func (m *Manager) Close() error {
	if m.RedisClient != nil {
		return m.RedisClient.Close()
	}
	return nil
}
