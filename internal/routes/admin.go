package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/accounts"
	"github.com/traffic-tacos/movie-api/internal/catalog"
)

// redisKeyPatterns are the key families reported by Stats.
var redisKeyPatterns = map[string]string{
	"revoked_sessions":  "session:revoked:*",
	"ratelimit_buckets": "ratelimit:*",
}

type AdminHandler struct {
	accounts    *accounts.Service
	catalog     *catalog.Service
	backend     string
	redisClient redis.UniversalClient
	logger      *logrus.Logger
}

func NewAdminHandler(accounts *accounts.Service, catalog *catalog.Service, backend string, redisClient redis.UniversalClient, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		accounts:    accounts,
		catalog:     catalog,
		backend:     backend,
		redisClient: redisClient,
		logger:      logger,
	}
}

// Stats returns account and catalog counts
// @Summary Service statistics
// @Description Account and movie counts, the storage backend and Redis key counts
// @Tags Admin
// @Produce json
// @Security Bearer
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /api/admin/stats [get]
func (a *AdminHandler) Stats(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	accountCount, err := a.accounts.Count(ctx)
	if err != nil {
		return err
	}
	movieCount, err := a.catalog.Count(ctx)
	if err != nil {
		return err
	}

	resp := fiber.Map{
		"success":         true,
		"accounts":        accountCount,
		"movies":          movieCount,
		"storage_backend": a.backend,
	}
	if a.redisClient != nil {
		resp["redis"] = a.redisStats(ctx)
	}
	return c.JSON(resp)
}

// redisStats counts keys per family. Counting errors are logged and the
// family is left out.
func (a *AdminHandler) redisStats(ctx context.Context) fiber.Map {
	keyCount := make(map[string]int64, len(redisKeyPatterns))
	for name, pattern := range redisKeyPatterns {
		iter := a.redisClient.Scan(ctx, 0, pattern, 100).Iterator()
		count := int64(0)
		for iter.Next(ctx) {
			count++
		}
		if err := iter.Err(); err != nil {
			a.logger.WithError(err).WithField("pattern", pattern).Warn("Failed to count Redis keys")
			continue
		}
		keyCount[name] = count
	}
	return fiber.Map{"key_count": keyCount}
}
