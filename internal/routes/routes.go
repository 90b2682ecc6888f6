package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/accounts"
	"github.com/traffic-tacos/movie-api/internal/catalog"
	"github.com/traffic-tacos/movie-api/internal/config"
	"github.com/traffic-tacos/movie-api/internal/favorites"
	"github.com/traffic-tacos/movie-api/internal/graphql"
	"github.com/traffic-tacos/movie-api/internal/logging"
	"github.com/traffic-tacos/movie-api/internal/metrics"
	"github.com/traffic-tacos/movie-api/internal/middleware"
	"github.com/traffic-tacos/movie-api/internal/models"
	"github.com/traffic-tacos/movie-api/internal/recommend"
	"github.com/traffic-tacos/movie-api/internal/session"
	"github.com/traffic-tacos/movie-api/internal/tmdb"
	apperrors "github.com/traffic-tacos/movie-api/pkg/errors"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Middleware *middleware.Manager
	Accounts   *accounts.Service
	Catalog    *catalog.Service
	Favorites  *favorites.Service
	Recommend  *recommend.Service
	Issuer     *session.Issuer
	Discovery  *tmdb.Discovery
	// StorePing reports whether the storage backend is reachable.
	StorePing func(ctx context.Context) error
}

// AppConfig is the Fiber configuration the server runs with. A proxy
// header is trusted only from the configured proxies.
func AppConfig(cfg *config.Config, errorHandler fiber.ErrorHandler) fiber.Config {
	appCfg := fiber.Config{
		AppName:      "Movie API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorHandler: errorHandler,
	}
	if cfg.Server.ProxyHeader != "" {
		appCfg.ProxyHeader = cfg.Server.ProxyHeader
		appCfg.EnableTrustedProxyCheck = true
		appCfg.TrustedProxies = cfg.Server.TrustedProxies
		appCfg.EnableIPValidation = true
	}
	return appCfg
}

// Setup configures all API routes
func Setup(app *fiber.App, deps *Dependencies) error {
	cfg := deps.Config
	mw := deps.Middleware
	logger := deps.Logger

	gqlHandler, err := graphql.NewHandler(deps.Favorites, logger)
	if err != nil {
		return err
	}

	authHandler := NewAuthHandler(deps.Accounts, deps.Issuer, mw.Denylist, logger)
	movieHandler := NewMovieHandler(deps.Catalog, deps.Recommend, logger)
	favoriteHandler := NewFavoriteHandler(deps.Favorites)
	userHandler := NewUserHandler(deps.Accounts)
	tmdbHandler := NewTMDBHandler(deps.Discovery)
	adminHandler := NewAdminHandler(deps.Accounts, deps.Catalog, cfg.Storage.Backend, mw.RedisClient, logger)

	app.Get("/healthz", healthCheck)
	app.Get("/readyz", readinessCheck(deps))
	app.Get("/version", versionHandler)
	app.Get(cfg.Observability.MetricsPath, metrics.PrometheusHandler())
	app.Get("/swagger/*", swagger.HandlerDefault)

	authenticate := mw.Auth.Authenticate()
	adminOnly := mw.Auth.Authorize(models.RoleAdmin)

	api := app.Group("/api")
	api.Use(mw.Auth.Identify(), mw.RateLimit.Handle())

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authenticate, authHandler.Me)
	authRoutes.Get("/verify", authenticate, authHandler.Verify)
	authRoutes.Post("/logout", authenticate, authHandler.Logout)

	catalogWrite := func(h fiber.Handler) []fiber.Handler {
		if cfg.Auth.CatalogRequireAdmin {
			return []fiber.Handler{authenticate, adminOnly, h}
		}
		return []fiber.Handler{authenticate, h}
	}

	movieRoutes := api.Group("/movies")
	movieRoutes.Get("/", movieHandler.List)
	// registered before /:id so it is not read as a movie id
	movieRoutes.Get("/for-you", authenticate, movieHandler.ForYou)
	movieRoutes.Get("/:id", movieHandler.Get)
	movieRoutes.Post("/", catalogWrite(movieHandler.Upsert)...)
	movieRoutes.Delete("/:id", catalogWrite(movieHandler.Delete)...)

	favoriteRoutes := api.Group("/favorites", authenticate)
	favoriteRoutes.Get("/", favoriteHandler.List)
	favoriteRoutes.Post("/:movieId", favoriteHandler.Add)
	favoriteRoutes.Delete("/:movieId", favoriteHandler.Remove)

	userRoutes := api.Group("/users", authenticate)
	userRoutes.Get("/", adminOnly, userHandler.List)
	userRoutes.Get("/:id", adminOnly, userHandler.Get)
	userRoutes.Put("/:id", userHandler.Update)
	userRoutes.Delete("/:id", adminOnly, userHandler.Delete)

	tmdbRoutes := api.Group("/tmdb", authenticate, adminOnly)
	tmdbRoutes.Get("/popular", tmdbHandler.Popular)
	tmdbRoutes.Post("/import/:id", tmdbHandler.Import)

	adminRoutes := api.Group("/admin", authenticate, adminOnly)
	adminRoutes.Get("/stats", adminHandler.Stats)

	app.Post("/graphql", authenticate, gqlHandler.Handle())

	app.Use(notFoundHandler)
	return nil
}

// healthCheck returns the health status of the service
// @Summary Health check
// @Description Check if the service is healthy
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Healthy"
// @Router /healthz [get]
func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "movie-api",
	})
}

// readinessCheck checks if the service is ready to accept traffic
// @Summary Readiness check
// @Description Check storage and, when enabled, Redis connectivity
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Ready"
// @Failure 503 {object} map[string]interface{} "Not ready"
// @Router /readyz [get]
func readinessCheck(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		if deps.StorePing != nil {
			if err := deps.StorePing(ctx); err != nil {
				return notReady(c, "storage unavailable", err)
			}
		}

		if rdb := deps.Middleware.RedisClient; rdb != nil {
			if err := middleware.RedisHealthCheck(rdb, deps.Logger)(ctx); err != nil {
				return notReady(c, "redis unavailable", err)
			}
		}

		return c.JSON(fiber.Map{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "movie-api",
		})
	}
}

func notReady(c *fiber.Ctx, reason string, err error) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"status":    "not ready",
		"reason":    reason,
		"error":     err.Error(),
		"timestamp": time.Now().UTC(),
	})
}

// versionHandler returns version information
// @Summary Version information
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Version info"
// @Router /version [get]
func versionHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "movie-api",
		"version": logging.GetVersion(),
	})
}

func notFoundHandler(c *fiber.Ctx) error {
	return apperrors.NotFound("The requested resource was not found")
}

// parseBody decodes a JSON body or answers 400.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.BadRequest("Invalid request body")
	}
	return nil
}

func movieIDParam(c *fiber.Ctx, name string) (models.MovieID, error) {
	id, err := models.ParseMovieID(c.Params(name))
	if err != nil {
		return 0, apperrors.BadRequest("Invalid movie id")
	}
	return id, nil
}
