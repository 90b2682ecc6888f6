package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	_ "github.com/traffic-tacos/movie-api/docs" // Swagger docs
	"github.com/traffic-tacos/movie-api/internal/accounts"
	"github.com/traffic-tacos/movie-api/internal/catalog"
	"github.com/traffic-tacos/movie-api/internal/config"
	"github.com/traffic-tacos/movie-api/internal/favorites"
	"github.com/traffic-tacos/movie-api/internal/logging"
	"github.com/traffic-tacos/movie-api/internal/metrics"
	"github.com/traffic-tacos/movie-api/internal/middleware"
	"github.com/traffic-tacos/movie-api/internal/recommend"
	"github.com/traffic-tacos/movie-api/internal/routes"
	"github.com/traffic-tacos/movie-api/internal/secrets"
	"github.com/traffic-tacos/movie-api/internal/session"
	"github.com/traffic-tacos/movie-api/internal/store"
	"github.com/traffic-tacos/movie-api/internal/store/dynamo"
	"github.com/traffic-tacos/movie-api/internal/store/memory"
	"github.com/traffic-tacos/movie-api/internal/store/mongodb"
	"github.com/traffic-tacos/movie-api/internal/tmdb"
)

// jwtSecretKey is the JSON key of the signing key inside JWT_SECRET_NAME.
const jwtSecretKey = "jwt_secret"

// @title Movie API
// @version 1.0
// @description Accounts, movie catalog, favorites and genre recommendations
// @host localhost:5000
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg)
	metrics.Init()

	ctx := context.Background()

	tracingShutdown, err := middleware.InitTracing(ctx, &cfg.Observability, logging.GetVersion(), cfg.Server.Environment, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to setup tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingShutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shutdown tracing")
		}
	}()

	var secretReader *secrets.Reader
	if cfg.JWT.SecretName != "" || cfg.Redis.PasswordFromSecrets {
		secretReader, err = secrets.NewReader(&cfg.AWS, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Secrets Manager client")
		}
	}

	signingKey, err := resolveSigningKey(ctx, cfg, secretReader)
	if err != nil {
		logger.WithError(err).Fatal("Failed to resolve JWT signing key")
	}
	issuer, err := session.NewIssuer(signingKey, cfg.JWT.Expiry, cfg.JWT.Issuer)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create session issuer")
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.WithError(err).Error("Failed to close storage")
		}
	}()

	redisClient := connectRedis(ctx, cfg, secretReader, logger)

	accountService := accounts.NewService(st, cfg.Auth.BcryptCost, logger)
	catalogService := catalog.NewService(st, logger)
	favoriteService := favorites.NewService(st, st, logger)
	recommendService := recommend.NewService(st, st)
	discovery := tmdb.NewDiscovery(tmdb.NewClient(cfg.TMDB, logger), catalogService, cfg.TMDB.MaxConcurrency, logger)
	if cfg.TMDB.APIKey == "" {
		logger.Warn("TMDB_API_KEY is not set, TMDB discovery routes will answer 503")
	}

	manager := middleware.NewManager(cfg, issuer, accountService, redisClient, logger)
	defer func() {
		if err := manager.Close(); err != nil {
			logger.WithError(err).Error("Failed to close Redis client")
		}
	}()

	app := fiber.New(routes.AppConfig(cfg, manager.ErrorHandler))

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With,X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	if cfg.Observability.TracingEnabled {
		app.Use(middleware.TracingMiddleware("/healthz", "/readyz", cfg.Observability.MetricsPath))
	}
	if cfg.Server.PprofEnabled {
		app.Use(pprof.New())
	}
	app.Use(metrics.HTTPMetricsMiddleware())
	app.Use(manager.ErrorLogger.Handle())

	if err := routes.Setup(app, &routes.Dependencies{
		Config:     cfg,
		Logger:     logger,
		Middleware: manager,
		Accounts:   accountService,
		Catalog:    catalogService,
		Favorites:  favoriteService,
		Recommend:  recommendService,
		Issuer:     issuer,
		Discovery:  discovery,
		StorePing:  st.Ping,
	}); err != nil {
		logger.WithError(err).Fatal("Failed to setup routes")
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("Gracefully shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.WithFields(logrus.Fields{
		"port":    cfg.Server.Port,
		"backend": cfg.Storage.Backend,
		"redis":   redisClient != nil,
	}).Info("Starting Movie API server")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Error("Server stopped")
	}
}

func resolveSigningKey(ctx context.Context, cfg *config.Config, reader *secrets.Reader) ([]byte, error) {
	if cfg.JWT.Secret != "" {
		return []byte(cfg.JWT.Secret), nil
	}
	if reader == nil {
		return nil, fmt.Errorf("JWT_SECRET_NAME set without a Secrets Manager client")
	}
	secret, err := reader.Get(ctx, cfg.JWT.SecretName, jwtSecretKey)
	if err != nil {
		return nil, err
	}
	return []byte(secret), nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		defer cancel()
		return mongodb.Connect(connectCtx, cfg.Mongo, logger)
	case config.BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return dynamo.New(client, cfg.DynamoDB.AccountsTableName, cfg.DynamoDB.MoviesTableName, logger), nil
	case config.BackendMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// connectRedis returns nil when Redis is disabled or unreachable. Sessions
// then revoke in process and rate limiting is off.
func connectRedis(ctx context.Context, cfg *config.Config, reader *secrets.Reader, logger *logrus.Logger) redis.UniversalClient {
	if !cfg.Redis.Enabled {
		logger.Info("Redis is disabled")
		return nil
	}

	var getter middleware.SecretGetter
	if reader != nil {
		getter = reader
	}
	client, err := middleware.NewRedisClient(ctx, &cfg.Redis, cfg.AWS.SecretName, getter, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, continuing without it")
		return nil
	}
	return client
}
