package middleware

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/config"
)

// redisPasswordKey is the JSON key of the Redis password inside the shared
// application secret.
const redisPasswordKey = "redis_password"

// SecretGetter resolves a value from a secret store.
type SecretGetter interface {
	Get(ctx context.Context, name, key string) (string, error)
}

// NewRedisClient connects a universal client that covers both standalone and
// cluster deployments. secrets may be nil unless PasswordFromSecrets is set.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, secretName string, secrets SecretGetter, logger *logrus.Logger) (redis.UniversalClient, error) {
	password := cfg.Password
	if cfg.PasswordFromSecrets {
		if secrets == nil || secretName == "" {
			return nil, fmt.Errorf("redis password from secrets requires AWS_SECRET_NAME")
		}
		pwd, err := secrets.Get(ctx, secretName, redisPasswordKey)
		if err != nil {
			return nil, fmt.Errorf("failed to get Redis password from secrets: %w", err)
		}
		password = pwd
		logger.Info("Redis password fetched from AWS Secrets Manager")
	}

	var tlsConfig *tls.Config
	if cfg.TLSEnabled {
		tlsConfig = &tls.Config{
			ServerName: extractHostname(cfg.Address),
			MinVersion: tls.VersionTLS12,
		}
		logger.WithField("address", cfg.Address).Info("Redis TLS encryption enabled")
	}

	options := &redis.UniversalOptions{
		Addrs:        []string{cfg.Address},
		Password:     password,
		DB:           cfg.Database, // ignored in cluster mode
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		PoolTimeout:  cfg.PoolTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,

		MinIdleConns:    2,
		ConnMaxIdleTime: 10 * time.Minute,

		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,

		TLSConfig: tlsConfig,
	}
	// a single configuration endpoint would otherwise select the simple client
	var client redis.UniversalClient
	if cfg.ClusterMode {
		client = redis.NewClusterClient(options.Cluster())
	} else {
		client = redis.NewUniversalClient(options)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	mode := "standalone"
	if cfg.ClusterMode {
		mode = "cluster"
	}
	logger.WithFields(logrus.Fields{
		"address": cfg.Address,
		"mode":    mode,
	}).Info("Connected to Redis")

	return client, nil
}

// RedisHealthCheck returns a readiness probe for the client.
func RedisHealthCheck(redisClient redis.UniversalClient, logger *logrus.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Error("Redis health check failed")
			return fmt.Errorf("redis unavailable: %w", err)
		}
		return nil
	}
}

// extractHostname strips the port from host:port.
func extractHostname(address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return address
	}
	return host
}
