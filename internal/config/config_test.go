package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-signing-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, BackendMongo, cfg.Storage.Backend)
	assert.Equal(t, "movie_recommendation", cfg.Mongo.Database)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
	assert.Equal(t, []string{"/healthz", "/readyz", "/metrics"}, cfg.RateLimit.ExemptPaths)
	assert.Equal(t, "production", cfg.Server.Environment)
	assert.False(t, cfg.Server.PprofEnabled)
	assert.Empty(t, cfg.Server.ProxyHeader)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-signing-key")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("STORAGE_BACKEND", " DynamoDB ")
	t.Setenv("RATE_LIMIT_EXEMPT_PATHS", "/healthz, /graphql")
	t.Setenv("AUTH_CATALOG_REQUIRE_ADMIN", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, BackendDynamoDB, cfg.Storage.Backend)
	assert.Equal(t, []string{"/healthz", "/graphql"}, cfg.RateLimit.ExemptPaths)
	assert.True(t, cfg.Auth.CatalogRequireAdmin)
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-signing-key")
	t.Setenv("SERVER_PROXY_HEADER", "X-Forwarded-For")
	t.Setenv("SERVER_TRUSTED_PROXIES", " 10.0.0.0/8, 192.168.1.5 ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "X-Forwarded-For", cfg.Server.ProxyHeader)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.5"}, cfg.Server.TrustedProxies)
}

func TestLoad_ProxyHeaderNeedsTrustedProxies(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-signing-key")
	t.Setenv("SERVER_PROXY_HEADER", "X-Forwarded-For")
	t.Setenv("SERVER_TRUSTED_PROXIES", "")

	_, err := Load()
	assert.ErrorContains(t, err, "SERVER_TRUSTED_PROXIES")
}

func TestLoad_RequiresSigningKeySource(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_SECRET_NAME", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:        ServerConfig{Port: "5000"},
			Storage:       StorageConfig{Backend: BackendMemory},
			JWT:           JWTConfig{Secret: "k", Expiry: time.Hour},
			TMDB:          TMDBConfig{MaxConcurrency: 1},
			Observability: ObservabilityConfig{SampleRate: 0.5},
		}
	}

	require.NoError(t, validateConfig(base()))

	cfg := base()
	cfg.Server.Port = "70000"
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.Storage.Backend = "postgres"
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.Observability.SampleRate = 2
	assert.Error(t, validateConfig(cfg))

	cfg = base()
	cfg.JWT.Secret = ""
	cfg.JWT.SecretName = "prod/movie-api/jwt"
	assert.NoError(t, validateConfig(cfg))
}
