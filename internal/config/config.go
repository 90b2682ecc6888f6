package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage backends
const (
	BackendMongo    = "mongo"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

type Config struct {
	Server        ServerConfig        `envconfig:"SERVER"`
	Storage       StorageConfig       `envconfig:"STORAGE"`
	Mongo         MongoConfig         `envconfig:"MONGO"`
	DynamoDB      DynamoDBConfig      `envconfig:"DYNAMODB"`
	Redis         RedisConfig         `envconfig:"REDIS"`
	JWT           JWTConfig           `envconfig:"JWT"`
	Auth          AuthConfig          `envconfig:"AUTH"`
	TMDB          TMDBConfig          `envconfig:"TMDB"`
	RateLimit     RateLimitConfig     `envconfig:"RATE_LIMIT"`
	Observability ObservabilityConfig `envconfig:"OBSERVABILITY"`
	CORS          CORSConfig          `envconfig:"CORS"`
	Log           LogConfig           `envconfig:"LOG"`
	AWS           AWSConfig           `envconfig:"AWS"`
}

type AWSConfig struct {
	Region  string `envconfig:"REGION" default:"ap-northeast-2"`
	Profile string `envconfig:"PROFILE" default:""`
	// SecretName holds the Redis password when REDIS_PASSWORD_FROM_SECRETS is set.
	SecretName string `envconfig:"SECRET_NAME" default:""`
}

type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"5000"`
	Environment  string        `envconfig:"ENVIRONMENT" default:"production"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
	PprofEnabled bool          `envconfig:"PPROF_ENABLED" default:"false"`

	// ProxyHeader is read for the client IP, but only on requests coming
	// from TrustedProxies. Empty means the socket address is used.
	ProxyHeader    string   `envconfig:"PROXY_HEADER" default:""`
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES" default:""`
}

type StorageConfig struct {
	Backend string `envconfig:"BACKEND" default:"mongo"`
}

type MongoConfig struct {
	URI            string        `envconfig:"URI" default:"mongodb://localhost:27017"`
	Database       string        `envconfig:"DATABASE" default:"movie_recommendation"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"10s"`
}

type DynamoDBConfig struct {
	AccountsTableName string `envconfig:"ACCOUNTS_TABLE_NAME" default:"movie-api-accounts"`
	MoviesTableName   string `envconfig:"MOVIES_TABLE_NAME" default:"movie-api-movies"`
	Region            string `envconfig:"REGION" default:"ap-northeast-2"`
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string `envconfig:"ENDPOINT" default:""`
}

type RedisConfig struct {
	Enabled             bool          `envconfig:"ENABLED" default:"true"`
	Address             string        `envconfig:"ADDRESS" default:"localhost:6379"`
	Password            string        `envconfig:"PASSWORD" default:""`
	Database            int           `envconfig:"DATABASE" default:"0"`
	MaxRetries          int           `envconfig:"MAX_RETRIES" default:"3"`
	PoolSize            int           `envconfig:"POOL_SIZE" default:"50"`
	PoolTimeout         time.Duration `envconfig:"POOL_TIMEOUT" default:"4s"`
	TLSEnabled          bool          `envconfig:"TLS_ENABLED" default:"false"`
	PasswordFromSecrets bool          `envconfig:"PASSWORD_FROM_SECRETS" default:"false"`
	ClusterMode         bool          `envconfig:"CLUSTER_MODE" default:"false"`
}

type JWTConfig struct {
	// Secret signs session tokens. Either Secret or SecretName must be set.
	Secret string `envconfig:"SECRET" default:""`
	// SecretName is an AWS Secrets Manager secret holding the signing key.
	SecretName string        `envconfig:"SECRET_NAME" default:""`
	Expiry     time.Duration `envconfig:"EXPIRY" default:"168h"`
	Issuer     string        `envconfig:"ISSUER" default:"movie-api"`
}

type AuthConfig struct {
	BcryptCost          int  `envconfig:"BCRYPT_COST" default:"10"`
	CatalogRequireAdmin bool `envconfig:"CATALOG_REQUIRE_ADMIN" default:"false"`
}

type TMDBConfig struct {
	APIKey            string        `envconfig:"API_KEY" default:""`
	BaseURL           string        `envconfig:"BASE_URL" default:"https://api.themoviedb.org/3"`
	Language          string        `envconfig:"LANGUAGE" default:"en-US"`
	Timeout           time.Duration `envconfig:"TIMEOUT" default:"10s"`
	RequestsPerSecond float64       `envconfig:"REQUESTS_PER_SECOND" default:"20"`
	MaxConcurrency    int           `envconfig:"MAX_CONCURRENCY" default:"5"`
}

type RateLimitConfig struct {
	RPS         int           `envconfig:"RPS" default:"50"`
	Burst       int           `envconfig:"BURST" default:"100"`
	WindowSize  time.Duration `envconfig:"WINDOW_SIZE" default:"1s"`
	Enabled     bool          `envconfig:"ENABLED" default:"true"`
	ExemptPaths []string      `envconfig:"EXEMPT_PATHS" default:"/healthz,/readyz,/metrics"`
}

type ObservabilityConfig struct {
	MetricsPath    string  `envconfig:"METRICS_PATH" default:"/metrics"`
	OTLPEndpoint   string  `envconfig:"OTLP_ENDPOINT" default:"http://localhost:4318"`
	TracingEnabled bool    `envconfig:"TRACING_ENABLED" default:"false"`
	TraceExporter  string  `envconfig:"TRACE_EXPORTER" default:"otlp"`
	SampleRate     float64 `envconfig:"SAMPLE_RATE" default:"0.1"`
}

type CORSConfig struct {
	AllowOrigins string `envconfig:"ALLOW_ORIGINS" default:"http://localhost:5173,http://localhost:5174"`
}

type LogConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// envconfig keeps surrounding whitespace in slice elements
	if exemptPaths := os.Getenv("RATE_LIMIT_EXEMPT_PATHS"); exemptPaths != "" {
		cfg.RateLimit.ExemptPaths = splitList(exemptPaths)
	}
	if proxies := os.Getenv("SERVER_TRUSTED_PROXIES"); proxies != "" {
		cfg.Server.TrustedProxies = splitList(proxies)
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validateConfig(cfg *Config) error {
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", cfg.Server.Port)
	}

	switch cfg.Storage.Backend {
	case BackendMongo, BackendDynamoDB, BackendMemory:
	default:
		return fmt.Errorf("invalid storage backend: %q", cfg.Storage.Backend)
	}

	if cfg.Server.ProxyHeader != "" && len(cfg.Server.TrustedProxies) == 0 {
		return fmt.Errorf("SERVER_PROXY_HEADER requires SERVER_TRUSTED_PROXIES")
	}

	// the signing key has no default
	if cfg.JWT.Secret == "" && cfg.JWT.SecretName == "" {
		return fmt.Errorf("JWT_SECRET or JWT_SECRET_NAME must be set")
	}
	if cfg.JWT.Expiry <= 0 {
		return fmt.Errorf("invalid JWT expiry: %s", cfg.JWT.Expiry)
	}

	if cfg.Observability.SampleRate < 0 || cfg.Observability.SampleRate > 1 {
		return fmt.Errorf("invalid tracing sample rate: %f", cfg.Observability.SampleRate)
	}

	if cfg.TMDB.MaxConcurrency < 1 {
		return fmt.Errorf("invalid TMDB max concurrency: %d", cfg.TMDB.MaxConcurrency)
	}

	return nil
}
