package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_ENV"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`      // e.g., debug, info, warn, error
	LogFormat  string `envconfig:"LOG_FORMAT" default:"text"`     // text or json
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Listing    ListingConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DBNAME" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

// RedisConfig configures the currency rate cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// ListingConfig tunes the listing engine.
type ListingConfig struct {
	PropertyCategorySlug string        `envconfig:"LISTING_PROPERTY_CATEGORY_SLUG" default:"property"`
	PropertyCacheTTL     time.Duration `envconfig:"LISTING_PROPERTY_CACHE_TTL" default:"5m"`
	DefaultCurrency      string        `envconfig:"LISTING_DEFAULT_CURRENCY" default:"ETB"`
	// CurrencyRates is "CODE:units-per-USD" pairs, e.g. "USD:1,ETB:155".
	CurrencyRates    map[string]float64 `envconfig:"CURRENCY_RATES"`
	CurrencyRatesTTL time.Duration      `envconfig:"CURRENCY_RATES_TTL" default:"10m"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

var cfg Config

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	var loaded Config
	if err := envconfig.Process("", &loaded); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	switch strings.ToLower(loaded.LogFormat) {
	case "text", "json":
		loaded.LogFormat = strings.ToLower(loaded.LogFormat)
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: must be text or json", loaded.LogFormat)
	}
	if loaded.Listing.PropertyCacheTTL <= 0 {
		return nil, fmt.Errorf("invalid LISTING_PROPERTY_CACHE_TTL %s: must be positive", loaded.Listing.PropertyCacheTTL)
	}

	cfg = loaded
	slog.Info("Configuration loaded", "app_env", cfg.AppEnv, "log_level", cfg.LogLevel, "redis_enabled", cfg.Redis.Addr != "")
	return &cfg, nil
}

// Get returns the loaded configuration.
// Panics if Load() has not been called successfully.
func Get() *Config {
	if cfg.Postgres.Host == "" {
		panic("config: configuration has not been loaded, call config.Load() first")
	}
	return &cfg
}
