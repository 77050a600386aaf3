package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig       `envconfig:"APP"`
	Postgres  PostgresConfig  `envconfig:"POSTGRES"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	Logger    LoggerConfig    `envconfig:"LOG"`
	Auth      AuthConfig      `envconfig:"AUTH"`
	Tracing   TracingConfig   `envconfig:"TRACING"`
	Directory DirectoryConfig `envconfig:"DIRECTORY"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name            string        `split_words:"true" default:"support-desk"`
	Env             string        `split_words:"true" default:"development"`
	Host            string        `split_words:"true" default:"0.0.0.0"`
	Port            string        `split_words:"true" default:"8080"`
	Version         string        `split_words:"true" default:"dev"`
	RequestTimeout  time.Duration `split_words:"true" default:"15s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
	CORSOrigins     string        `split_words:"true" default:"*"`
}

// PostgresConfig holds DB connection values. An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN            string        `split_words:"true"`
	MaxConns       int32         `split_words:"true" default:"10"`
	MinConns       int32         `split_words:"true" default:"2"`
	RunMigrations  bool          `split_words:"true" default:"true"`
	ConnMaxIdle    time.Duration `split_words:"true" default:"30s"`
	ConnMaxLife    time.Duration `split_words:"true" default:"5m"`
	ConnectTimeout time.Duration `split_words:"true" default:"5s"`
}

// RedisConfig holds Redis connection values. An empty address disables caching.
type RedisConfig struct {
	Addr     string `split_words:"true"`
	Password string `split_words:"true"`
	DB       int    `split_words:"true" default:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `split_words:"true" default:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret      string        `split_words:"true" default:"dev-secret"`
	AccessTokenTTL time.Duration `split_words:"true" default:"1h"`
	BcryptCost     int           `split_words:"true" default:"12"`
}

// TracingConfig configures OpenTelemetry export. An empty endpoint disables tracing.
type TracingConfig struct {
	OTLPEndpoint string  `split_words:"true"`
	Insecure     bool    `split_words:"true" default:"true"`
	SampleRatio  float64 `split_words:"true" default:"1"`
}

// DirectoryConfig tunes the consultant directory cache.
type DirectoryConfig struct {
	CacheTTL time.Duration `split_words:"true" default:"1m"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Postgres.MaxConns <= 0 {
		return fmt.Errorf("invalid POSTGRES_MAX_CONNS: %d", c.Postgres.MaxConns)
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		return fmt.Errorf("POSTGRES_MIN_CONNS (%d) exceeds POSTGRES_MAX_CONNS (%d)", c.Postgres.MinConns, c.Postgres.MaxConns)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("AUTH_JWT_SECRET must not be empty")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("invalid TRACING_SAMPLE_RATIO: %v", c.Tracing.SampleRatio)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs with production settings.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}
