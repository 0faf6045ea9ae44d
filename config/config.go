package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the REST backend configuration. Every field comes from the
// environment; a .env file in the working directory is loaded first.
type Config struct {
	Env   string `env:"NODE_ENV" env-default:"development"`
	Port  int    `env:"PORT" env-default:"3000"`
	Debug bool   `env:"DEBUG" env-default:"false"`

	Postgres  PostgresConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig

	// CORSOrigins overrides the allowed origins. Empty means the defaults for Env.
	CORSOrigins     []string      `env:"CORS_ORIGINS" env-separator:","`
	BodyLimit       string        `env:"BODY_LIMIT" env-default:"10M"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type PostgresConfig struct {
	Host            string        `env:"DB_HOST" env-default:"localhost"`
	Port            int           `env:"DB_PORT" env-default:"5432"`
	Database        string        `env:"DB_NAME" env-default:"gtd_tasks"`
	Username        string        `env:"DB_USER" env-default:"gtd_user"`
	Password        string        `env:"DB_PASSWORD" env-default:"gtd_password"`
	SSLMode         string        `env:"DB_SSL_MODE" env-default:"disable"`
	MaxConns        int32         `env:"DB_MAX_CONNS" env-default:"20"`
	MaxConnIdleTime time.Duration `env:"DB_IDLE_TIMEOUT" env-default:"30s"`
	ConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" env-default:"2s"`
	WaitRetries     int           `env:"DB_WAIT_RETRIES" env-default:"30"`
	WaitInterval    time.Duration `env:"DB_WAIT_INTERVAL" env-default:"2s"`
}

// URL renders the settings as a postgres:// connection string.
func (c PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

type RedisConfig struct {
	// ConnectionString enables the read cache and the shared rate limit store.
	ConnectionString string        `env:"REDIS_CONNECTION_STRING"`
	CacheTTL         time.Duration `env:"CACHE_TTL" env-default:"30s"`
}

type RateLimitConfig struct {
	Window time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"15m"`
	Max    int           `env:"RATE_LIMIT_MAX" env-default:"100"`
}

// Production reports whether the server runs with production defaults.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// AllowedOrigins is the CORS allow list. A nil result allows every origin.
func (c *Config) AllowedOrigins() []string {
	if len(c.CORSOrigins) > 0 {
		return c.CORSOrigins
	}
	if c.Production() {
		return []string{"http://localhost:3000", "http://gtd-app:80"}
	}
	return nil
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid PORT %d", c.Port)
	case c.RateLimit.Max <= 0:
		return errors.New("RATE_LIMIT_MAX must be positive")
	case c.RateLimit.Window <= 0:
		return errors.New("RATE_LIMIT_WINDOW must be positive")
	case c.Postgres.WaitRetries <= 0:
		return errors.New("DB_WAIT_RETRIES must be positive")
	}
	return nil
}
