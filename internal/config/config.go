// Package config loads runtime settings from the environment with the
// COLLABHUB_ prefix. A .env file in the working directory is loaded first if
// present, so local development does not need exported variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "COLLABHUB"

// Config holds every tunable the process reads at startup. Variable names
// derive from the field path: COLLABHUB_HTTP_PORT, COLLABHUB_DATABASE_PATH,
// COLLABHUB_SESSION_SECRET and so on.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Session   SessionConfig
	WebSocket WebSocketConfig
	Poller    PollerConfig
}

type HTTPConfig struct {
	Host            string        `default:"0.0.0.0" validate:"required"`
	Port            int           `default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `split_words:"true" default:"30s" validate:"gt=0"`
	WriteTimeout    time.Duration `split_words:"true" default:"30s" validate:"gt=0"`
	ShutdownTimeout time.Duration `split_words:"true" default:"30s" validate:"gt=0"`
}

type DatabaseConfig struct {
	Path            string        `default:"./data/collabhub.db" validate:"required"`
	MaxConnections  int           `split_words:"true" default:"10" validate:"gte=1"`
	ConnMaxLifetime time.Duration `split_words:"true" default:"1h" validate:"gt=0"`
	ConnMaxIdleTime time.Duration `split_words:"true" default:"10m" validate:"gt=0"`
}

type SessionConfig struct {
	// Secret signs and verifies session tokens; it must match the identity
	// provider's signing key.
	Secret string `validate:"required,min=16"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `split_words:"true" default:"30s" validate:"gt=0"`
	ReadTimeout  time.Duration `split_words:"true" default:"60s" validate:"gt=0"`
	WriteTimeout time.Duration `split_words:"true" default:"5s" validate:"gt=0"`
	BufferSize   int           `split_words:"true" default:"100" validate:"gte=1"`
}

type PollerConfig struct {
	Interval time.Duration `default:"2s" validate:"gt=0"`
	Lookback time.Duration `default:"5s" validate:"gt=0"`
	Limit    int           `default:"10" validate:"gte=1"`
}

// Load reads .env (if present), then the environment, then validates the
// result. The look-back window must cover at least one poll interval or
// messages could fall between ticks.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Poller.Lookback < cfg.Poller.Interval {
		return nil, fmt.Errorf("invalid configuration: poller lookback %s shorter than interval %s", cfg.Poller.Lookback, cfg.Poller.Interval)
	}

	return &cfg, nil
}

// ListenAddr formats the HTTP bind address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}
