// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server reads at startup.
type Config struct {
	Port        int           `env:"PORT"           envDefault:"8080"`
	DBPath      string        `env:"DB_PATH"        envDefault:"./data/housemates.db"`
	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"      envDefault:"24h"`
	LogLevel    string        `env:"LOG_LEVEL"      envDefault:"info"`
	MetricsPath string        `env:"METRICS_PATH"   envDefault:"/metrics"`

	// MaxGroupSize caps members per group. The settle-up search grows
	// exponentially; at 10 members the worst case runs in about 100ms.
	MaxGroupSize int `env:"MAX_GROUP_SIZE" envDefault:"10"`

	// SettleTimeout bounds one settle-up or balance preview computation.
	SettleTimeout time.Duration `env:"SETTLE_TIMEOUT" envDefault:"2s"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.SettleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SETTLE_TIMEOUT must be positive, got %s", c.SettleTimeout))
	}
	if c.MaxGroupSize < 1 {
		errs = append(errs, fmt.Errorf("MAX_GROUP_SIZE must be at least 1, got %d", c.MaxGroupSize))
	}
	if c.MetricsPath == "" || c.MetricsPath[0] != '/' {
		errs = append(errs, fmt.Errorf("METRICS_PATH %q must start with /", c.MetricsPath))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
