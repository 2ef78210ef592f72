// Package config loads environment driven configuration for the workforce
// attendance service, following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all service configuration. Fields are populated from
// environment variables prefixed WORKFORCE_.
type Config struct {
	HTTPPort  int    `env:"WORKFORCE_HTTP_PORT" envDefault:"8080"`
	SQLiteDSN string `env:"WORKFORCE_SQLITE_DSN" envDefault:"file:workforce.db?_foreign_keys=on"`

	// Session lifecycle
	SessionTTL           time.Duration `env:"WORKFORCE_SESSION_TTL" envDefault:"12h"`
	SessionSweepInterval time.Duration `env:"WORKFORCE_SESSION_SWEEP_INTERVAL" envDefault:"1h"`

	// Root administrator seeded at startup when the directory is empty.
	RootAdminEmail    string `env:"WORKFORCE_ROOT_ADMIN_EMAIL" envDefault:"admin@example.com"`
	RootAdminName     string `env:"WORKFORCE_ROOT_ADMIN_NAME" envDefault:"システム管理者"`
	RootAdminPassword string `env:"WORKFORCE_ROOT_ADMIN_PASSWORD,required"`

	// Logging
	LogLevel  string `env:"WORKFORCE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"WORKFORCE_LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"WORKFORCE_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WORKFORCE_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"WORKFORCE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load parses environment variables and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("WORKFORCE_HTTP_PORT must be a valid port, got %d", c.HTTPPort)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("WORKFORCE_SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("WORKFORCE_SESSION_SWEEP_INTERVAL must be positive, got %s", c.SessionSweepInterval)
	}
	if len(c.RootAdminPassword) < 8 {
		return fmt.Errorf("WORKFORCE_ROOT_ADMIN_PASSWORD must be at least 8 characters")
	}
	return nil
}
