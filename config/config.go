// Package config loads service configuration from the environment
package config

import (
	"fmt"
	"time"

	"github.com/aneshas/bankaccount/eventstore"
	"github.com/caarlos0/env/v11"
	"gorm.io/gorm"
)

// Config represents bank service configuration
type Config struct {
	HTTPAddr     string        `env:"BANK_HTTP_ADDR" envDefault:":8080"`
	SQLitePath   string        `env:"BANK_SQLITE_PATH"`
	PostgresDSN  string        `env:"BANK_POSTGRES_DSN"`
	PollInterval time.Duration `env:"BANK_POLL_INTERVAL" envDefault:"100ms"`
	BatchSize    int           `env:"BANK_BATCH_SIZE" envDefault:"100"`

	// Credentials ambar uses to push projected events (basic auth).
	// The ambar endpoint is disabled when unset
	AmbarUser     string `env:"BANK_AMBAR_USER"`
	AmbarPassword string `env:"BANK_AMBAR_PASSWORD"`

	// LogReplay logs every event folded while loading an account
	LogReplay bool `env:"BANK_LOG_REPLAY" envDefault:"false"`
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	var cfg Config

	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.SQLitePath == "" && cfg.PostgresDSN == "" {
		cfg.SQLitePath = "bank.db"
	}

	if cfg.SQLitePath != "" && cfg.PostgresDSN != "" {
		return Config{}, fmt.Errorf("only one of BANK_SQLITE_PATH and BANK_POSTGRES_DSN can be set")
	}

	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// Database returns the event store database: postgres if a dsn is set,
// sqlite otherwise
func (c Config) Database() gorm.Dialector {
	if c.PostgresDSN != "" {
		return eventstore.Postgres(c.PostgresDSN)
	}

	return eventstore.SQLite(c.SQLitePath)
}

// AmbarEnabled reports whether ambar push projections are configured
func (c Config) AmbarEnabled() bool {
	return c.AmbarUser != "" && c.AmbarPassword != ""
}
