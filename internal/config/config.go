// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"schulte/internal/session"
)

// Config holds every tunable of the server and the engines it hosts.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	Env     string `env:"ENV" envDefault:"development"`
	GinMode string `env:"GIN_MODE"`

	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"2h"`
	CookieMaxAge   time.Duration `env:"COOKIE_MAX_AGE" envDefault:"2h"`
	StaticCacheAge time.Duration `env:"STATIC_CACHE_AGE" envDefault:"5m"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`

	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"40"`

	DefaultRows int          `env:"DEFAULT_ROWS" envDefault:"4"`
	DefaultCols int          `env:"DEFAULT_COLS" envDefault:"4"`
	MaxRows     int          `env:"MAX_ROWS" envDefault:"10"`
	MaxCols     int          `env:"MAX_COLS" envDefault:"10"`
	DefaultMode session.Mode `env:"DEFAULT_MODE" envDefault:"hover_game"`

	// TickInterval drives the engine's elapsed clock; StreamInterval throttles
	// how often elapsed updates are forwarded to event streams.
	TickInterval   time.Duration `env:"TICK_INTERVAL" envDefault:"10ms"`
	StreamInterval time.Duration `env:"STREAM_INTERVAL" envDefault:"100ms"`
	EventBuffer    int           `env:"EVENT_BUFFER" envDefault:"64"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
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

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.MaxRows < 1 || c.MaxCols < 1:
		return fmt.Errorf("config: MAX_ROWS and MAX_COLS must be positive, got %dx%d", c.MaxRows, c.MaxCols)
	case c.DefaultRows < 1 || c.DefaultRows > c.MaxRows || c.DefaultCols < 1 || c.DefaultCols > c.MaxCols:
		return fmt.Errorf("config: default grid %dx%d outside 1..%dx1..%d", c.DefaultRows, c.DefaultCols, c.MaxRows, c.MaxCols)
	case c.TickInterval <= 0 || c.StreamInterval <= 0 || c.SweepInterval <= 0:
		return fmt.Errorf("config: TICK_INTERVAL, STREAM_INTERVAL and SWEEP_INTERVAL must be positive")
	case c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0:
		return fmt.Errorf("config: rate limits must be positive")
	case c.EventBuffer <= 0:
		return fmt.Errorf("config: EVENT_BUFFER must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in release mode.
func (c Config) IsProduction() bool {
	return c.GinMode == "release" || c.Env == "production"
}
