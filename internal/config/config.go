// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

type Config struct {
	Env             string        `env:"APP_ENV"          envDefault:"prod"`
	HTTPAddr        string        `env:"HTTP_ADDR"        envDefault:":8080"`
	RedisURL        string        `env:"REDIS_URL"        envDefault:"redis://localhost:6379/0"`
	FrontendURL     string        `env:"FRONTEND_URL"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	Game    Game
	Archive Archive `envPrefix:"ARCHIVE_"`
	Oracle  Oracle  `envPrefix:"ORACLE_"`
}

type Game struct {
	TurnTime  time.Duration `env:"TURN_TIME"      envDefault:"10s"`
	Countdown time.Duration `env:"COUNTDOWN_TIME" envDefault:"3s"`
}

type Archive struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN"    envDefault:"wordlink.db"`
}

type Oracle struct {
	APIKey     string        `env:"API_KEY"`
	BaseURL    string        `env:"BASE_URL"`
	Model      string        `env:"MODEL"       envDefault:"gpt-4o-mini"`
	Timeout    time.Duration `env:"TIMEOUT"     envDefault:"10s"`
	MaxRetries int           `env:"MAX_RETRIES" envDefault:"2"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Parse builds a Config from vars alone, ignoring the process environment.
func Parse(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var err error
	if c.Env != EnvDev && c.Env != EnvProd {
		err = multierr.Append(err, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDev, EnvProd, c.Env))
	}
	if c.Game.TurnTime <= 0 {
		err = multierr.Append(err, errors.New("TURN_TIME must be positive"))
	}
	if c.Game.Countdown < 0 {
		err = multierr.Append(err, errors.New("COUNTDOWN_TIME must not be negative"))
	}
	switch c.Archive.Driver {
	case "postgres", "sqlite":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown ARCHIVE_DRIVER %q", c.Archive.Driver))
	}
	if c.RedisURL == "" {
		err = multierr.Append(err, errors.New("REDIS_URL is required"))
	}
	return err
}

func (c Config) Dev() bool { return c.Env == EnvDev }
