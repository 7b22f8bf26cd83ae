// Package config loads process configuration into a single immutable struct.
//
// The struct is built exactly once in main and passed by reference to the
// server — nothing reads the environment after startup, and nothing mutates
// the config afterwards. That keeps the signing secret and token policy in
// one auditable place instead of scattered os.Getenv calls.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	Env    string `env:"ENV" env-default:"development"`
	Port   int    `env:"PORT" env-default:"8080"`
	DBPath string `env:"DB_PATH" env-default:"data/chat.db"`

	// JWTSecret signs every token the process issues. No default: starting
	// without one is a configuration error, not a weaker mode.
	JWTSecret string `env:"JWT_SECRET" env-required:"true"`

	// Two token classes, two TTLs, one signing mechanism.
	LoginTokenTTL time.Duration `env:"LOGIN_TOKEN_TTL" env-default:"30m"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" env-default:"1h"`

	ReadTimeout  time.Duration `env:"READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" env-default:"60s"`
}

// Load reads a local .env file if one exists, then fills the Config from the
// environment. Missing .env is not an error — production supplies real env
// vars and has no file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	return &cfg, nil
}
