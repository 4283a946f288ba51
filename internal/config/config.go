// internal/config/config.go
//
// Runtime configuration for both front ends.
// Values come from the process environment; a `.env` file in the working
// directory is loaded first (development convenience, missing file is fine).
//
// Environment variables:
//   PORT                    HTTP listen port (default 5175)
//   LOG_LEVEL               zerolog level name (default info)
//   LOG_FILE                terminal front end log file (default: discard)
//   STORE_DRIVER            "memory" | "sqlite" (default memory)
//   STORE_DSN               SQLite DSN (default shared in-memory database)
//   TOKEN_SECRET            HMAC key for session tokens
//   SESSION_TTL             idle time before a session is swept (default 2h)
//   RATE_LIMIT_RPS/BURST    per-client POST limits (default 5/10)
//   CLIENT_ORIGIN           allowed CORS / WebSocket origin
//   GUESS_SEED              optional seed for reproducible targets
//   REVEAL_DELAY_CORRECT    pause before the next round after a win (350ms)
//   REVEAL_DELAY_EXHAUSTED  pause before the next round after a loss (500ms)

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the parsed environment.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	StoreDSN    string `env:"STORE_DSN" envDefault:"file:guess?mode=memory&cache=shared"`

	TokenSecret string        `env:"TOKEN_SECRET" envDefault:"dev_secret_change_me"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"2h"`

	RateLimitRPS   int    `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int    `env:"RATE_LIMIT_BURST" envDefault:"10"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	Seed string `env:"GUESS_SEED"`

	RevealCorrect   time.Duration `env:"REVEAL_DELAY_CORRECT" envDefault:"350ms"`
	RevealExhausted time.Duration `env:"REVEAL_DELAY_EXHAUSTED" envDefault:"500ms"`
}

// Load reads `.env` (if present) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse parses the current environment without touching `.env`.
func Parse() (Config, error) {
	return parseFrom(env.ToMap(os.Environ()))
}

// parseFrom parses vars as the complete environment.
func parseFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("config: rate limits must be positive")
	}
	if c.RevealCorrect < 0 || c.RevealExhausted < 0 {
		return fmt.Errorf("config: reveal delays must not be negative")
	}
	return nil
}
