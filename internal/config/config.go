package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	constants "github.com/CodeAndHammer/guessr/internal/constants"
)

const DefaultSecret = "dev-secret-change-me"

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	GinMode  string `env:"GIN_MODE"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	SecretKey  string        `env:"SECRET_KEY" envDefault:"dev-secret-change-me"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"3h"`

	ScoreboardBackend string `env:"SCOREBOARD_BACKEND" envDefault:"json"`
	JSONPath          string `env:"JSON_PATH" envDefault:"/tmp/leaderboard.json"`
	SQLitePath        string `env:"SQLITE_PATH" envDefault:"/tmp/leaderboard.db"`
	AtomicWrites      bool   `env:"SCOREBOARD_ATOMIC_WRITES" envDefault:"true"`

	RateLimitRPS   int           `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	RateLimiterTTL time.Duration `env:"RATE_LIMITER_TTL" envDefault:"1h"`
	CSRFEnabled    bool          `env:"CSRF_ENABLED" envDefault:"true"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.ScoreboardBackend = strings.ToLower(strings.TrimSpace(cfg.ScoreboardBackend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.ScoreboardBackend {
	case constants.BackendJSON, constants.BackendSQLite:
	default:
		return fmt.Errorf("unknown SCOREBOARD_BACKEND %q", c.ScoreboardBackend)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %v", c.SessionTTL)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.GinMode == "release" || c.Env == "production"
}

// StoragePath is the location of the configured scoreboard backend.
func (c Config) StoragePath() string {
	if c.ScoreboardBackend == constants.BackendSQLite {
		return c.SQLitePath
	}
	return c.JSONPath
}

func (c Config) UsesDefaultSecret() bool {
	return c.SecretKey == DefaultSecret
}
