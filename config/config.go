package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrParsingConfig = errors.New("failed to parse configuration")

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	AppURL     string `env:"APP_URL" envDefault:"http://localhost:5173"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`
	GinMode    string `env:"GIN_MODE"`

	DBURL     string `env:"DB_URL,required,notEmpty"`
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY,required,notEmpty"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	RedisURL       string        `env:"REDIS_URL"`
	ConfigCacheTTL time.Duration `env:"CONFIG_CACHE_TTL" envDefault:"5m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Upper bound for how far ahead a subscription can be paused.
	MaxPauseDays int `env:"MAX_PAUSE_DAYS" envDefault:"90"`
}

// Parse reads the process environment into a Config. The .env file is optional.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	if cfg.MaxPauseDays <= 0 {
		return nil, fmt.Errorf("%w: MAX_PAUSE_DAYS must be positive, got %d", ErrParsingConfig, cfg.MaxPauseDays)
	}
	return &cfg, nil
}

// LoadEnv is Parse for process startup: a missing required variable is fatal.
func LoadEnv() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}
