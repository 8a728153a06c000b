// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/breatheroute/aqipredict/internal/database"
)

var validate = validator.New()

// Config holds all process configuration.
type Config struct {
	Port     string `envconfig:"APP_PORT" default:"8080" validate:"required,numeric"`
	Env      string `envconfig:"APP_ENV" default:"development" validate:"oneof=development staging production test"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`

	// ModelPath is read when ModelURL is empty.
	ModelPath string `envconfig:"MODEL_PATH" default:"models/aqi_linear.json" validate:"required_without=ModelURL"`
	ModelURL  string `envconfig:"MODEL_URL" validate:"omitempty,url"`

	FlashSecret string        `envconfig:"FLASH_SECRET"`
	FlashTTL    time.Duration `envconfig:"FLASH_TTL" default:"2m" validate:"gt=0"`

	// AdminSigningKey enables the admin endpoints when set.
	AdminSigningKey string `envconfig:"ADMIN_SIGNING_KEY" validate:"omitempty,min=16"`

	RequireTLS       bool `envconfig:"REQUIRE_TLS" default:"false"`
	PredictRateLimit int  `envconfig:"PREDICT_RATE_LIMIT" default:"30" validate:"gte=1"`

	OTelEnabled     bool    `envconfig:"OTEL_ENABLED" default:"false"`
	OTLPEndpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	OTelSampleRatio float64 `envconfig:"OTEL_SAMPLE_RATIO" default:"1" validate:"gte=0,lte=1"`

	FlagCacheTTL time.Duration `envconfig:"FLAG_CACHE_TTL" default:"1m" validate:"gt=0"`

	DB DBConfig `ignored:"true" validate:"-"`
}

// DBConfig configures the optional Postgres flag store.
type DBConfig struct {
	Host            string        `envconfig:"DB_HOST"`
	Port            int           `envconfig:"DB_PORT" default:"5432" validate:"gte=1,lte=65535"`
	User            string        `envconfig:"DB_USER" default:"aqipredict"`
	Password        string        `envconfig:"DB_PASSWORD"`
	Name            string        `envconfig:"DB_NAME" default:"aqipredict"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"5" validate:"gte=1"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"1" validate:"gte=0"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

// Enabled reports whether a flag store database is configured.
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

// Database converts to the connection settings used by the database package.
func (c DBConfig) Database() database.Config {
	return database.Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Name,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// Level returns the zerolog level for LogLevel.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Load reads a .env file when present, then the environment, and validates.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv reads and validates configuration from the environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("process db env: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.DB.Enabled() {
		if err := validate.Struct(&cfg.DB); err != nil {
			return nil, fmt.Errorf("invalid db config: %w", err)
		}
	}
	return &cfg, nil
}
