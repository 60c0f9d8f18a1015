// Package config loads the process configuration from environment variables,
// optionally seeded from a .env file for local runs.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
)

// Environment names the deployment environment a process runs in.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Valid reports whether the environment is one of the known values.
func (e Environment) Valid() bool {
	switch e {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return true
	}
	return false
}

// RedisConfig configures the optional Redis session backend. Leaving URL
// empty selects the in-memory store.
type RedisConfig struct {
	URL          string `split_words:"true"`
	ReadTimeout  int    `split_words:"true" default:"3"`
	WriteTimeout int    `split_words:"true" default:"5"`
	DialTimeout  int    `split_words:"true" default:"5"`
}

// Client builds a Redis client from the config.
func (r RedisConfig) Client() (*redis.Client, error) {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.ReadTimeout = time.Duration(r.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(r.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(r.DialTimeout) * time.Second

	return redis.NewClient(opts), nil
}

// Config defines all configurable parameters for the router process, sourced
// from environment variables under the CAMPUSMESH_ prefix.
type Config struct {
	Environment Environment `default:"development"`
	LogLevel    string      `split_words:"true" default:"info"`

	// DataBaseURL is the base URL of the school data API serving the table
	// endpoints. Empty disables the built-in handler catalog.
	DataBaseURL string `split_words:"true"`
	// FetchLimit is the default page size requested from data endpoints.
	FetchLimit int `split_words:"true" default:"20"`
	// FallbackMode overrides the handler used when no routing signal matches.
	FallbackMode string `split_words:"true" default:"students"`

	// SessionTTL is the sliding expiry for Redis-backed sessions.
	SessionTTL time.Duration `split_words:"true" default:"30m"`

	Redis RedisConfig

	// OpenAIAPIKey / AnthropicAPIKey enable the respective model adapters.
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
}

// Load reads .env (when present) and processes the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("campusmesh", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if !cfg.Environment.Valid() {
		return nil, fmt.Errorf("unknown environment %q", cfg.Environment)
	}
	if cfg.FetchLimit <= 0 {
		return nil, fmt.Errorf("fetch limit must be positive, got %d", cfg.FetchLimit)
	}

	return &cfg, nil
}
