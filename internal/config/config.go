// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone names resolve without system tzdata

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    // HTTP port to listen on
	Env  string // development, staging, production

	// Event cache
	DatabasePath string // Path to SQLite file
	CacheEnabled bool   // Serve ephemeris years from the SQLite cache

	// Authentication
	APIKey string // API key for the batch endpoint

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Conversion
	DefaultTimezone string // IANA name or ±HH:MM used when a request names none
	BatchWorkers    int    // Worker pool size for batch conversion
	MaxBatchSize    int    // Largest accepted batch
	MaxBatchYears   int    // Widest span of query years one batch may cover

	// Rate limiting (per client IP)
	RateLimitRPS   float64 // 0 disables
	RateLimitBurst int
}

// DefaultZone is the query zone used when DEFAULT_TIMEZONE is unset.
const DefaultZone = "Asia/Shanghai"

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// No-op in production where env vars are set directly
	_ = godotenv.Load()

	cfg := &Config{}

	// Server settings
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	// Event cache
	cfg.DatabasePath = getEnv("DATABASE_PATH", "./data/ephemeris.db")
	cfg.CacheEnabled = getEnvBool("CACHE_ENABLED", true)

	// Authentication
	cfg.APIKey = getEnv("API_KEY", "")

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	// Conversion
	cfg.DefaultTimezone = getEnv("DEFAULT_TIMEZONE", DefaultZone)
	cfg.BatchWorkers = getEnvInt("BATCH_WORKERS", 4)
	cfg.MaxBatchSize = getEnvInt("MAX_BATCH_SIZE", 1000)
	cfg.MaxBatchYears = getEnvInt("MAX_BATCH_YEARS", 10)

	// Rate limiting
	cfg.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", 20)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 40)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// QueryZone returns DEFAULT_TIMEZONE, loading .env first as Load does. The
// CLI uses it where the rest of the server configuration does not apply.
func QueryZone() string {
	_ = godotenv.Load()
	return getEnv("DEFAULT_TIMEZONE", DefaultZone)
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// Valid
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	if c.CacheEnabled && c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required when CACHE_ENABLED is true"))
	}

	// API key is required in production
	if c.Env == EnvProduction && c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required in production"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if err := validateZone(c.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEZONE: %w", err))
	}

	if c.BatchWorkers < 1 || c.BatchWorkers > 64 {
		errs = append(errs, fmt.Errorf("BATCH_WORKERS must be between 1 and 64, got %d", c.BatchWorkers))
	}

	if c.MaxBatchSize < 1 {
		errs = append(errs, fmt.Errorf("MAX_BATCH_SIZE must be positive, got %d", c.MaxBatchSize))
	}

	if c.MaxBatchYears < 1 {
		errs = append(errs, fmt.Errorf("MAX_BATCH_YEARS must be positive, got %d", c.MaxBatchYears))
	}

	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %g", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when rate limiting, got %d", c.RateLimitBurst))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// validateZone accepts what calendar.ParseZone accepts. Offsets are checked
// loosely here; the calendar package owns the exact grammar.
func validateZone(name string) error {
	if name == "" {
		return errors.New("must not be empty")
	}
	if strings.HasPrefix(name, "+") || strings.HasPrefix(name, "-") {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return err
	}
	return nil
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
