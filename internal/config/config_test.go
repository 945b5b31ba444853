package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvDevelopment)
	}
	if cfg.DatabasePath != "./data/ephemeris.db" || !cfg.CacheEnabled {
		t.Errorf("cache = %q enabled=%v", cfg.DatabasePath, cfg.CacheEnabled)
	}
	if cfg.DefaultTimezone != "Asia/Shanghai" {
		t.Errorf("DefaultTimezone = %q", cfg.DefaultTimezone)
	}
	if cfg.BatchWorkers != 4 || cfg.MaxBatchSize != 1000 || cfg.MaxBatchYears != 10 {
		t.Errorf("batch = %d workers, max %d over %d years", cfg.BatchWorkers, cfg.MaxBatchSize, cfg.MaxBatchYears)
	}
	if cfg.RateLimitRPS != 20 || cfg.RateLimitBurst != 40 {
		t.Errorf("rate limit = %g/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)

	t.Setenv("PORT", "3000")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_PATH", "/data/test.db")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("API_KEY", "secret-key-123")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("DEFAULT_TIMEZONE", "+09:00")
	t.Setenv("BATCH_WORKERS", "16")
	t.Setenv("MAX_BATCH_SIZE", "50")
	t.Setenv("MAX_BATCH_YEARS", "3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvProduction)
	}
	if cfg.DatabasePath != "/data/test.db" || cfg.CacheEnabled {
		t.Errorf("cache = %q enabled=%v", cfg.DatabasePath, cfg.CacheEnabled)
	}
	if cfg.APIKey != "secret-key-123" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.DefaultTimezone != "+09:00" {
		t.Errorf("DefaultTimezone = %q", cfg.DefaultTimezone)
	}
	if cfg.BatchWorkers != 16 || cfg.MaxBatchSize != 50 || cfg.MaxBatchYears != 3 {
		t.Errorf("batch = %d workers, max %d over %d years", cfg.BatchWorkers, cfg.MaxBatchSize, cfg.MaxBatchYears)
	}
	if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != 5 {
		t.Errorf("rate limit = %g/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("BATCH_WORKERS", "0")

	if _, err := Load(); err == nil {
		t.Error("Load() with BATCH_WORKERS=0 succeeded")
	}
}

// validConfig returns a configuration that passes Validate.
func validConfig() Config {
	return Config{
		Port:            8080,
		Env:             EnvDevelopment,
		DatabasePath:    "./data/test.db",
		CacheEnabled:    true,
		LogLevel:        "info",
		LogFormat:       "text",
		DefaultTimezone: "Asia/Shanghai",
		BatchWorkers:    4,
		MaxBatchSize:    100,
		MaxBatchYears:   10,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
	}
}

func TestQueryZone(t *testing.T) {
	clearEnv(t)
	if got := QueryZone(); got != DefaultZone {
		t.Errorf("QueryZone() = %q, want %q", got, DefaultZone)
	}

	t.Setenv("DEFAULT_TIMEZONE", "Europe/Paris")
	if got := QueryZone(); got != "Europe/Paris" {
		t.Errorf("QueryZone() = %q, want Europe/Paris", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid development config", func(*Config) {}, false},
		{"valid production config", func(c *Config) { c.Env = EnvProduction; c.APIKey = "k" }, false},
		{"production requires API key", func(c *Config) { c.Env = EnvProduction }, true},
		{"invalid port - too low", func(c *Config) { c.Port = 0 }, true},
		{"invalid port - too high", func(c *Config) { c.Port = 70000 }, true},
		{"invalid environment", func(c *Config) { c.Env = "invalid" }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"invalid log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"empty database path with cache", func(c *Config) { c.DatabasePath = "" }, true},
		{"empty database path without cache", func(c *Config) { c.DatabasePath = ""; c.CacheEnabled = false }, false},
		{"unknown time zone", func(c *Config) { c.DefaultTimezone = "Mars/Olympus" }, true},
		{"offset time zone", func(c *Config) { c.DefaultTimezone = "-05:00" }, false},
		{"too many workers", func(c *Config) { c.BatchWorkers = 65 }, true},
		{"zero batch size", func(c *Config) { c.MaxBatchSize = 0 }, true},
		{"zero batch years", func(c *Config) { c.MaxBatchYears = 0 }, true},
		{"negative rate", func(c *Config) { c.RateLimitRPS = -1 }, true},
		{"rate limit without burst", func(c *Config) { c.RateLimitBurst = 0 }, true},
		{"rate limit disabled", func(c *Config) { c.RateLimitRPS = 0; c.RateLimitBurst = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: EnvDevelopment}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}

	cfg.Env = EnvProduction
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"PORT", "ENV", "DATABASE_PATH", "CACHE_ENABLED", "API_KEY",
		"LOG_LEVEL", "LOG_FORMAT", "DEFAULT_TIMEZONE", "BATCH_WORKERS",
		"MAX_BATCH_SIZE", "MAX_BATCH_YEARS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}
