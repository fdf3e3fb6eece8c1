// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; when empty the server runs on in-memory stores.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// PairCodeTTL is the pairing code lifetime (e.g. "5m").
	PairCodeTTL string `mapstructure:"PAIR_CODE_TTL"`
	// PairCodeLength is the number of characters in a pairing code (4 to 16); default 6.
	PairCodeLength int `mapstructure:"PAIR_CODE_LENGTH"`
	// PairCodeMaxAttempts is the collision-retry budget when generating a code; default 10.
	PairCodeMaxAttempts int `mapstructure:"PAIR_CODE_MAX_ATTEMPTS"`
	// CodeSweepInterval is how often expired codes are reclaimed from storage (e.g. "1m"). "0" disables the sweeper.
	CodeSweepInterval string `mapstructure:"CODE_SWEEP_INTERVAL"`
	// OTLPEndpoint is the OTLP gRPC endpoint for traces/metrics (e.g. http://localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zap log level ("debug", "info", "warn", "error"); default info.
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("PAIR_CODE_TTL", "5m")
	v.SetDefault("PAIR_CODE_LENGTH", 6)
	v.SetDefault("PAIR_CODE_MAX_ATTEMPTS", 10)
	v.SetDefault("CODE_SWEEP_INTERVAL", "1m")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.PairCodeLength == 0 {
		cfg.PairCodeLength = 6
	}
	if cfg.PairCodeLength < 4 || cfg.PairCodeLength > 16 {
		return nil, errors.New("config: PAIR_CODE_LENGTH must be between 4 and 16")
	}

	if cfg.PairCodeMaxAttempts == 0 {
		cfg.PairCodeMaxAttempts = 10
	}
	if cfg.PairCodeMaxAttempts < 1 {
		return nil, errors.New("config: PAIR_CODE_MAX_ATTEMPTS must be positive")
	}

	return &cfg, nil
}

// CodeTTL parses PairCodeTTL as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) CodeTTL() time.Duration {
	d, err := time.ParseDuration(c.PairCodeTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// SweepInterval parses CodeSweepInterval as a time.Duration.
// Returns 0 (sweeper disabled) if unset, "0", or invalid.
func (c *Config) SweepInterval() time.Duration {
	d, err := time.ParseDuration(c.CodeSweepInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
