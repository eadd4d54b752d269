// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database (optional, uses in-memory archive if not set)
	DatabaseURL string

	// Scoring
	FraudThreshold float64 // risk score at or above which a transaction is flagged
	ModelVersion   string  // version tag stamped on every result

	// Velocity tracking
	VelocityWindow time.Duration // sliding window for per-user transaction counts
	VelocityMax    int           // transactions per window considered normal

	// Anomaly model collaborator (optional, blending disabled if not set)
	AnomalyModelURL string
	AnomalyTimeout  time.Duration

	// Rate limiting
	RateLimitRPM int

	// Tracing (optional)
	OTLPEndpoint string
}

// Defaults
const (
	DefaultPort           = "8000"
	DefaultEnv            = "development"
	DefaultLogLevel       = "info"
	DefaultThreshold      = 0.7
	DefaultModelVersion   = "1.0.0"
	DefaultWindowSeconds  = 60
	DefaultVelocityMax    = 3
	DefaultAnomalyTimeout = 500 * time.Millisecond
	DefaultRateLimit      = 120
)

// Load reads configuration from environment variables.
// It loads .env file if present (for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", DefaultPort),
		Env:             getEnv("ENV", DefaultEnv),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		FraudThreshold:  getEnvFloat("FRAUD_THRESHOLD", DefaultThreshold),
		ModelVersion:    getEnv("MODEL_VERSION", DefaultModelVersion),
		VelocityWindow:  time.Duration(getEnvInt("VELOCITY_WINDOW_SECONDS", DefaultWindowSeconds)) * time.Second,
		VelocityMax:     int(getEnvInt("VELOCITY_MAX_TRANSACTIONS", DefaultVelocityMax)),
		AnomalyModelURL: os.Getenv("ANOMALY_MODEL_URL"),
		AnomalyTimeout:  time.Duration(getEnvInt("ANOMALY_TIMEOUT_MS", int64(DefaultAnomalyTimeout/time.Millisecond))) * time.Millisecond,
		RateLimitRPM:    int(getEnvInt("RATE_LIMIT_RPM", DefaultRateLimit)),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent
func (c *Config) Validate() error {
	if c.FraudThreshold < 0 || c.FraudThreshold > 1 {
		return fmt.Errorf("FRAUD_THRESHOLD must be in [0,1], got %v", c.FraudThreshold)
	}
	if c.VelocityWindow <= 0 {
		return fmt.Errorf("VELOCITY_WINDOW_SECONDS must be positive")
	}
	if c.VelocityMax <= 0 {
		return fmt.Errorf("VELOCITY_MAX_TRANSACTIONS must be positive")
	}
	if c.AnomalyTimeout <= 0 {
		return fmt.Errorf("ANOMALY_TIMEOUT_MS must be positive")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
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
