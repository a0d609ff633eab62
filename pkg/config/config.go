// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Database. DatabaseURL selects PostgreSQL; when empty the embedded
	// SQLite database at SQLitePath is used.
	DatabaseURL      string
	SQLitePath       string
	DatabaseMaxConns int

	// Redis, used for distributed billing locks. Empty means in-process
	// locking only.
	RedisURL string

	// RabbitMQ, used for domain event publishing. Empty disables publishing.
	RabbitMQURL string

	// Billing
	BillingSchedule   string
	BillingWorkers    int
	HistoryCapacity   int
	GatewayChargeRate float64
	GatewayRefundRate float64
	GatewayLatency    time.Duration
	GatewayTimeout    time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("PAYVED_SQLITE_PATH", ""),
		DatabaseMaxConns: getIntEnv("DATABASE_MAX_CONNS", 10),

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		BillingSchedule:   getEnv("BILLING_SCHEDULE", "@every 1m"),
		BillingWorkers:    getIntEnv("BILLING_WORKERS", 1),
		HistoryCapacity:   getIntEnv("HISTORY_CAPACITY", 100),
		GatewayChargeRate: getFloatEnv("GATEWAY_CHARGE_SUCCESS_RATE", 0.9),
		GatewayRefundRate: getFloatEnv("GATEWAY_REFUND_SUCCESS_RATE", 0.95),
		GatewayLatency:    getDurationEnv("GATEWAY_LATENCY", 0),
		GatewayTimeout:    getDurationEnv("GATEWAY_TIMEOUT", 10*time.Second),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
