package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings, read from the environment. A .env
// file is loaded in main before this runs.
type Config struct {
	Port      string
	LogLevel  string
	LogPretty bool

	// Storage: "sqlite" (default) or "postgres"
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Trade worker pool size
	NumWorkers int

	// Upper bound on a single oracle call
	OracleTimeout time.Duration

	// Cron spec for the quote-cache warmup job; empty disables it
	QuoteRefresh string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", true),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "data/app.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5433"),
		DBUser:     getEnv("DB_USER", "trader"),
		DBPassword: getEnv("DB_PASSWORD", "trading123"),
		DBName:     getEnv("DB_NAME", "trading_db"),

		NumWorkers:    getEnvInt("NUM_WORKERS", 5),
		OracleTimeout: getEnvDuration("ORACLE_TIMEOUT", 5*time.Second),
		QuoteRefresh:  getEnv("QUOTE_REFRESH", "@every 1m"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
