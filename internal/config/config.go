package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Pricing  PricingConfig
	Exchange ExchangeConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// PricingConfig holds price-resolution configuration.
// ReferenceCurrency is the currency all valuations are normalized to.
// Freshness bounds external call volume: a cached non-zero price younger
// than the window is never re-fetched.
type PricingConfig struct {
	ReferenceCurrency string
	Freshness         time.Duration
}

// ExchangeConfig holds exchange-integration configuration.
// FernetKey encrypts API secrets at rest. SyncSchedule is a cron
// expression for the periodic pull of exchange data.
type ExchangeConfig struct {
	FernetKey    string
	SyncSchedule string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	freshnessMinutes, err := strconv.Atoi(getEnv("PRICE_FRESHNESS_MINUTES", "30"))
	if err != nil || freshnessMinutes <= 0 {
		return nil, fmt.Errorf("invalid PRICE_FRESHNESS_MINUTES: %q", getEnv("PRICE_FRESHNESS_MINUTES", "30"))
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/kryptotracker.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Pricing: PricingConfig{
			ReferenceCurrency: getEnv("REFERENCE_CURRENCY", "EUR"),
			Freshness:         time.Duration(freshnessMinutes) * time.Minute,
		},
		Exchange: ExchangeConfig{
			FernetKey:    getEnv("FERNET_KEY", ""),
			SyncSchedule: getEnv("EXCHANGE_SYNC_SCHEDULE", "@every 1h"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
