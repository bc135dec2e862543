// Package config loads application settings from environment variables,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Storage
	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool

	// Swap feed
	MoralisAPIKey string
	FeedBaseURL   string
	FeedNetwork   string
	FeedPageLimit int
	FeedMaxPages  int

	// Pricing
	PriceTTL     time.Duration
	QuoteSetPath string

	// Batch runs
	StaleAfter time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string

	cfg.PostgresDSN = getEnv("POSTGRES_DSN", "")
	cfg.ClickhouseDSN = getEnv("CLICKHOUSE_DSN", "")
	cfg.UseMemory = getEnvAsBool("USE_MEMORY", false)
	if !cfg.UseMemory && cfg.PostgresDSN == "" {
		errs = append(errs, "POSTGRES_DSN must be set (or USE_MEMORY=true)")
	}

	cfg.MoralisAPIKey = getEnv("MORALIS_API_KEY", "")
	if cfg.MoralisAPIKey == "" {
		errs = append(errs, "MORALIS_API_KEY must be set")
	}
	cfg.FeedBaseURL = getEnv("FEED_BASE_URL", "")
	cfg.FeedNetwork = getEnv("FEED_NETWORK", "mainnet")

	cfg.FeedPageLimit = getEnvAsInt("FEED_PAGE_LIMIT", 250)
	if cfg.FeedPageLimit <= 0 {
		errs = append(errs, "FEED_PAGE_LIMIT must be positive")
	}
	cfg.FeedMaxPages = getEnvAsInt("FEED_MAX_PAGES", 8)
	if cfg.FeedMaxPages <= 0 {
		errs = append(errs, "FEED_MAX_PAGES must be positive")
	}

	ttlSeconds := getEnvAsInt("PRICE_TTL_SECONDS", 300)
	if ttlSeconds <= 0 {
		errs = append(errs, "PRICE_TTL_SECONDS must be positive")
	}
	cfg.PriceTTL = time.Duration(ttlSeconds) * time.Second
	cfg.QuoteSetPath = getEnv("QUOTE_SET_PATH", "")

	staleDays := getEnvAsInt("STALE_AFTER_DAYS", 30)
	if staleDays <= 0 {
		errs = append(errs, "STALE_AFTER_DAYS must be positive")
	}
	cfg.StaleAfter = time.Duration(staleDays) * 24 * time.Hour

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
