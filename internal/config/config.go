// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the food-findr service.
type Config struct {
	Port              string
	DatabaseURL       string
	RedisURL          string
	FoursquareAPIKey  string
	FoursquareBaseURL string // override for tests, empty means the public API
	SyncIntervalHours int    // how often the sync cron fires
	LogFile           string
}

// Load reads environment variables and returns a validated Config.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	interval := 24
	if s := os.Getenv("SYNC_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SYNC_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "logs/foodfindr.log"
	}

	return &Config{
		Port:              port,
		DatabaseURL:       dbURL,
		RedisURL:          redisURL,
		FoursquareAPIKey:  os.Getenv("FSQ_API_KEY"),
		FoursquareBaseURL: os.Getenv("FSQ_BASE_URL"),
		SyncIntervalHours: interval,
		LogFile:           logFile,
	}, nil
}
