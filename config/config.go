// Package config loads application settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration.
// Load it once at startup using Load().
type Config struct {
	// Port is the HTTP listen address, e.g. ":8080".
	Port string

	// StorageBackend selects the auction store: "memory" or "sqlite".
	StorageBackend string

	// DBPath is the SQLite database file used by the sqlite backend.
	DBPath string

	// JWTSecret signs and verifies bearer tokens.
	JWTSecret string

	LogLevel string

	// BidsPerListing is how many recent bids each listing entry carries.
	BidsPerListing int

	// BidRateLimitPerMinute caps mutating requests per user. Zero disables limiting.
	BidRateLimitPerMinute int

	SeedDemoData bool

	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		Port:                  normalizePort(getEnv("PORT", "8080")),
		StorageBackend:        strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		DBPath:                getEnv("DB_PATH", "auction.db"),
		JWTSecret:             getEnv("JWT_SECRET", "dev-secret-change-me"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		BidsPerListing:        getEnvInt("BIDS_PER_LISTING", 3),
		BidRateLimitPerMinute: getEnvInt("BID_RATE_LIMIT_PER_MINUTE", 60),
		SeedDemoData:          getEnvBool("SEED_DEMO_DATA", true),
		ShutdownTimeout:       time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 5)) * time.Second,
	}
}

func normalizePort(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || value < 0 {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
