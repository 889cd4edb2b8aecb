package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port             string
	AllowedOrigins   []string
	LogLevel         string
	Environment      string
	RedisURL         string // optional; history archive falls back to memory
	ServeFrontend    bool
	StaticDir        string
	HistoryLimit     int // records served per history request
	DefaultDuration  int // poll duration in seconds when the payload has none
	ShutdownDeadline int // seconds granted to graceful shutdown
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "4000"),
		AllowedOrigins:   parseOrigins(getEnv("ALLOWED_ORIGINS", "*")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Environment:      getEnv("ENVIRONMENT", "production"),
		RedisURL:         getEnv("REDIS_URL", ""),
		ServeFrontend:    getBoolEnv("SERVE_FRONTEND", false),
		StaticDir:        getEnv("STATIC_DIR", "dist"),
		HistoryLimit:     getIntEnv("HISTORY_LIMIT", 50),
		DefaultDuration:  getIntEnv("DEFAULT_POLL_DURATION", 60),
		ShutdownDeadline: getIntEnv("SHUTDOWN_DEADLINE", 25),
	}, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
