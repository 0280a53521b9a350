package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvDuration gets a duration from environment variable with a default fallback.
// Plain integers are read as seconds, anything else goes through time.ParseDuration.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

// GetEnvString gets a string from environment variable with a default fallback
func GetEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt64 gets an int64 from environment variable with a default fallback
func GetEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvBool gets a boolean from environment variable with a default fallback
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// IsProduction checks if the application is running in production mode
func IsProduction() bool {
	env := strings.ToLower(GetEnvString("ENVIRONMENT", "development"))
	return env == "production" || env == "prod"
}
