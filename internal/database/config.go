package database

import (
	"fmt"
	"os"
	"strings"
)

// DatabaseConfig holds MongoDB connection configuration
type DatabaseConfig struct {
	// MongoDB connection URI (includes all connection details including auth)
	URI string
	// The current environment (local, development, production, or test)
	Environment string
	// Database name based on environment and service name
	DatabaseName string
	// Application name for MongoDB connection
	AppName string
	// Profile is the settings document id, one per user profile
	Profile string
}

// GetDatabaseConfig retrieves the MongoDB configuration from environment variables.
// The database name is derived from the environment and service name.
func GetDatabaseConfig() *DatabaseConfig {
	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if environment == "" {
		environment = "development"
	}

	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "go-selection-relay"
	}

	var envPrefix string
	switch environment {
	case "production", "prod":
		envPrefix = "prod"
		environment = "production"
	case "local":
		envPrefix = "loc"
	case "test":
		envPrefix = "test"
	default:
		envPrefix = "dev"
		environment = "development"
	}

	// {env-prefix}-{service-name}
	dbServiceName := strings.ReplaceAll(serviceName, "_", "-")
	dbServiceName = strings.TrimPrefix(dbServiceName, "go-")
	databaseName := fmt.Sprintf("%s-%s", envPrefix, dbServiceName)

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	profile := os.Getenv("SETTINGS_PROFILE")
	if profile == "" {
		profile = "default"
	}

	return &DatabaseConfig{
		URI:          uri,
		Environment:  environment,
		DatabaseName: databaseName,
		AppName:      serviceName,
		Profile:      profile,
	}
}

// MaskSensitiveData returns a copy of the config with sensitive data masked for logging
func (c *DatabaseConfig) MaskSensitiveData() *DatabaseConfig {
	masked := *c
	if strings.Contains(masked.URI, "@") {
		parts := strings.Split(masked.URI, "@")
		credsPart := strings.Split(parts[0], "//")
		if len(credsPart) >= 2 {
			masked.URI = credsPart[0] + "//***:***@" + strings.Join(parts[1:], "@")
		}
	}
	return &masked
}
