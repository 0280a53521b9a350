package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads environment variables from a .env file. A missing file is
// not an error; the process environment is used as is.
func LoadEnvFile(envFilePath ...string) error {
	envFile := ".env"
	if len(envFilePath) > 0 && envFilePath[0] != "" {
		envFile = envFilePath[0]
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("error loading %s file: %w", envFile, err)
	}
	return nil
}

// LoadEnvFromMultiplePaths loads the first .env found in the usual places
func LoadEnvFromMultiplePaths() error {
	possiblePaths := []string{
		".env",
		"configs/.env",
		"../.env",
		filepath.Join(os.Getenv("HOME"), ".env"),
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadEnvFile(path)
	}
	return nil
}
