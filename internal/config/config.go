// Package config holds the process level settings of the relay server and
// the agent CLI. Per-user extension settings live in the store instead.
package config

import (
	"strings"
	"time"

	"github.com/aashari/go-selection-relay/internal/imaging"
	"github.com/aashari/go-selection-relay/internal/settings"
	"github.com/aashari/go-selection-relay/internal/utils"
)

// Store backends
const (
	BackendMemory  = "memory"
	BackendMongoDB = "mongodb"
)

// AppConfig is the relay server configuration
type AppConfig struct {
	ListenAddress     string        `json:"listen_address" validate:"required"`
	StoreBackend      string        `json:"store_backend" validate:"required,oneof=memory mongodb"`
	DefaultServiceURL string        `json:"default_service_url" validate:"required,url"`
	RelayTimeout      time.Duration `json:"relay_timeout" validate:"gt=0"`
	MaxImageSize      int64         `json:"max_image_size" validate:"gt=0"`
	BusBuffer         int           `json:"bus_buffer" validate:"gte=0"`
	EnablePprof       bool          `json:"enable_pprof"`
	// RequireAgentUserAgent rejects relay calls from anything but agent clients
	RequireAgentUserAgent bool `json:"require_agent_user_agent"`
}

// Load reads the configuration from .env and the environment and validates it
func Load() (*AppConfig, error) {
	if err := LoadEnvFromMultiplePaths(); err != nil {
		return nil, err
	}

	cfg := FromEnv()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds the configuration from environment variables and defaults
func FromEnv() *AppConfig {
	return &AppConfig{
		ListenAddress:     utils.GetEnvString("LISTEN_ADDRESS", "127.0.0.1:"+utils.GetEnvString("PORT", "8082")),
		StoreBackend:      strings.ToLower(utils.GetEnvString("STORE_BACKEND", BackendMemory)),
		DefaultServiceURL: utils.GetEnvString("DEFAULT_SERVICE_URL", settings.DefaultServiceURL),
		RelayTimeout:      utils.GetEnvDuration("RELAY_TIMEOUT", 60*time.Second),
		MaxImageSize:      utils.GetEnvInt64("MAX_IMAGE_SIZE", imaging.DefaultMaxSize),
		BusBuffer:         int(utils.GetEnvInt64("BUS_BUFFER", 16)),
		EnablePprof:       utils.GetEnvBool("ENABLE_PPROF", false),

		RequireAgentUserAgent: utils.GetEnvBool("REQUIRE_AGENT_USER_AGENT", false),
	}
}
