// Package app wires the relay server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aashari/go-selection-relay/internal/channel"
	"github.com/aashari/go-selection-relay/internal/config"
	"github.com/aashari/go-selection-relay/internal/database"
	"github.com/aashari/go-selection-relay/internal/handlers"
	"github.com/aashari/go-selection-relay/internal/health"
	"github.com/aashari/go-selection-relay/internal/httpclient"
	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/middleware"
	"github.com/aashari/go-selection-relay/internal/monitoring"
	"github.com/aashari/go-selection-relay/internal/relay"
	"github.com/aashari/go-selection-relay/internal/router"
	"github.com/aashari/go-selection-relay/internal/settings"
	"github.com/aashari/go-selection-relay/internal/store"
	"github.com/aashari/go-selection-relay/internal/utils"
)

// App centralizes the application's dependencies and configuration
type App struct {
	Config      *config.AppConfig
	Store       store.Store
	Relay       *relay.Relay
	Bus         *channel.Bus
	APIHandlers *handlers.APIHandlers
	Health      *health.HealthChecker

	conn *database.Connection
}

// NewApp creates a new App instance with all dependencies. With the mongodb
// backend it connects to the database before returning.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	if apiErr := config.Validate(cfg); apiErr != nil {
		return nil, apiErr
	}

	a := &App{Config: cfg, Health: health.NewHealthChecker()}

	switch cfg.StoreBackend {
	case config.BackendMongoDB:
		conn, err := database.Connect(ctx, database.GetDatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to open settings store: %w", err)
		}
		a.conn = conn
		a.Store = database.NewSettingsRepository(conn)
		a.Health.RegisterCheck(health.PingCheck("database", true, conn.HealthCheck))
	default:
		a.Store = store.NewMemory(nil)
	}
	a.Health.RegisterCheck(health.StoreCheck(a.Store, cfg.StoreBackend))

	client := httpclient.NewFactory(httpclient.Options{
		Timeout:   cfg.RelayTimeout,
		UserAgent: utils.ServiceUserAgent,
	}).CreateDefaultClient()

	a.Relay = relay.New(a.Store,
		relay.WithHTTPClient(client),
		relay.WithDefaultURL(cfg.DefaultServiceURL),
		relay.WithRecorder(monitoring.GetMetrics()),
	)
	a.Bus = channel.NewBus(cfg.BusBuffer)
	a.APIHandlers = handlers.NewAPIHandlers(a.Bus, settings.NewEditor(a.Store))

	logger.Info("Application initialized",
		"store_backend", cfg.StoreBackend,
		"default_service_url", cfg.DefaultServiceURL,
		"relay_timeout", cfg.RelayTimeout.String())
	return a, nil
}

// Start serves the message bus with the relay until ctx is done or Close is
// called
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Bus.Serve(ctx, a.Relay); err != nil && ctx.Err() == nil && !errors.Is(err, channel.ErrClosed) {
			logger.Error("Message bus stopped", "error", err)
		}
	}()
}

// SetupRoutes returns the HTTP handler with the middleware chain applied
func (a *App) SetupRoutes() http.Handler {
	var handler http.Handler = router.SetupRoutes(a.APIHandlers, a.Health, router.Options{
		EnablePprof: a.Config.EnablePprof,
	})
	if a.Config.RequireAgentUserAgent {
		handler = middleware.UserAgentFilterMiddleware(handler)
	}
	handler = middleware.RequestCorrelationMiddleware(handler)
	return middleware.CORSMiddleware(handler)
}

// Close stops the bus and releases the database connection
func (a *App) Close() error {
	a.Bus.Close()
	if a.conn != nil {
		return a.conn.Disconnect()
	}
	return nil
}
