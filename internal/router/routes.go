package router

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/aashari/go-selection-relay/internal/channel"
	"github.com/aashari/go-selection-relay/internal/handlers"
	"github.com/aashari/go-selection-relay/internal/health"
	"github.com/aashari/go-selection-relay/internal/monitoring"

	// Registers the swagger document served under /swagger/
	_ "github.com/aashari/go-selection-relay/docs"
)

// Options toggles optional routes
type Options struct {
	EnablePprof bool
}

// SetupRoutes configures all routes for the application
func SetupRoutes(apiHandlers *handlers.APIHandlers, checker *health.HealthChecker, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", health.Handler(checker))
	mux.HandleFunc(channel.MessagesPath, apiHandlers.MessagesHandler)
	mux.HandleFunc("/v1/settings", apiHandlers.SettingsHandler)
	mux.HandleFunc("/metrics", monitoring.MetricsHandler)

	if opts.EnablePprof {
		monitoring.SetupPprofRoutes(mux)
	}

	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	return monitoring.MetricsMiddleware(mux)
}
