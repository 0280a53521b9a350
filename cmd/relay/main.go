package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aashari/go-selection-relay/internal/app"
	"github.com/aashari/go-selection-relay/internal/config"
	"github.com/aashari/go-selection-relay/internal/logger"
)

func main() {
	// .env has to be loaded before the logger reads LOG_LEVEL and friends
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("FATAL: Invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitFromEnv(); err != nil {
		_, _ = os.Stderr.WriteString("FATAL: Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	application.Start(ctx)

	srv := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      application.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RelayTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
	}()

	logger.Info("Server starting", "address", cfg.ListenAddress)
	logger.Info("Swagger documentation available", "url", "http://"+cfg.ListenAddress+"/swagger/index.html")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}

	if err := application.Close(); err != nil {
		logger.Error("Failed to close application", "error", err)
	}
	logger.Info("Server stopped")
}
