// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the get-tip server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"gettip/config"
	"gettip/internal/core"
	"gettip/internal/observability"
	"gettip/internal/providers/gemini"
	"gettip/internal/relay"
	"gettip/internal/server"
)

// App represents the main application with all its dependencies.
type App struct {
	config *config.Config
	logger *slog.Logger
	relay  *relay.Relay
	server *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the configuration options for creating an App.
type Config struct {
	// AppConfig is the configuration produced by config.Load.
	AppConfig *config.Config

	// Logger receives application and access logs (default: slog.Default()).
	Logger *slog.Logger

	// Connector opens Gemini clients (default: gemini.Connect).
	Connector core.Connector
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(cfg Config) (*App, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		config: cfg.AppConfig,
		logger: logger,
		relay:  NewRelay(cfg.AppConfig, logger, cfg.Connector),
	}

	app.logStartupInfo()

	app.server = server.New(app.relay, &server.Config{
		RoutePath:       cfg.AppConfig.Server.RoutePath,
		MetricsEnabled:  cfg.AppConfig.Metrics.Enabled,
		MetricsEndpoint: cfg.AppConfig.Metrics.Endpoint,
		BodySizeLimit:   cfg.AppConfig.Server.BodySizeLimit,
		Logger:          logger,
	})

	return app, nil
}

// NewRelay builds the relay described by cfg. Metrics hooks are attached when
// metrics are enabled. A nil connect uses gemini.Connect.
func NewRelay(cfg *config.Config, logger *slog.Logger, connect core.Connector) *relay.Relay {
	if connect == nil {
		connect = gemini.Connect
	}

	opts := []relay.Option{relay.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		opts = append(opts, relay.WithHooks(observability.NewPrometheusHooks()))
	}

	return relay.New(relay.Config{
		APIKey: cfg.Gemini.APIKey,
		Model:  cfg.Gemini.Model,
	}, connect, opts...)
}

// Handler returns the HTTP handler serving all routes.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	a.logger.Info("starting server", "address", addr, "route", a.config.Server.RoutePath)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			a.logger.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, honoring the context deadline.
// Shutdown is idempotent; after the first call, subsequent calls are no-ops.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	a.logger.Info("shutting down application...")

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("server shutdown error", "error", err)
			return fmt.Errorf("server shutdown: %w", err)
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	if cfg.Gemini.APIKey == "" {
		a.logger.Warn("GEMINI_API_KEY not set - every get-tip request will fail with a configuration error",
			"recommendation", "set GEMINI_API_KEY in the environment or in .env")
	} else {
		a.logger.Info("gemini configured", "model", cfg.Gemini.Model, "key_present", true)
	}

	if cfg.Metrics.Enabled {
		a.logger.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		a.logger.Info("prometheus metrics disabled")
	}
}
