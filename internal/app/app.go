// Package app initializes and orchestrates the main components of the
// constraint-warden service. It wires together the configuration, server,
// dispatcher and store.
package app

import (
	"fmt"
	"log/slog"

	"github.com/sevigo/constraint-warden/internal/config"
	"github.com/sevigo/constraint-warden/internal/core"
	"github.com/sevigo/constraint-warden/internal/server"
)

// App holds the main application components.
type App struct {
	cfg        *config.Config
	server     *server.Server
	dispatcher core.Dispatcher
	logger     *slog.Logger
}

// NewApp assembles the application. It refuses to start when the hook is
// disabled: the model server only dispatches commit events with webhooks
// enabled, so a disabled hook would serve stale results forever.
func NewApp(cfg *config.Config, srv *server.Server, dispatcher core.Dispatcher, logger *slog.Logger) (*App, error) {
	if !cfg.Hook.Enabled {
		return nil, fmt.Errorf("hook.enabled must be true in order to receive events from the model server")
	}

	return &App{
		cfg:        cfg,
		server:     srv,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// Start runs the HTTP server and blocks until shutdown or error.
func (a *App) Start() error {
	a.logger.Info("starting constraint-warden",
		"port", a.cfg.Server.Port,
		"hook_id", a.cfg.Hook.ID,
		"max_concurrent_jobs", a.cfg.Hook.MaxConcurrentJobs)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly: the HTTP server first so no new
// events arrive, then the dispatcher so in-flight jobs can finish.
func (a *App) Stop() error {
	a.logger.Info("shutting down constraint-warden services")

	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	a.dispatcher.Stop()

	if serverErr != nil {
		return serverErr
	}

	a.logger.Info("constraint-warden stopped successfully")
	return nil
}
