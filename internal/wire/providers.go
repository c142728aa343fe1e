// Package wire assembles the application's dependency graph.
package wire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/wire"

	"github.com/sevigo/constraint-warden/internal/app"
	"github.com/sevigo/constraint-warden/internal/checker"
	"github.com/sevigo/constraint-warden/internal/config"
	"github.com/sevigo/constraint-warden/internal/core"
	"github.com/sevigo/constraint-warden/internal/db"
	"github.com/sevigo/constraint-warden/internal/jobs"
	"github.com/sevigo/constraint-warden/internal/logger"
	"github.com/sevigo/constraint-warden/internal/server"
	"github.com/sevigo/constraint-warden/internal/storage"
)

// AppSet lists every provider needed to build an App.
var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	config.LoadConfig,
	logger.NewLogger,
	provideStore,
	provideChecker,
	provideRunner,
	provideDispatcher,
	provideLoggerConfig,
	provideLogWriter,
)

// provideStore selects the status store backend. The postgres driver owns the
// connection pool and returns its cleanup; the memory driver has none.
func provideStore(cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.StorageDriver {
	case "memory":
		return storage.NewMemoryStore(), func() {}, nil
	case "postgres":
		dbConn, cleanup, err := db.NewDatabase(&cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return storage.NewStore(dbConn.DB), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

func provideChecker(cfg *config.Config, log *slog.Logger) core.Checker {
	return checker.NewExecChecker(cfg.Checker, log)
}

func provideRunner(chk core.Checker, store storage.Store, log *slog.Logger) core.Runner {
	return checker.NewAdapter(chk, store, log)
}

func provideDispatcher(ctx context.Context, runner core.Runner, store storage.Store, cfg *config.Config, log *slog.Logger) core.Dispatcher {
	return jobs.NewDispatcher(ctx, runner, store, cfg.Hook.MaxConcurrentJobs, log)
}

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logger
}

func provideLogWriter() io.Writer {
	return os.Stdout
}
