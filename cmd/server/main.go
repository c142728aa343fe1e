package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sevigo/constraint-warden/internal/wire"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "warden-server",
	Short: "Starts the constraint verification webhook handler.",
	Long: `Starts a webhook handler server that queues a constraint check for every
commit event posted by the model server and serves the per-commit status and
results for polling badge clients.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func main() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("application failed to run", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, cleanup, err := wire.InitializeApp(ctx, configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer cleanup()

	go func() {
		if err := app.Start(); err != nil {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		slog.Info("received shutdown signal")
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	if err := app.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}
	return nil
}
