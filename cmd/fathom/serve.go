package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/abdulachik/fathom/internal/app"
	"github.com/abdulachik/fathom/internal/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reading API",
	Long: `Load the annotation and Bible corpora and serve the reading API over HTTP
until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForServe(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("start application: %w", err)
	}
	defer a.Close()

	if !a.Health.IsOverallHealthy() {
		slog.Warn("serving with degraded corpora, see /healthz")
	}

	if err := a.Server().ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	slog.Info("shutdown complete")
	return nil
}
