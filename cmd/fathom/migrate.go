package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdulachik/fathom/internal/config"
	"github.com/abdulachik/fathom/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Run all pending database migrations to set up or update the schema.`,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForDatabase(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	applied, err := store.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if len(applied) == 0 {
		fmt.Println("Schema is up to date.")
		return nil
	}

	for _, name := range applied {
		slog.Info("applied migration", "file", name)
	}
	fmt.Printf("Applied %d migration(s).\n", len(applied))
	return nil
}
