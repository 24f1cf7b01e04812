package main

import (
	"context"
	"fmt"

	"github.com/abdulachik/fathom/internal/config"
	"github.com/abdulachik/fathom/internal/vectorstore"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the related-notes index",
	Long: `Embed every annotated line that carries notes into the VecLite index at
VECLITE_PATH. Lines already indexed with the same text and notes are skipped,
so the command can be re-run after each import. Generated commentary cites the
closest of these notes.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ValidateForVecLite(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	corpus, err := loadAnnotations(ctx, cfg)
	if err != nil {
		return err
	}

	notes, err := vectorstore.New(vectorstore.Config{
		Path:       cfg.VecLitePath,
		ConfigPath: cfg.VecLiteConfig,
	})
	if err != nil {
		return fmt.Errorf("open veclite: %w", err)
	}
	defer notes.Close()

	result, err := notes.IndexCorpus(ctx, corpus)
	if err != nil {
		return fmt.Errorf("index corpus: %w", err)
	}

	fmt.Printf("Indexed %d annotated lines, %d already present (%d total in index).\n",
		result.Indexed, result.Skipped, notes.Count())
	return nil
}
