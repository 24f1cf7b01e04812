package main

import (
	"context"
	"fmt"

	"github.com/abdulachik/fathom/internal/annotation"
	"github.com/abdulachik/fathom/internal/app"
	"github.com/abdulachik/fathom/internal/config"
	"github.com/abdulachik/fathom/internal/db"
	"github.com/spf13/cobra"
)

var importReplace bool

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import an annotation document into the database",
	Long: `Read a JSON or YAML annotation document (optionally xz-compressed) and
store its lines in SQLite. Defaults to ANNOTATIONS_PATH.

Example:
  fathom import data/macbeth_annotations.json.xz`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "rewrite every line, not only changed ones")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := cfg.AnnotationsPath
	if len(args) == 1 {
		path = args[0]
	}

	corpus, err := annotation.LoadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("load annotations: %w", err)
	}

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	result, err := store.ImportCorpus(ctx, corpus, db.ImportOptions{
		Source:  path,
		Replace: importReplace,
	})
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Println("=== Import Complete ===")
	fmt.Printf("Source:    %s\n", path)
	fmt.Printf("Lines:     %d\n", result.Total)
	fmt.Printf("Written:   %d\n", result.Written)
	fmt.Printf("Unchanged: %d\n", result.Unchanged)
	fmt.Printf("Removed:   %d\n", result.Removed)
	return nil
}
