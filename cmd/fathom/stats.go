package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdulachik/fathom/internal/app"
	"github.com/abdulachik/fathom/internal/config"
	"github.com/abdulachik/fathom/internal/vectorstore"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	Long:  `Display statistics about the annotation corpus, the Bible corpus, the database and the related-notes index.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("=== Fathom Statistics ===")
	fmt.Println()

	corpus, err := loadAnnotations(ctx, cfg)
	if err != nil {
		slog.Warn("failed to load annotations", "error", err)
	} else {
		withNotes := 0
		for _, scene := range corpus.Scenes() {
			lines, _ := corpus.Lines(scene)
			for _, l := range lines {
				if len(l.Notes) > 0 {
					withNotes++
				}
			}
		}
		fmt.Println("Annotations:")
		fmt.Printf("  Source: %s\n", cfg.AnnotationsSource)
		fmt.Printf("  Scenes: %d\n", len(corpus.Scenes()))
		fmt.Printf("  Lines: %d\n", corpus.Len())
		fmt.Printf("  With notes: %d\n", withNotes)
		if fp := corpus.Fingerprint(); fp != "" {
			fmt.Printf("  Fingerprint: %s\n", fp)
		}
		fmt.Println()
	}

	verses, err := loadBible(ctx, cfg)
	if err != nil {
		slog.Warn("failed to load bible", "error", err)
	} else {
		fmt.Println("Geneva Bible:")
		fmt.Printf("  Books: %d\n", len(verses.Books()))
		fmt.Printf("  Verses: %d\n", verses.Len())
		fmt.Printf("  Fingerprint: %s\n", verses.Fingerprint())
		fmt.Println()
	}

	if cfg.DatabasePath != "" {
		printDatabaseStats(ctx, cfg)
	}

	// Check VecLite stats if configured
	if cfg.VecLitePath != "" {
		notes, err := vectorstore.New(vectorstore.Config{
			Path:       cfg.VecLitePath,
			ConfigPath: cfg.VecLiteConfig,
		})
		if err != nil {
			slog.Warn("failed to open VecLite", "error", err)
		} else {
			defer notes.Close()
			stats := notes.Stats()
			fmt.Println("VecLite:")
			fmt.Printf("  Path: %s\n", cfg.VecLitePath)
			fmt.Printf("  Documents: %d\n", stats.Count)
			fmt.Printf("  Dimension: %d\n", stats.Dimension)
			fmt.Printf("  Distance: %s\n", stats.DistanceType)
			fmt.Printf("  Index: %s\n", stats.IndexType)
			fmt.Println()
		}
	}

	return nil
}

func printDatabaseStats(ctx context.Context, cfg *config.Config) {
	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		slog.Warn("failed to open database", "error", err)
		return
	}
	defer store.Close()

	total, err := store.CountLines(ctx)
	if err != nil {
		slog.Warn("failed to count lines", "error", err)
		return
	}

	fmt.Println("Database:")
	fmt.Printf("  Path: %s\n", cfg.DatabasePath)
	fmt.Printf("  Stored lines: %d\n", total)

	byScene, err := store.CountLinesByScene(ctx)
	if err != nil {
		slog.Warn("failed to count lines by scene", "error", err)
	} else if len(byScene) > 0 {
		fmt.Println("  By scene:")
		for _, row := range byScene {
			fmt.Printf("    %s: %d\n", row.SceneID, row.Count)
		}
	}

	if latest, err := store.GetLatestImport(ctx); err == nil {
		fmt.Printf("  Last import: %s from %s\n", latest.ImportedAt, latest.Source)
	}
	fmt.Println()
}
