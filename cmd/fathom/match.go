package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/abdulachik/fathom/internal/annotation"
	"github.com/abdulachik/fathom/internal/config"
	"github.com/abdulachik/fathom/internal/matcher"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match [scene] [text]",
	Short: "Look up the annotation for a selection",
	Long: `Test the line matcher against the annotation corpus.

Example:
  fathom match "ACT 1, SCENE 1" "fair is foul"
  fathom match 2.1 "Is this a dagger"`,
	Args: cobra.ExactArgs(2),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	scene, text := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	corpus, err := loadAnnotations(ctx, cfg)
	if err != nil {
		return err
	}

	result := matcher.New(matcher.Config{Corpus: corpus}).Match(text, scene)
	if result == nil {
		color.Yellow("No annotated line matches in %s.", scene)
		return nil
	}

	printLine(result.Line)
	fmt.Printf("Matched by: %s\n", result.Rule)
	return nil
}

func printLine(line annotation.AnnotatedLine) {
	fmt.Println()
	color.Cyan("%s, line %d", line.SceneID, line.LineNumber)
	fmt.Printf("  %s\n", line.RawText)
	fmt.Println()

	if len(line.Notes) == 0 {
		fmt.Println("  (no notes)")
	}
	for _, note := range line.Notes {
		fmt.Printf("  - %s\n", strings.TrimSpace(note))
	}
	fmt.Println()
}
