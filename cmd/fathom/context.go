package main

import (
	"context"
	"fmt"

	"github.com/abdulachik/fathom/internal/config"
	"github.com/abdulachik/fathom/internal/relevance"
	"github.com/abdulachik/fathom/internal/tier"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var contextTier string

var contextCmd = &cobra.Command{
	Use:   "context [text]",
	Short: "Rank Geneva Bible passages for a selection",
	Long: `Score every verse of the Geneva Bible against a selection and print the
passages the given tier would send to the generator.

Example:
  fathom context --tier expert "Methought I heard a voice cry 'Sleep no more!'"`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVar(&contextTier, "tier", string(tier.Expert), "analysis tier (basic, intermediate, expert, full-fathom-five)")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	t, err := tier.Parse(contextTier)
	if err != nil {
		return err
	}

	if !t.WantsBibleContext() {
		color.Yellow("The %s tier does not use Biblical context.", t)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	corpus, err := loadBible(ctx, cfg)
	if err != nil {
		return err
	}

	passages := relevance.Rank(args[0], corpus, t.Budget())
	if len(passages) == 0 {
		color.Yellow("No passages scored above zero.")
		return nil
	}

	q := relevance.NewQuery(args[0])
	fmt.Printf("Keywords: %v\n", q.Features.Keywords)
	fmt.Printf("Archaic:  %v\n", q.Features.Archaic)
	fmt.Printf("Themes:   %v\n", q.Themes)
	fmt.Println()

	for i, p := range passages {
		color.Cyan("%d. %s (relevance: %d)", i+1, p.Reference, p.Score)
		fmt.Printf("   %s\n", p.Text)
	}
	return nil
}
