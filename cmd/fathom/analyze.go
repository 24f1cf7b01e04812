package main

import (
	"context"
	"fmt"

	"github.com/abdulachik/fathom/internal/app"
	"github.com/abdulachik/fathom/internal/commentary"
	"github.com/abdulachik/fathom/internal/config"
	"github.com/abdulachik/fathom/internal/tier"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	analyzeTier     string
	analyzeFollowUp string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [scene] [text]",
	Short: "Show or generate commentary for a selection",
	Long: `Run a selection through the full pipeline: the annotation is shown when a
line matches, otherwise commentary is generated.

Example:
  fathom analyze --tier full-fathom-five 5.5 "Tomorrow, and tomorrow, and tomorrow"`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTier, "tier", string(tier.Basic), "analysis tier (basic, intermediate, expert, full-fathom-five)")
	analyzeCmd.Flags().StringVar(&analyzeFollowUp, "follow-up", "", "ask a follow-up question about the generated commentary")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	t, err := tier.Parse(analyzeTier)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("start application: %w", err)
	}
	defer a.Close()

	sel := commentary.Selection{Text: args[1], Scene: args[0], Tier: t}
	out, err := a.Orchestrator.Analyze(ctx, sel)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if analyzeFollowUp != "" && out.State == commentary.ShowGenerated {
		sel.FollowUp = analyzeFollowUp
		sel.PreviousAnalysis = out.Analysis
		printOutcome(out)
		if out, err = a.Orchestrator.Analyze(ctx, sel); err != nil {
			return fmt.Errorf("follow up: %w", err)
		}
	}

	printOutcome(out)
	return nil
}

func printOutcome(out *commentary.Outcome) {
	switch out.State {
	case commentary.ShowAnnotation:
		color.Green("Annotated line (matched by %s)", out.MatchRule)
		printLine(*out.Line)

	case commentary.ShowGenerated:
		if out.Cached {
			color.Green("Generated commentary (cached)")
		} else {
			color.Green("Generated commentary")
		}
		fmt.Println()
		for _, s := range out.Analysis {
			color.Cyan("%s", s.Title)
			fmt.Printf("%s\n\n", s.Body)
		}
		if len(out.Passages) > 0 {
			color.Cyan("Passages consulted")
			for _, p := range out.Passages {
				fmt.Printf("  %s (relevance: %d)\n", p.Reference, p.Score)
			}
			fmt.Println()
		}

	case commentary.ShowError:
		color.Red("%s", out.Error.Message)
	}
}
