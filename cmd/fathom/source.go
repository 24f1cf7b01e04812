package main

import (
	"context"
	"fmt"

	"github.com/abdulachik/fathom/internal/annotation"
	"github.com/abdulachik/fathom/internal/app"
	"github.com/abdulachik/fathom/internal/bible"
	"github.com/abdulachik/fathom/internal/config"
)

// loadAnnotations reads the annotation corpus from the configured source.
func loadAnnotations(ctx context.Context, cfg *config.Config) (*annotation.Corpus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.AnnotationsSource != config.SourceSQLite {
		corpus, err := annotation.LoadFile(ctx, cfg.AnnotationsPath)
		if err != nil {
			return nil, fmt.Errorf("load annotations: %w", err)
		}
		return corpus, nil
	}

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	corpus, err := store.LoadAnnotations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load annotations: %w", err)
	}
	return corpus, nil
}

func loadBible(ctx context.Context, cfg *config.Config) (*bible.Corpus, error) {
	if cfg.BiblePath == "" {
		return nil, fmt.Errorf("BIBLE_PATH is required")
	}
	corpus, err := bible.LoadFile(ctx, cfg.BiblePath)
	if err != nil {
		return nil, fmt.Errorf("load bible: %w", err)
	}
	return corpus, nil
}
