// Package app wires the corpora, matcher, scorer and generator into a
// ready-to-serve container.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdulachik/fathom/internal/annotation"
	"github.com/abdulachik/fathom/internal/bible"
	"github.com/abdulachik/fathom/internal/commentary"
	"github.com/abdulachik/fathom/internal/config"
	"github.com/abdulachik/fathom/internal/db"
	"github.com/abdulachik/fathom/internal/generator"
	"github.com/abdulachik/fathom/internal/matcher"
	"github.com/abdulachik/fathom/internal/relevance"
	"github.com/abdulachik/fathom/internal/server"
	"github.com/abdulachik/fathom/internal/vectorstore"
	"golang.org/x/sync/errgroup"
)

// Health component names.
const (
	ComponentAnnotations = "annotations"
	ComponentBible       = "bible"
	ComponentGenerator   = "generator"
	ComponentNotes       = "notes"
)

// App is the main application container holding all dependencies.
type App struct {
	Config       *config.Config
	Annotations  *annotation.Corpus
	Bible        *bible.Corpus
	Matcher      *matcher.Matcher
	Scorer       *relevance.Scorer
	Generator    *generator.Client
	Orchestrator *commentary.Orchestrator
	Store        *db.Store
	Notes        *vectorstore.NoteStore
	Health       *server.Health
}

// New creates a new application instance with all dependencies wired up.
// A corpus that cannot be loaded is replaced by an empty one and reported
// through Health; only cancellation is returned as an error.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:      cfg,
		Annotations: annotation.Empty(),
		Bible:       bible.Empty(),
		Health:      server.NewHealth(),
	}

	if cfg.AnnotationsSource == config.SourceSQLite {
		store, err := openStore(ctx, cfg.DatabasePath)
		if err != nil {
			a.degrade(ComponentAnnotations, err)
		} else {
			a.Store = store
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		corpus, err := a.annotationSource().LoadAnnotations(gctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			a.degrade(ComponentAnnotations, err)
			return nil
		}
		a.Annotations = corpus
		a.Health.SetHealthy(ComponentAnnotations, fmt.Sprintf("%d lines in %d scenes", corpus.Len(), len(corpus.Scenes())))
		return nil
	})

	g.Go(func() error {
		corpus, err := bible.LoadFile(gctx, cfg.BiblePath)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			a.degrade(ComponentBible, err)
			return nil
		}
		a.Bible = corpus
		a.Health.SetHealthy(ComponentBible, fmt.Sprintf("%d verses", corpus.Len()))
		return nil
	})

	if err := g.Wait(); err != nil {
		a.Close()
		return nil, fmt.Errorf("load corpora: %w", err)
	}

	a.Matcher = matcher.New(matcher.Config{Corpus: a.Annotations})
	a.Scorer = relevance.NewScorer(a.Bible)

	orchCfg := commentary.Config{
		Matcher:  a.Matcher,
		Scorer:   a.Scorer,
		Play:     cfg.PlayName,
		CacheTTL: cacheTTL(cfg.CacheTTL),
	}

	if cfg.AnthropicAPIKey != "" {
		a.Generator = generator.New(generator.Config{
			APIKey:  cfg.AnthropicAPIKey,
			Model:   cfg.AnthropicModel,
			Timeout: cfg.GenerationTimeout,
		})
		orchCfg.Generator = a.Generator
		a.Health.SetHealthy(ComponentGenerator, a.Generator.Model())
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set, commentary generation disabled")
	}

	if cfg.VecLitePath != "" {
		notes, err := vectorstore.New(vectorstore.Config{
			Path:       cfg.VecLitePath,
			ConfigPath: cfg.VecLiteConfig,
		})
		if err != nil {
			a.degrade(ComponentNotes, err)
		} else {
			a.Notes = notes
			orchCfg.Related = notes
			a.Health.SetHealthy(ComponentNotes, fmt.Sprintf("%d lines indexed", notes.Count()))
		}
	}

	a.Orchestrator = commentary.New(orchCfg)

	slog.Info("application ready",
		"play", a.Orchestrator.Play(),
		"annotated_lines", a.Annotations.Len(),
		"verses", a.Bible.Len(),
		"generator", a.Generator != nil,
		"related_notes", a.Notes != nil,
	)

	return a, nil
}

// Server builds the HTTP server for this container.
func (a *App) Server() *server.Server {
	return server.New(server.Config{
		Orchestrator: a.Orchestrator,
		Annotations:  a.Annotations,
		Health:       a.Health,
		CORSOrigins:  a.Config.CORSOrigins,
	})
}

func (a *App) annotationSource() annotation.Source {
	if a.Store != nil {
		return a.Store
	}
	if a.Config.AnnotationsSource == config.SourceSQLite {
		return failedSource{err: errors.New("annotation database unavailable")}
	}
	return annotation.FileSource{Path: a.Config.AnnotationsPath}
}

func (a *App) degrade(component string, err error) {
	slog.Warn("continuing without "+component, "error", err)
	a.Health.SetUnhealthy(component, err)
}

// Close closes all resources.
func (a *App) Close() error {
	var errs []error
	if a.Notes != nil {
		errs = append(errs, a.Notes.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// OpenStore opens the annotation database and applies pending migrations.
func OpenStore(ctx context.Context, cfg *config.Config) (*db.Store, error) {
	if err := cfg.ValidateForDatabase(); err != nil {
		return nil, err
	}
	return openStore(ctx, cfg.DatabasePath)
}

func openStore(ctx context.Context, path string) (*db.Store, error) {
	store, err := db.NewStore(ctx, path)
	if err != nil {
		return nil, err
	}

	if _, err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// cacheTTL maps the configured lifetime onto the orchestrator's setting,
// where zero means the default rather than off.
func cacheTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return commentary.NoCache
	}
	return d
}

type failedSource struct {
	err error
}

func (f failedSource) LoadAnnotations(context.Context) (*annotation.Corpus, error) {
	return nil, f.err
}
