// Package commentary decides, for each reader selection, whether to show a
// pre-authored annotation or to ask the generator for new commentary.
package commentary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abdulachik/fathom/internal/annotation"
	"github.com/abdulachik/fathom/internal/generator"
	"github.com/abdulachik/fathom/internal/matcher"
	"github.com/abdulachik/fathom/internal/relevance"
	"github.com/abdulachik/fathom/internal/tier"
	"github.com/google/uuid"
)

// NoCache as Config.CacheTTL turns the generated-commentary cache off.
const NoCache time.Duration = -1

const (
	defaultPlay     = "Macbeth"
	defaultCacheTTL = 30 * time.Minute
	relatedLimit    = 3
)

// State is the terminal state of one selection.
type State string

const (
	ShowAnnotation State = "annotation"
	ShowGenerated  State = "generated"
	ShowError      State = "error"
)

// Generator produces commentary for a passage.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Response, error)
}

// Related finds annotated lines similar to a passage.
type Related interface {
	Related(ctx context.Context, text string, limit int) ([]annotation.AnnotatedLine, error)
}

// Selection is a reader's request for commentary.
type Selection struct {
	Text             string
	Scene            string
	Tier             tier.Tier
	FollowUp         string
	PreviousAnalysis []generator.Section
}

// Outcome is the result of analyzing a selection.
type Outcome struct {
	ID        string                    `json:"id"`
	State     State                     `json:"state"`
	Line      *annotation.AnnotatedLine `json:"line,omitempty"`
	MatchRule string                    `json:"matchRule,omitempty"`
	Analysis  []generator.Section       `json:"analysis,omitempty"`
	Passages  []relevance.ScoredVerse   `json:"passages,omitempty"`
	Error     *GenerationError          `json:"error,omitempty"`
	Cached    bool                      `json:"cached,omitempty"`
}

// Config holds configuration for the orchestrator.
type Config struct {
	Matcher   *matcher.Matcher
	Scorer    *relevance.Scorer
	Generator Generator
	Related   Related
	Play      string

	// CacheTTL is how long generated commentary is reused. Zero selects
	// the default; NoCache disables caching.
	CacheTTL time.Duration
}

type cacheKey struct {
	tier  tier.Tier
	scene string
	text  string
}

// Orchestrator runs the matching, context and generation steps.
type Orchestrator struct {
	matcher   *matcher.Matcher
	scorer    *relevance.Scorer
	generator Generator
	related   Related
	play      string
	cache     *TTLCache[cacheKey, *generator.Response]
}

// New creates a new Orchestrator. Missing corpora behave as empty ones.
func New(cfg Config) *Orchestrator {
	if cfg.Matcher == nil {
		cfg.Matcher = matcher.New(matcher.Config{})
	}
	if cfg.Scorer == nil {
		cfg.Scorer = relevance.NewScorer(nil)
	}
	if cfg.Play == "" {
		cfg.Play = defaultPlay
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaultCacheTTL
	}

	return &Orchestrator{
		matcher:   cfg.Matcher,
		scorer:    cfg.Scorer,
		generator: cfg.Generator,
		related:   cfg.Related,
		play:      cfg.Play,
		cache:     NewTTLCache[cacheKey, *generator.Response](cfg.CacheTTL),
	}
}

// Play returns the play name sent to the generator.
func (o *Orchestrator) Play() string {
	return o.play
}

// Analyze shows the annotation for a matching line, or generates commentary
// when there is none. Generator failures are reported in the Outcome, not as
// an error; the only errors are invalid selections.
func (o *Orchestrator) Analyze(ctx context.Context, sel Selection) (*Outcome, error) {
	sel.Text = strings.TrimSpace(sel.Text)
	sel.FollowUp = strings.TrimSpace(sel.FollowUp)
	if sel.Text == "" {
		return nil, ErrEmptySelection
	}
	if sel.Tier == "" {
		sel.Tier = tier.Basic
	}
	if !sel.Tier.Valid() {
		return nil, fmt.Errorf("analyze: unknown tier %q", sel.Tier)
	}

	out := &Outcome{ID: uuid.NewString()}

	if sel.FollowUp == "" {
		if m := o.matcher.Match(sel.Text, sel.Scene); m != nil {
			slog.Debug("selection matched annotation",
				"scene", sel.Scene,
				"line", m.Line.LineNumber,
				"rule", m.Rule.String(),
			)
			line := m.Line
			out.State = ShowAnnotation
			out.Line = &line
			out.MatchRule = m.Rule.String()
			return out, nil
		}
	}

	out.Passages = o.passages(sel.Text, sel.Tier)

	key := cacheKey{tier: sel.Tier, scene: sel.Scene, text: strings.ToLower(sel.Text)}
	if sel.FollowUp == "" {
		if resp, ok := o.cache.Get(key); ok {
			out.State = ShowGenerated
			out.Analysis = resp.Sections
			out.Cached = true
			return out, nil
		}
	}

	req := generator.Request{
		Text:             sel.Text,
		Tier:             sel.Tier,
		Play:             o.play,
		Scene:            sel.Scene,
		Context:          o.supplementaryContext(ctx, sel.Text, out.Passages),
		FollowUp:         sel.FollowUp,
		PreviousAnalysis: sel.PreviousAnalysis,
	}

	resp, err := o.generate(ctx, req)
	if err != nil {
		ge := ClassifyError(err)
		slog.Warn("commentary generation failed",
			"id", out.ID,
			"scene", sel.Scene,
			"category", ge.Category,
			"error", err,
		)
		out.State = ShowError
		out.Error = ge
		return out, nil
	}

	if sel.FollowUp == "" {
		o.cache.Set(key, resp)
	}

	out.State = ShowGenerated
	out.Analysis = resp.Sections
	return out, nil
}

func (o *Orchestrator) generate(ctx context.Context, req generator.Request) (*generator.Response, error) {
	if o.generator == nil {
		return nil, generator.ErrMissingAPIKey
	}
	return o.generator.Generate(ctx, req)
}

// BibleContext returns the formatted Biblical passages for text at tier t.
// It reports false for tiers without Biblical context and when nothing scores.
func (o *Orchestrator) BibleContext(text string, t tier.Tier) (string, bool) {
	passages := o.passages(text, t)
	if len(passages) == 0 {
		return "", false
	}
	return relevance.FormatPassages(passages), true
}

// Passages returns the ranked verses for text at tier t.
func (o *Orchestrator) Passages(text string, t tier.Tier) []relevance.ScoredVerse {
	return o.passages(text, t)
}

func (o *Orchestrator) passages(text string, t tier.Tier) []relevance.ScoredVerse {
	if !t.WantsBibleContext() {
		return nil
	}
	return o.scorer.Rank(text, t.Budget())
}

func (o *Orchestrator) supplementaryContext(ctx context.Context, text string, passages []relevance.ScoredVerse) string {
	parts := make([]string, 0, 2)
	if block := relevance.FormatPassages(passages); block != "" {
		parts = append(parts, block)
	}
	if block := o.relatedNotes(ctx, text); block != "" {
		parts = append(parts, block)
	}
	return strings.Join(parts, "\n")
}

func (o *Orchestrator) relatedNotes(ctx context.Context, text string) string {
	if o.related == nil {
		return ""
	}

	lines, err := o.related.Related(ctx, text, relatedLimit)
	if err != nil {
		slog.Warn("related notes lookup failed", "error", err)
		return ""
	}

	var sb strings.Builder
	for _, l := range lines {
		if len(l.Notes) == 0 {
			continue
		}
		if sb.Len() == 0 {
			sb.WriteString("Notes on related lines:\n")
		}
		fmt.Fprintf(&sb, "\n- %s (%s, line %d): %s", l.RawText, l.SceneID, l.LineNumber, strings.Join(l.Notes, " "))
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}
