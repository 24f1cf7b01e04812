package commentary

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/abdulachik/fathom/internal/annotation"
	"github.com/abdulachik/fathom/internal/bible"
	"github.com/abdulachik/fathom/internal/generator"
	"github.com/abdulachik/fathom/internal/matcher"
	"github.com/abdulachik/fathom/internal/relevance"
	"github.com/abdulachik/fathom/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scene = "ACT 2, SCENE 1"

type fakeGenerator struct {
	mu       sync.Mutex
	requests []generator.Request
	resp     *generator.Response
	err      error
	block    chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, req generator.Request) (*generator.Response, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeGenerator) last() generator.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeRelated struct {
	lines []annotation.AnnotatedLine
	err   error
}

func (f fakeRelated) Related(ctx context.Context, text string, limit int) ([]annotation.AnnotatedLine, error) {
	return f.lines, f.err
}

func newOrchestrator(t *testing.T, gen Generator, related Related) *Orchestrator {
	t.Helper()

	b := annotation.NewBuilder()
	b.Add(annotation.AnnotatedLine{
		SceneID:    scene,
		LineNumber: 33,
		RawText:    "MACBETH: Is this a dagger which I see before me,",
		Notes:      []string{"The dagger soliloquy."},
	})

	verses := bible.Parse("Genesis\n[1:1] In the beginning God created the heaven, and the earth.\n")

	return New(Config{
		Matcher:   matcher.New(matcher.Config{Corpus: b.Build()}),
		Scorer:    relevance.NewScorer(verses),
		Generator: gen,
		Related:   related,
	})
}

func generated() *generator.Response {
	return &generator.Response{Sections: []generator.Section{{Title: "Plain Meaning", Body: "<p>Creation.</p>"}}}
}

func TestAnalyze_ShowAnnotation(t *testing.T) {
	gen := &fakeGenerator{resp: generated()}
	o := newOrchestrator(t, gen, nil)

	out, err := o.Analyze(context.Background(), Selection{
		Text:  "Is this a dagger which I see before me",
		Scene: scene,
		Tier:  tier.Expert,
	})
	require.NoError(t, err)

	assert.Equal(t, ShowAnnotation, out.State)
	require.NotNil(t, out.Line)
	assert.Equal(t, 33, out.Line.LineNumber)
	assert.Equal(t, []string{"The dagger soliloquy."}, out.Line.Notes)
	assert.Equal(t, "contains", out.MatchRule)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, 0, gen.calls())
}

func TestAnalyze_ShowGenerated(t *testing.T) {
	gen := &fakeGenerator{resp: generated()}
	o := newOrchestrator(t, gen, nil)

	out, err := o.Analyze(context.Background(), Selection{
		Text:  "the heaven and the earth",
		Scene: scene,
		Tier:  tier.Intermediate,
	})
	require.NoError(t, err)

	assert.Equal(t, ShowGenerated, out.State)
	assert.Equal(t, generated().Sections, out.Analysis)
	require.Len(t, out.Passages, 1)
	assert.Equal(t, "Genesis 1:1", out.Passages[0].Reference)

	req := gen.last()
	assert.Equal(t, "the heaven and the earth", req.Text)
	assert.Equal(t, tier.Intermediate, req.Tier)
	assert.Equal(t, "Macbeth", req.Play)
	assert.Equal(t, scene, req.Scene)
	assert.Contains(t, req.Context, "Genesis 1:1")
}

func TestAnalyze_BasicTierSkipsScorer(t *testing.T) {
	gen := &fakeGenerator{resp: generated()}
	o := newOrchestrator(t, gen, nil)

	out, err := o.Analyze(context.Background(), Selection{Text: "the heaven and the earth", Scene: scene})
	require.NoError(t, err)

	assert.Equal(t, ShowGenerated, out.State)
	assert.Empty(t, out.Passages)
	assert.Equal(t, tier.Basic, gen.last().Tier)
	assert.Empty(t, gen.last().Context)
}

func TestAnalyze_GeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("API error (status 429): rate limit exceeded")}
	o := newOrchestrator(t, gen, nil)

	out, err := o.Analyze(context.Background(), Selection{Text: "Out, damned spot", Scene: scene, Tier: tier.Expert})
	require.NoError(t, err)

	assert.Equal(t, ShowError, out.State)
	require.NotNil(t, out.Error)
	assert.Equal(t, CategoryQuota, out.Error.Category)
	assert.Empty(t, out.Analysis)
}

func TestAnalyze_NoGenerator(t *testing.T) {
	o := newOrchestrator(t, nil, nil)

	out, err := o.Analyze(context.Background(), Selection{Text: "Out, damned spot", Scene: scene})
	require.NoError(t, err)
	assert.Equal(t, ShowError, out.State)
	assert.Equal(t, CategoryAuth, out.Error.Category)
}

func TestAnalyze_EmptySelection(t *testing.T) {
	gen := &fakeGenerator{resp: generated()}
	o := newOrchestrator(t, gen, nil)

	_, err := o.Analyze(context.Background(), Selection{Text: "  \n ", Scene: scene})
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, 0, gen.calls())
}

func TestAnalyze_UnknownTier(t *testing.T) {
	o := newOrchestrator(t, &fakeGenerator{resp: generated()}, nil)

	_, err := o.Analyze(context.Background(), Selection{Text: "dagger", Tier: tier.Tier("epic")})
	assert.Error(t, err)
}

func TestAnalyze_Cache(t *testing.T) {
	gen := &fakeGenerator{resp: generated()}
	o := newOrchestrator(t, gen, nil)
	sel := Selection{Text: "Out, damned spot", Scene: scene, Tier: tier.Expert}

	first, err := o.Analyze(context.Background(), sel)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	sel.Text = "  OUT, DAMNED SPOT "
	second, err := o.Analyze(context.Background(), sel)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Analysis, second.Analysis)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, gen.calls())

	t.Run("other tier is not served from cache", func(t *testing.T) {
		sel.Tier = tier.Basic
		_, err := o.Analyze(context.Background(), sel)
		require.NoError(t, err)
		assert.Equal(t, 2, gen.calls())
	})

	t.Run("follow-ups are never cached", func(t *testing.T) {
		sel.FollowUp = "Why a spot?"
		for i := 0; i < 2; i++ {
			_, err := o.Analyze(context.Background(), sel)
			require.NoError(t, err)
		}
		assert.Equal(t, 4, gen.calls())
	})
}

func TestAnalyze_CacheDisabled(t *testing.T) {
	gen := &fakeGenerator{resp: generated()}
	o := New(Config{Generator: gen, CacheTTL: NoCache})
	sel := Selection{Text: "Out, damned spot", Scene: scene, Tier: tier.Expert}

	for i := 0; i < 2; i++ {
		out, err := o.Analyze(context.Background(), sel)
		require.NoError(t, err)
		assert.Equal(t, ShowGenerated, out.State)
		assert.False(t, out.Cached)
	}
	assert.Equal(t, 2, gen.calls())
}

func TestAnalyze_FollowUpSkipsMatching(t *testing.T) {
	gen := &fakeGenerator{resp: generated()}
	o := newOrchestrator(t, gen, nil)

	previous := []generator.Section{{Title: "Plain Meaning", Body: "<p>A vision.</p>"}}
	out, err := o.Analyze(context.Background(), Selection{
		Text:             "Is this a dagger which I see before me",
		Scene:            scene,
		Tier:             tier.Expert,
		FollowUp:         "Is the dagger real?",
		PreviousAnalysis: previous,
	})
	require.NoError(t, err)

	assert.Equal(t, ShowGenerated, out.State)
	assert.Equal(t, "Is the dagger real?", gen.last().FollowUp)
	assert.Equal(t, previous, gen.last().PreviousAnalysis)
}

func TestAnalyze_RelatedNotes(t *testing.T) {
	t.Run("notes are added to the context", func(t *testing.T) {
		gen := &fakeGenerator{resp: generated()}
		related := fakeRelated{lines: []annotation.AnnotatedLine{
			{SceneID: "ACT 5, SCENE 1", LineNumber: 35, RawText: "LADY MACBETH: Out, damned spot!", Notes: []string{"Sleepwalking."}},
			{SceneID: "ACT 5, SCENE 1", LineNumber: 36, RawText: "No notes here"},
		}}
		o := newOrchestrator(t, gen, related)

		_, err := o.Analyze(context.Background(), Selection{Text: "all the perfumes of Arabia", Scene: scene})
		require.NoError(t, err)

		ctx := gen.last().Context
		assert.Contains(t, ctx, "Notes on related lines:")
		assert.Contains(t, ctx, "LADY MACBETH: Out, damned spot! (ACT 5, SCENE 1, line 35): Sleepwalking.")
		assert.NotContains(t, ctx, "No notes here")
	})

	t.Run("lookup failure is not fatal", func(t *testing.T) {
		gen := &fakeGenerator{resp: generated()}
		o := newOrchestrator(t, gen, fakeRelated{err: errors.New("index closed")})

		out, err := o.Analyze(context.Background(), Selection{Text: "all the perfumes of Arabia", Scene: scene})
		require.NoError(t, err)
		assert.Equal(t, ShowGenerated, out.State)
		assert.Empty(t, gen.last().Context)
	})
}

func TestBibleContext(t *testing.T) {
	o := newOrchestrator(t, nil, nil)

	t.Run("basic tier is always absent", func(t *testing.T) {
		text, ok := o.BibleContext("In the beginning God created the heaven", tier.Basic)
		assert.False(t, ok)
		assert.Empty(t, text)
	})

	t.Run("expert tier returns formatted passages", func(t *testing.T) {
		text, ok := o.BibleContext("In the beginning God created the heaven", tier.Expert)
		assert.True(t, ok)
		assert.Contains(t, text, "Genesis 1:1")
	})

	t.Run("nothing scores", func(t *testing.T) {
		_, ok := o.BibleContext("hath", tier.FullFathomFive)
		assert.False(t, ok)
	})
}
