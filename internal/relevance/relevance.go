// Package relevance ranks Bible verses against a passage of the play.
package relevance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abdulachik/fathom/internal/bible"
)

// Score weights.
const (
	PhraseBonus       = 100
	KeywordHit        = 10
	PartialKeywordHit = 5
	ArchaicHit        = 15
	ThemeHit          = 15
)

// ScoredVerse is a verse with its relevance to a query.
type ScoredVerse struct {
	bible.Verse
	Score int `json:"score"`
}

// Query holds the features of a source passage.
type Query struct {
	Features bible.Features
	Themes   []string
	phrase   string
}

// NewQuery extracts the comparison features of text.
func NewQuery(text string) Query {
	f := bible.ExtractFeatures(text)
	return Query{
		Features: f,
		Themes:   Themes(f.Keywords),
		phrase:   strings.Join(f.Keywords, " "),
	}
}

// Empty reports whether the query can score anything at all.
func (q Query) Empty() bool {
	return len(q.Features.Keywords) == 0 && len(q.Features.Archaic) == 0
}

// Score computes the relevance of v to q.
func Score(q Query, v bible.Verse) int {
	return score(q, v, Themes(v.Keywords))
}

func score(q Query, v bible.Verse, verseThemes []string) int {
	total := 0

	if q.phrase != "" {
		text := strings.ToLower(v.Text)
		if strings.Contains(text, q.phrase) || strings.Contains(q.phrase, text) {
			total += PhraseBonus
		}
	}

	// Identical pairs earn both the exact and the partial bonus.
	for _, sk := range q.Features.Keywords {
		for _, vk := range v.Keywords {
			if sk == vk {
				total += KeywordHit
			}
			if strings.Contains(sk, vk) || strings.Contains(vk, sk) {
				total += PartialKeywordHit
			}
		}
	}

	total += ArchaicHit * countShared(q.Features.Archaic, v.Archaic)
	total += ThemeHit * countShared(q.Themes, verseThemes)

	return total
}

func countShared(a, b []string) int {
	n := 0
	for _, x := range a {
		for _, y := range b {
			if x == y {
				n++
				break
			}
		}
	}
	return n
}

// Scorer ranks verses of one corpus. Verse themes are computed once.
type Scorer struct {
	corpus *bible.Corpus
	themes [][]string
}

// NewScorer prepares a scorer for corpus. A nil corpus behaves as an empty one.
func NewScorer(corpus *bible.Corpus) *Scorer {
	if corpus == nil {
		corpus = bible.Empty()
	}
	verses := corpus.Verses()
	themes := make([][]string, len(verses))
	for i, v := range verses {
		themes[i] = Themes(v.Keywords)
	}
	return &Scorer{corpus: corpus, themes: themes}
}

// Corpus returns the corpus being ranked.
func (s *Scorer) Corpus() *bible.Corpus {
	return s.corpus
}

// Rank returns at most limit verses with a positive score, highest first.
// Verses with equal scores keep corpus order.
func (s *Scorer) Rank(source string, limit int) []ScoredVerse {
	out := []ScoredVerse{}
	if limit <= 0 {
		return out
	}

	q := NewQuery(source)
	if q.Empty() {
		return out
	}

	for i, v := range s.corpus.Verses() {
		if sc := score(q, v, s.themes[i]); sc > 0 {
			out = append(out, ScoredVerse{Verse: v, Score: sc})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Rank is the functional form of Scorer.Rank.
func Rank(source string, corpus *bible.Corpus, limit int) []ScoredVerse {
	return NewScorer(corpus).Rank(source, limit)
}

// FormatPassages renders ranked verses as a block of supplementary context
// for a generator prompt. It returns "" for no verses.
func FormatPassages(verses []ScoredVerse) string {
	if len(verses) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Relevant passages from the Geneva Bible:\n")
	for i, v := range verses {
		fmt.Fprintf(&sb, "\n%d. %s: \"%s\" (relevance: %d)", i+1, v.Reference, v.Text, v.Score)
	}
	sb.WriteString("\n")
	return sb.String()
}
