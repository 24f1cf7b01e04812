// Package matcher maps a reader's free-form selection onto a canonical
// annotated line of the current scene.
package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/abdulachik/fathom/internal/annotation"
)

// Rule identifies which clause of MatchesText accepted a pair.
type Rule int

const (
	RuleNone Rule = iota
	RuleExact
	RuleContains  // line text contains the selection
	RuleContained // selection contains the line text
	RuleOverlap
)

func (r Rule) String() string {
	switch r {
	case RuleExact:
		return "exact"
	case RuleContains:
		return "contains"
	case RuleContained:
		return "contained"
	case RuleOverlap:
		return "overlap"
	default:
		return "none"
	}
}

const (
	// minContainedLen is the length a contained string must exceed for the
	// substring rules to fire.
	minContainedLen = 3

	// minTokenLen is the length a token must exceed to count in word overlap.
	minTokenLen = 2

	overlapRatio = 0.5
)

// MatchResult is a matched line together with the rule that matched it.
type MatchResult struct {
	Line annotation.AnnotatedLine
	Rule Rule
}

// Matcher looks up selections in an annotation corpus.
type Matcher struct {
	corpus *annotation.Corpus
}

// Config holds configuration for the matcher.
type Config struct {
	Corpus *annotation.Corpus
}

// New creates a new Matcher. A nil corpus behaves as an empty one.
func New(cfg Config) *Matcher {
	corpus := cfg.Corpus
	if corpus == nil {
		corpus = annotation.Empty()
	}
	return &Matcher{corpus: corpus}
}

// Corpus returns the corpus the matcher searches.
func (m *Matcher) Corpus() *annotation.Corpus {
	return m.corpus
}

// Match returns the first line of scene, in document order, that matches the
// selection. It returns nil when the selection is blank, the scene is
// unknown, or nothing matches.
func (m *Matcher) Match(selected, scene string) *MatchResult {
	return Match(selected, scene, m.corpus)
}

// Match is the functional form of Matcher.Match.
func Match(selected, scene string, corpus *annotation.Corpus) *MatchResult {
	selected = normalize(selected)
	if selected == "" || corpus == nil {
		return nil
	}

	lines, ok := corpus.Lines(scene)
	if !ok {
		return nil
	}

	for _, line := range lines {
		if rule := Classify(normalize(line.RawText), selected); rule != RuleNone {
			return &MatchResult{Line: line, Rule: rule}
		}
	}

	return nil
}

// MatchesText reports whether line text a and selection b match. Both are
// expected lowercased and trimmed.
func MatchesText(a, b string) bool {
	return Classify(a, b) != RuleNone
}

// Classify returns the first rule under which a and b match, evaluated as
// exact equality, a containing b, b containing a, then word overlap.
func Classify(a, b string) Rule {
	if a == b {
		return RuleExact
	}
	if strings.Contains(a, b) && utf8.RuneCountInString(b) > minContainedLen {
		return RuleContains
	}
	if strings.Contains(b, a) && utf8.RuneCountInString(a) > minContainedLen {
		return RuleContained
	}
	if wordOverlap(a, b) {
		return RuleOverlap
	}
	return RuleNone
}

// wordOverlap counts tokens of a that substring-match some token of b, in
// either direction, and requires at least half of the smaller token set.
func wordOverlap(a, b string) bool {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}

	count := 0
	for _, x := range ta {
		for _, y := range tb {
			if strings.Contains(x, y) || strings.Contains(y, x) {
				count++
				break
			}
		}
	}

	return float64(count) >= overlapRatio*float64(min(len(ta), len(tb)))
}

// tokenSet splits on whitespace, drops short tokens and duplicates, and
// keeps first-seen order.
func tokenSet(s string) []string {
	fields := strings.Fields(s)
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= minTokenLen {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
