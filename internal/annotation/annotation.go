// Package annotation holds the pre-authored scene annotations of a play.
//
// A Corpus is built once, at startup, from a nested scene -> line -> record
// document and is read-only afterwards. It is safe for concurrent readers.
package annotation

import (
	"slices"
	"strings"
)

// AnnotatedLine is one canonical line of the play with its scholarly notes.
type AnnotatedLine struct {
	SceneID    string   `json:"sceneId"`
	LineNumber int      `json:"lineNumber"`
	RawText    string   `json:"rawText"`
	Notes      []string `json:"notes,omitempty"`
}

// Speaker returns the part of RawText before the first colon, or "" for a
// stage direction.
func (l AnnotatedLine) Speaker() string {
	speaker, _, ok := strings.Cut(l.RawText, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(speaker)
}

// Dialogue returns the spoken part of RawText. Stage directions are returned whole.
func (l AnnotatedLine) Dialogue() string {
	_, dialogue, ok := strings.Cut(l.RawText, ":")
	if !ok {
		return strings.TrimSpace(l.RawText)
	}
	return strings.TrimSpace(dialogue)
}

// IsStageDirection reports whether the line carries no speaker.
func (l AnnotatedLine) IsStageDirection() bool {
	return !strings.Contains(l.RawText, ":")
}

// Corpus maps scene identifiers to their annotated lines in document order.
type Corpus struct {
	scenes      map[string][]AnnotatedLine
	order       []string
	canonical   map[string]string // canonical scene id -> document key
	fingerprint string
}

// Empty returns a corpus with no scenes. Lookups on it never match.
func Empty() *Corpus {
	return NewBuilder().Build()
}

// Scenes returns the scene keys in document order.
func (c *Corpus) Scenes() []string {
	return slices.Clone(c.order)
}

// Lines returns the annotated lines of a scene in document order.
// The scene may be given in any form ParseSceneID understands.
func (c *Corpus) Lines(scene string) ([]AnnotatedLine, bool) {
	key, ok := c.resolve(scene)
	if !ok {
		return nil, false
	}
	return slices.Clone(c.scenes[key]), true
}

// Line returns a single line by scene and line number.
func (c *Corpus) Line(scene string, number int) (AnnotatedLine, bool) {
	key, ok := c.resolve(scene)
	if !ok {
		return AnnotatedLine{}, false
	}
	for _, l := range c.scenes[key] {
		if l.LineNumber == number {
			return l, true
		}
	}
	return AnnotatedLine{}, false
}

// Len returns the total number of annotated lines.
func (c *Corpus) Len() int {
	n := 0
	for _, lines := range c.scenes {
		n += len(lines)
	}
	return n
}

// Fingerprint returns the blake3 digest of the source document, or "" when
// the corpus was assembled in memory.
func (c *Corpus) Fingerprint() string {
	return c.fingerprint
}

// resolve maps user input onto a document scene key. Exact keys win; other
// spellings are normalised through the scene-id grammar.
func (c *Corpus) resolve(scene string) (string, bool) {
	if _, ok := c.scenes[scene]; ok {
		return scene, true
	}
	id, err := ParseSceneID(scene)
	if err != nil {
		return "", false
	}
	key, ok := c.canonical[id.String()]
	return key, ok
}

// Builder accumulates lines while a source document is being read.
type Builder struct {
	corpus *Corpus
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{corpus: &Corpus{
		scenes:    make(map[string][]AnnotatedLine),
		canonical: make(map[string]string),
	}}
}

// Add appends a line to its scene, registering the scene on first use.
func (b *Builder) Add(line AnnotatedLine) {
	if _, ok := b.corpus.scenes[line.SceneID]; !ok {
		b.AddScene(line.SceneID)
	}
	b.corpus.scenes[line.SceneID] = append(b.corpus.scenes[line.SceneID], line)
}

// AddScene registers a scene so that it is listed even when it has no lines.
func (b *Builder) AddScene(scene string) {
	if _, ok := b.corpus.scenes[scene]; ok {
		return
	}
	b.corpus.scenes[scene] = nil
	b.corpus.order = append(b.corpus.order, scene)
	if id, err := ParseSceneID(scene); err == nil {
		if _, taken := b.corpus.canonical[id.String()]; !taken {
			b.corpus.canonical[id.String()] = scene
		}
	}
}

// SetFingerprint records the digest of the source the corpus was read from.
func (b *Builder) SetFingerprint(fp string) {
	b.corpus.fingerprint = fp
}

// Build returns the finished corpus. The builder must not be used afterwards.
func (b *Builder) Build() *Corpus {
	c := b.corpus
	b.corpus = nil
	return c
}
