// Package vectorstore provides a VecLite-based index of annotated lines for
// finding notes on passages related to a selection.
package vectorstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abdul-hamid-achik/veclite"
	"github.com/abdulachik/fathom/internal/annotation"
	"github.com/zeebo/blake3"
)

const (
	// Collection name for annotated lines
	linesCollection = "annotated_lines"

	defaultVectorWeight = 0.7
	defaultTextWeight   = 0.3
)

// Config holds configuration for the NoteStore.
type Config struct {
	// Path to the VecLite database file (e.g., "data/notes.veclite").
	Path string

	// ConfigPath is the path to veclite.yaml config file (optional).
	// If empty, searches ./veclite.yaml, ~/.veclite/config.yaml.
	ConfigPath string
}

// NoteStore wraps VecLite for annotated-line storage and search.
type NoteStore struct {
	vecdb    *veclite.DB
	coll     *veclite.Collection
	embedder veclite.Embedder
}

// SearchResult is an indexed line with its similarity to the query.
type SearchResult struct {
	VecLiteID  uint64
	Line       annotation.AnnotatedLine
	Similarity float32
}

// New opens (or creates) the related-notes index using veclite.yaml configuration.
func New(cfg Config) (*NoteStore, error) {
	slog.Debug("creating NoteStore", "path", cfg.Path, "config_path", cfg.ConfigPath)

	vecliteCfg, err := veclite.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load veclite config: %w", err)
	}

	embedder, err := veclite.NewEmbedderFromConfig(vecliteCfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	vecdb, err := veclite.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open veclite db: %w", err)
	}

	coll, err := vecdb.CreateCollection(linesCollection,
		veclite.WithDimension(embedder.Dimension()),
		veclite.WithDistanceType(veclite.DistanceCosine),
		veclite.WithHNSW(16, 200),
		veclite.WithTextIndex("text", "notes", "speaker", "scene"),
		veclite.WithEmbedder(embedder),
	)
	if err != nil {
		// Collection might already exist, try to get it
		coll, err = vecdb.GetCollection(linesCollection)
		if err != nil {
			vecdb.Close()
			return nil, fmt.Errorf("get collection: %w", err)
		}
	}

	slog.Info("opened related-notes index",
		"provider", vecliteCfg.Embedder.Provider,
		"lines", coll.Count(),
	)

	return &NoteStore{
		vecdb:    vecdb,
		coll:     coll,
		embedder: embedder,
	}, nil
}

// Close closes the VecLite database.
func (s *NoteStore) Close() error {
	if s.vecdb != nil {
		return s.vecdb.Close()
	}
	return nil
}

// InsertLine adds an annotated line to the index and returns its VecLite ID.
// The embedded text is the line followed by its notes.
func (s *NoteStore) InsertLine(ctx context.Context, line annotation.AnnotatedLine) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	id, err := s.coll.InsertText(embeddingText(line), linePayload(line))
	if err != nil {
		return 0, fmt.Errorf("insert line: %w", err)
	}
	return id, nil
}

// IndexResult summarizes an IndexCorpus run.
type IndexResult struct {
	Indexed int
	Skipped int
}

// IndexCorpus embeds every annotated line of corpus that carries notes and
// is not already in the index. A line whose text or notes changed since it
// was indexed is embedded again.
func (s *NoteStore) IndexCorpus(ctx context.Context, corpus *annotation.Corpus) (IndexResult, error) {
	result, err := indexCorpus(ctx, s, corpus)
	if err != nil {
		return result, err
	}

	if err := s.Sync(); err != nil {
		return result, fmt.Errorf("sync: %w", err)
	}

	slog.Info("indexed related notes",
		"indexed", result.Indexed,
		"skipped", result.Skipped,
		"total", s.Count(),
	)
	return result, nil
}

// lineIndex is the part of NoteStore that indexCorpus writes through.
type lineIndex interface {
	embed(text string) ([]float32, error)
	contains(vec []float32, key string) (bool, error)
	insert(line annotation.AnnotatedLine, vec []float32) error
}

func indexCorpus(ctx context.Context, idx lineIndex, corpus *annotation.Corpus) (IndexResult, error) {
	var result IndexResult
	for _, scene := range corpus.Scenes() {
		lines, _ := corpus.Lines(scene)
		for _, line := range lines {
			if len(line.Notes) == 0 {
				continue
			}
			if err := ctx.Err(); err != nil {
				return result, err
			}

			vec, err := idx.embed(embeddingText(line))
			if err != nil {
				return result, fmt.Errorf("%s line %d: embed: %w", scene, line.LineNumber, err)
			}

			found, err := idx.contains(vec, lineKey(line))
			if err != nil {
				return result, fmt.Errorf("%s line %d: %w", scene, line.LineNumber, err)
			}
			if found {
				result.Skipped++
				continue
			}

			if err := idx.insert(line, vec); err != nil {
				return result, fmt.Errorf("%s line %d: %w", scene, line.LineNumber, err)
			}
			result.Indexed++
		}
	}
	return result, nil
}

func (s *NoteStore) embed(text string) ([]float32, error) {
	return s.embedder.Embed(text)
}

func (s *NoteStore) contains(vec []float32, key string) (bool, error) {
	results, err := s.coll.Search(vec,
		veclite.TopK(1),
		veclite.WithFilter(veclite.Equal("key", key)),
	)
	if err != nil {
		return false, fmt.Errorf("lookup line: %w", err)
	}
	return len(results) > 0, nil
}

func (s *NoteStore) insert(line annotation.AnnotatedLine, vec []float32) error {
	if _, err := s.coll.InsertDocument(vec, embeddingText(line), linePayload(line)); err != nil {
		return fmt.Errorf("insert line: %w", err)
	}
	return nil
}

func linePayload(line annotation.AnnotatedLine) map[string]any {
	return map[string]any{
		"key":         lineKey(line),
		"scene":       line.SceneID,
		"line_number": line.LineNumber,
		"text":        line.RawText,
		"notes":       strings.Join(line.Notes, "\n"),
		"speaker":     line.Speaker(),
	}
}

// lineKey identifies one version of a line: its position plus a digest of
// the embedded text.
func lineKey(line annotation.AnnotatedLine) string {
	sum := blake3.Sum256([]byte(embeddingText(line)))
	return fmt.Sprintf("%s#%d#%s", line.SceneID, line.LineNumber, hex.EncodeToString(sum[:8]))
}

func embeddingText(line annotation.AnnotatedLine) string {
	if len(line.Notes) == 0 {
		return line.RawText
	}
	return line.RawText + "\n" + strings.Join(line.Notes, "\n")
}

// Search finds lines similar to the query text using vector search.
func (s *NoteStore) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	results, err := s.coll.SearchText(query, veclite.TopK(k))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return convertResults(results), nil
}

// TextSearch performs BM25 full-text search on indexed fields.
func (s *NoteStore) TextSearch(ctx context.Context, query string, k int) ([]SearchResult, error) {
	results, err := s.coll.TextSearch(query, veclite.TopK(k))
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return convertResults(results), nil
}

// HybridSearch combines vector and BM25 text search.
func (s *NoteStore) HybridSearch(ctx context.Context, query string, k int, vectorWeight, textWeight float64) ([]SearchResult, error) {
	queryVec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.coll.HybridSearch(queryVec, query,
		veclite.TopK(k),
		veclite.WithVectorWeight(vectorWeight),
		veclite.WithTextWeight(textWeight),
	)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	return convertResults(results), nil
}

// Related returns the annotated lines most similar to text. It satisfies
// the orchestrator's related-notes collaborator.
func (s *NoteStore) Related(ctx context.Context, text string, limit int) ([]annotation.AnnotatedLine, error) {
	results, err := s.HybridSearch(ctx, text, limit, defaultVectorWeight, defaultTextWeight)
	if err != nil {
		return nil, err
	}

	lines := make([]annotation.AnnotatedLine, 0, len(results))
	for _, r := range results {
		lines = append(lines, r.Line)
	}
	return lines, nil
}

// Count returns the number of indexed lines.
func (s *NoteStore) Count() int {
	return s.coll.Count()
}

// Stats returns statistics about the index.
func (s *NoteStore) Stats() veclite.CollectionStats {
	return s.coll.Stats()
}

// Sync persists any pending changes to disk.
func (s *NoteStore) Sync() error {
	return s.vecdb.Sync()
}

func convertResults(results []veclite.Result) []SearchResult {
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, SearchResult{
			VecLiteID:  r.Record.ID,
			Line:       lineFromPayload(r.Record.Payload, r.Record.Content),
			Similarity: r.Score,
		})
	}
	return out
}

// lineFromPayload rebuilds a line from a record payload. Numbers may come
// back as any of the integer or float kinds depending on the storage codec.
func lineFromPayload(payload map[string]any, content string) annotation.AnnotatedLine {
	var line annotation.AnnotatedLine

	if scene, ok := payload["scene"].(string); ok {
		line.SceneID = scene
	}
	switch n := payload["line_number"].(type) {
	case int:
		line.LineNumber = n
	case int64:
		line.LineNumber = int(n)
	case float64:
		line.LineNumber = int(n)
	}
	if text, ok := payload["text"].(string); ok {
		line.RawText = text
	}
	if notes, ok := payload["notes"].(string); ok && notes != "" {
		line.Notes = strings.Split(notes, "\n")
	}

	// Fall back to Content field for text
	if line.RawText == "" && content != "" {
		line.RawText = content
	}
	return line
}
