package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abdulachik/fathom/internal/annotation"
)

// ImportResult summarizes an ImportCorpus call.
type ImportResult struct {
	Total     int
	Written   int
	Unchanged int
	Removed   int64
}

// ImportOptions controls ImportCorpus.
type ImportOptions struct {
	// Source names the document the corpus came from.
	Source string

	// Replace deletes every stored line before importing, so every line of
	// the document is written again.
	Replace bool
}

// ImportCorpus makes the stored lines match corpus in a single transaction.
// Lines whose text, notes and position are unchanged are left untouched and
// lines absent from corpus are deleted.
func (s *Store) ImportCorpus(ctx context.Context, corpus *annotation.Corpus, opts ImportOptions) (*ImportResult, error) {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := s.Queries.WithTx(tx)
	result := &ImportResult{}

	if opts.Replace {
		result.Removed, err = q.DeleteAllLines(ctx)
		if err != nil {
			return nil, fmt.Errorf("delete lines: %w", err)
		}
	}

	for sceneOrder, scene := range corpus.Scenes() {
		lines, _ := corpus.Lines(scene)
		for lineOrder, line := range lines {
			params, err := lineParams(scene, sceneOrder, lineOrder, line)
			if err != nil {
				return nil, err
			}

			written, err := q.UpsertAnnotatedLine(ctx, params)
			if err != nil {
				return nil, fmt.Errorf("upsert %s line %d: %w", scene, line.LineNumber, err)
			}

			result.Total++
			if written {
				result.Written++
			} else {
				result.Unchanged++
			}
		}
	}

	stale, err := deleteMissingLines(ctx, q, corpus)
	if err != nil {
		return nil, err
	}
	result.Removed += stale

	if _, err := q.InsertCorpusImport(ctx, InsertCorpusImportParams{
		Fingerprint: corpus.Fingerprint(),
		Source:      opts.Source,
		LineCount:   int64(result.Total),
	}); err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	slog.Info("imported annotation corpus",
		"source", opts.Source,
		"lines", result.Total,
		"written", result.Written,
		"unchanged", result.Unchanged,
		"removed", result.Removed,
	)

	return result, nil
}

type lineKey struct {
	scene  string
	number int64
}

// deleteMissingLines removes stored lines that the document no longer has,
// so the store mirrors the document whose fingerprint the import records.
func deleteMissingLines(ctx context.Context, q *Queries, corpus *annotation.Corpus) (int64, error) {
	keep := make(map[lineKey]struct{}, corpus.Len())
	for _, scene := range corpus.Scenes() {
		lines, _ := corpus.Lines(scene)
		for _, line := range lines {
			keep[lineKey{scene, int64(line.LineNumber)}] = struct{}{}
		}
	}

	stored, err := q.ListAnnotatedLines(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored lines: %w", err)
	}

	var removed int64
	for _, row := range stored {
		if _, ok := keep[lineKey{row.SceneID, row.LineNumber}]; ok {
			continue
		}
		if err := q.DeleteAnnotatedLine(ctx, row.ID); err != nil {
			return removed, fmt.Errorf("delete %s line %d: %w", row.SceneID, row.LineNumber, err)
		}
		removed++
	}
	return removed, nil
}

func lineParams(scene string, sceneOrder, lineOrder int, line annotation.AnnotatedLine) (UpsertAnnotatedLineParams, error) {
	notes := line.Notes
	if notes == nil {
		notes = []string{}
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return UpsertAnnotatedLineParams{}, fmt.Errorf("marshal notes for %s line %d: %w", scene, line.LineNumber, err)
	}

	return UpsertAnnotatedLineParams{
		SceneID:    scene,
		SceneOrder: int64(sceneOrder),
		LineOrder:  int64(lineOrder),
		LineNumber: int64(line.LineNumber),
		RawText:    line.RawText,
		Notes:      string(notesJSON),
		TextHash:   annotation.Fingerprint(append([]byte(line.RawText+"\x00"), notesJSON...)),
	}, nil
}

// LoadAnnotations rebuilds the in-memory corpus from the stored lines.
// It implements annotation.Source.
func (s *Store) LoadAnnotations(ctx context.Context) (*annotation.Corpus, error) {
	rows, err := s.ListAnnotatedLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("list annotated lines: %w", err)
	}

	b := annotation.NewBuilder()
	for _, r := range rows {
		var notes []string
		if err := json.Unmarshal([]byte(r.Notes), &notes); err != nil {
			return nil, fmt.Errorf("decode notes for %s line %d: %w", r.SceneID, r.LineNumber, err)
		}
		if len(notes) == 0 {
			notes = nil
		}

		b.AddScene(r.SceneID)
		b.Add(annotation.AnnotatedLine{
			SceneID:    r.SceneID,
			LineNumber: int(r.LineNumber),
			RawText:    r.RawText,
			Notes:      notes,
		})
	}

	latest, err := s.GetLatestImport(ctx)
	switch {
	case err == nil:
		b.SetFingerprint(latest.Fingerprint)
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("get latest import: %w", err)
	}

	corpus := b.Build()
	slog.Debug("loaded annotation corpus from database", "scenes", len(corpus.Scenes()), "lines", corpus.Len())
	return corpus, nil
}
