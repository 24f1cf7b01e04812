package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries runs the application's SQL against a connection or transaction.
type Queries struct {
	db DBTX
}

// New creates Queries over db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const upsertAnnotatedLine = `
INSERT INTO annotated_lines (scene_id, scene_order, line_order, line_number, raw_text, notes, text_hash)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(scene_id, line_number) DO UPDATE SET
    scene_order = excluded.scene_order,
    line_order = excluded.line_order,
    raw_text = excluded.raw_text,
    notes = excluded.notes,
    text_hash = excluded.text_hash,
    updated_at = CURRENT_TIMESTAMP
WHERE annotated_lines.text_hash <> excluded.text_hash
   OR annotated_lines.scene_order <> excluded.scene_order
   OR annotated_lines.line_order <> excluded.line_order
`

// UpsertAnnotatedLineParams holds the columns written by UpsertAnnotatedLine.
type UpsertAnnotatedLineParams struct {
	SceneID    string
	SceneOrder int64
	LineOrder  int64
	LineNumber int64
	RawText    string
	Notes      string
	TextHash   string
}

// UpsertAnnotatedLine inserts a line or updates it when its content or
// position changed. It reports whether a row was written.
func (q *Queries) UpsertAnnotatedLine(ctx context.Context, arg UpsertAnnotatedLineParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, upsertAnnotatedLine,
		arg.SceneID,
		arg.SceneOrder,
		arg.LineOrder,
		arg.LineNumber,
		arg.RawText,
		arg.Notes,
		arg.TextHash,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const listAnnotatedLines = `
SELECT id, scene_id, scene_order, line_order, line_number, raw_text, notes, text_hash
FROM annotated_lines
ORDER BY scene_order, line_order, id
`

// ListAnnotatedLines returns every line in scene then document order.
func (q *Queries) ListAnnotatedLines(ctx context.Context) ([]AnnotatedLine, error) {
	rows, err := q.db.QueryContext(ctx, listAnnotatedLines)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AnnotatedLine
	for rows.Next() {
		var i AnnotatedLine
		if err := rows.Scan(
			&i.ID,
			&i.SceneID,
			&i.SceneOrder,
			&i.LineOrder,
			&i.LineNumber,
			&i.RawText,
			&i.Notes,
			&i.TextHash,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countLines = `SELECT COUNT(*) FROM annotated_lines`

// CountLines returns the number of stored lines.
func (q *Queries) CountLines(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countLines).Scan(&count)
	return count, err
}

const countLinesByScene = `
SELECT scene_id, COUNT(*)
FROM annotated_lines
GROUP BY scene_id
ORDER BY MIN(scene_order)
`

// CountLinesByScene returns line counts per scene in scene order.
func (q *Queries) CountLinesByScene(ctx context.Context) ([]SceneCount, error) {
	rows, err := q.db.QueryContext(ctx, countLinesByScene)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SceneCount
	for rows.Next() {
		var i SceneCount
		if err := rows.Scan(&i.SceneID, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAllLines = `DELETE FROM annotated_lines`

// DeleteAllLines removes every stored line.
func (q *Queries) DeleteAllLines(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAllLines)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteAnnotatedLine = `DELETE FROM annotated_lines WHERE id = ?`

// DeleteAnnotatedLine removes a single line by id.
func (q *Queries) DeleteAnnotatedLine(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteAnnotatedLine, id)
	return err
}

const insertCorpusImport = `
INSERT INTO corpus_imports (fingerprint, source, line_count)
VALUES (?, ?, ?)
`

// InsertCorpusImportParams holds the columns written by InsertCorpusImport.
type InsertCorpusImportParams struct {
	Fingerprint string
	Source      string
	LineCount   int64
}

// InsertCorpusImport records an import.
func (q *Queries) InsertCorpusImport(ctx context.Context, arg InsertCorpusImportParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertCorpusImport, arg.Fingerprint, arg.Source, arg.LineCount)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getLatestImport = `
SELECT id, fingerprint, source, line_count, CAST(imported_at AS TEXT)
FROM corpus_imports
ORDER BY id DESC
LIMIT 1
`

// GetLatestImport returns the most recent import. It returns sql.ErrNoRows
// when nothing has been imported.
func (q *Queries) GetLatestImport(ctx context.Context) (CorpusImport, error) {
	var i CorpusImport
	err := q.db.QueryRowContext(ctx, getLatestImport).Scan(
		&i.ID,
		&i.Fingerprint,
		&i.Source,
		&i.LineCount,
		&i.ImportedAt,
	)
	return i, err
}
