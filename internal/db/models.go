package db

// AnnotatedLine is a row of annotated_lines. Notes holds a JSON array.
type AnnotatedLine struct {
	ID         int64
	SceneID    string
	SceneOrder int64
	LineOrder  int64
	LineNumber int64
	RawText    string
	Notes      string
	TextHash   string
}

// CorpusImport records one import of an annotation document.
type CorpusImport struct {
	ID          int64
	Fingerprint string
	Source      string
	LineCount   int64
	ImportedAt  string
}

// SceneCount is the number of lines stored for a scene.
type SceneCount struct {
	SceneID string
	Count   int64
}
