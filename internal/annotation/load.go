package annotation

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for annotation files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported annotation format")

// Format is the serialization of an annotation document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// lineRecord is one line entry of the source document.
type lineRecord struct {
	Play  string   `json:"play" yaml:"play"`
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Source produces an annotation corpus.
type Source interface {
	LoadAnnotations(ctx context.Context) (*Corpus, error)
}

// FileSource loads annotations from a document on disk.
type FileSource struct {
	Path string
}

// LoadAnnotations implements Source.
func (f FileSource) LoadAnnotations(ctx context.Context) (*Corpus, error) {
	return LoadFile(ctx, f.Path)
}

// FormatForPath infers the document format from a file name. A trailing
// ".xz" is ignored.
func FormatForPath(path string) (Format, error) {
	name := strings.TrimSuffix(strings.ToLower(path), ".xz")
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// LoadFile reads and parses an annotation document. Files ending in ".xz"
// are decompressed transparently.
func LoadFile(ctx context.Context, path string) (*Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := ReadMaybeCompressed(path)
	if err != nil {
		return nil, err
	}

	corpus, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	slog.Debug("loaded annotation corpus",
		"path", path,
		"scenes", len(corpus.order),
		"lines", corpus.Len(),
	)

	return corpus, nil
}

// ReadMaybeCompressed reads a file, decompressing it when the name ends in ".xz".
func ReadMaybeCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open xz stream %s: %w", path, err)
		}
		r = xr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Fingerprint returns the hex blake3 digest of data.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Parse builds a corpus from a document keyed by scene, then by line number.
// Scene and line order follow the document. Line keys that are not integers
// are skipped.
func Parse(data []byte, format Format) (*Corpus, error) {
	b := NewBuilder()
	b.SetFingerprint(Fingerprint(data))

	var err error
	switch format {
	case FormatJSON:
		err = parseJSON(data, b)
	case FormatYAML:
		err = parseYAML(data, b)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return b.Build(), nil
}

func parseJSON(data []byte, b *Builder) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	for dec.More() {
		scene, err := stringToken(dec)
		if err != nil {
			return fmt.Errorf("read scene key: %w", err)
		}
		b.AddScene(scene)

		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("scene %q: %w", scene, err)
		}

		for dec.More() {
			key, err := stringToken(dec)
			if err != nil {
				return fmt.Errorf("scene %q: read line key: %w", scene, err)
			}

			var rec lineRecord
			if err := dec.Decode(&rec); err != nil {
				return fmt.Errorf("scene %q line %q: %w", scene, key, err)
			}

			addRecord(b, scene, key, rec)
		}

		if err := expectDelim(dec, '}'); err != nil {
			return fmt.Errorf("scene %q: %w", scene, err)
		}
	}

	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %v", tok)
	}
	return s, nil
}

func parseYAML(data []byte, b *Builder) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	// An empty document is an empty corpus.
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping of scenes at line %d", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		scene := root.Content[i].Value
		lines := root.Content[i+1]
		b.AddScene(scene)

		if lines.Kind != yaml.MappingNode {
			return fmt.Errorf("scene %q: expected a mapping of lines at line %d", scene, lines.Line)
		}

		for j := 0; j+1 < len(lines.Content); j += 2 {
			key := lines.Content[j].Value

			var rec lineRecord
			if err := lines.Content[j+1].Decode(&rec); err != nil {
				return fmt.Errorf("scene %q line %q: %w", scene, key, err)
			}

			addRecord(b, scene, key, rec)
		}
	}

	return nil
}

func addRecord(b *Builder, scene, key string, rec lineRecord) {
	number, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil {
		slog.Debug("skipping line with non-numeric key", "scene", scene, "key", key)
		return
	}

	b.Add(AnnotatedLine{
		SceneID:    scene,
		LineNumber: number,
		RawText:    rec.Play,
		Notes:      rec.Notes,
	})
}
