// Package bible parses the Geneva Bible plain-text edition into a searchable
// verse corpus.
package bible

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

var versePattern = regexp.MustCompile(`^\[(\d+):(\d+)\]\s*(.+)$`)

// Verse is a single verse with its comparison features.
type Verse struct {
	Book      string   `json:"book"`
	Chapter   int      `json:"chapter"`
	Verse     int      `json:"verse"`
	Text      string   `json:"text"`
	Reference string   `json:"reference"`
	Keywords  []string `json:"keywords"`
	Archaic   []string `json:"archaic"`
}

// Chapter is a run of verses sharing a chapter number.
type Chapter struct {
	Number int
	Verses []Verse
}

// Book is a canonical book and its chapters in document order.
type Book struct {
	Name     string
	Chapters []Chapter
}

// Corpus is a parsed Bible. It is immutable once built.
type Corpus struct {
	books       []Book
	verses      []Verse
	index       map[string]int
	fingerprint string
}

// Empty returns a corpus with no verses.
func Empty() *Corpus {
	return &Corpus{index: map[string]int{}}
}

// Books returns the books in document order.
func (c *Corpus) Books() []Book {
	return c.books
}

// Verses returns every verse in document order. The slice must not be modified.
func (c *Corpus) Verses() []Verse {
	return c.verses
}

// Len returns the number of verses.
func (c *Corpus) Len() int {
	return len(c.verses)
}

// Fingerprint returns the blake3 digest of the source text.
func (c *Corpus) Fingerprint() string {
	return c.fingerprint
}

// Lookup finds a verse by canonical book name, chapter and verse number.
func (c *Corpus) Lookup(book string, chapter, verse int) (Verse, bool) {
	i, ok := c.index[Reference(book, chapter, verse)]
	if !ok {
		return Verse{}, false
	}
	return c.verses[i], true
}

// Reference formats a verse reference such as "Genesis 1:1".
func Reference(book string, chapter, verse int) string {
	return fmt.Sprintf("%s %d:%d", book, chapter, verse)
}

// NewVerse builds a verse and derives its features.
func NewVerse(book string, chapter, verse int, text string) Verse {
	f := ExtractFeatures(text)
	return Verse{
		Book:      book,
		Chapter:   chapter,
		Verse:     verse,
		Text:      text,
		Reference: Reference(book, chapter, verse),
		Keywords:  f.Keywords,
		Archaic:   f.Archaic,
	}
}

// Parse reads the plain-text edition. Book headers are lines beginning with a
// canonical book name; verses are lines of the form "[c:v] text". Verses
// appearing before any book header are dropped, and other lines are ignored.
func Parse(text string) *Corpus {
	c := &Corpus{
		index:       make(map[string]int),
		fingerprint: Fingerprint([]byte(text)),
	}

	var (
		book    *Book
		chapter *Chapter
		dropped int
	)

	flushChapter := func() {
		if book != nil && chapter != nil && len(chapter.Verses) > 0 {
			book.Chapters = append(book.Chapters, *chapter)
		}
		chapter = nil
	}
	flushBook := func() {
		flushChapter()
		if book != nil {
			c.books = append(c.books, *book)
		}
		book = nil
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if m := versePattern.FindStringSubmatch(line); m != nil {
			if book == nil {
				dropped++
				continue
			}
			ch, _ := strconv.Atoi(m[1])
			vn, _ := strconv.Atoi(m[2])

			if chapter == nil || chapter.Number != ch {
				flushChapter()
				chapter = &Chapter{Number: ch}
			}

			v := NewVerse(book.Name, ch, vn, strings.TrimSpace(m[3]))
			chapter.Verses = append(chapter.Verses, v)
			if _, dup := c.index[v.Reference]; !dup {
				c.index[v.Reference] = len(c.verses)
			}
			c.verses = append(c.verses, v)
			continue
		}

		if name, ok := MatchBookHeader(line); ok {
			flushBook()
			book = &Book{Name: name}
		}
	}
	flushBook()

	if dropped > 0 {
		slog.Debug("dropped verses outside any book", "count", dropped)
	}

	return c
}

// LoadFile reads and parses the Bible text at path. Files ending in ".xz"
// are decompressed transparently.
func LoadFile(ctx context.Context, path string) (*Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

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

	corpus := Parse(string(data))

	slog.Debug("loaded bible corpus",
		"path", path,
		"books", len(corpus.books),
		"verses", corpus.Len(),
	)

	return corpus, nil
}

// Fingerprint returns the hex blake3 digest of data.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
