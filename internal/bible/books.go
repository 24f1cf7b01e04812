package bible

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CanonicalBooks lists the 66 books of the Protestant canon in order.
var CanonicalBooks = []string{
	// Old Testament
	"Genesis", "Exodus", "Leviticus", "Numbers", "Deuteronomy",
	"Joshua", "Judges", "Ruth", "1 Samuel", "2 Samuel",
	"1 Kings", "2 Kings", "1 Chronicles", "2 Chronicles", "Ezra",
	"Nehemiah", "Esther", "Job", "Psalms", "Proverbs",
	"Ecclesiastes", "Song of Solomon", "Isaiah", "Jeremiah", "Lamentations",
	"Ezekiel", "Daniel", "Hosea", "Joel", "Amos",
	"Obadiah", "Jonah", "Micah", "Nahum", "Habakkuk",
	"Zephaniah", "Haggai", "Zechariah", "Malachi",

	// New Testament
	"Matthew", "Mark", "Luke", "John", "Acts",
	"Romans", "1 Corinthians", "2 Corinthians", "Galatians", "Ephesians",
	"Philippians", "Colossians", "1 Thessalonians", "2 Thessalonians", "1 Timothy",
	"2 Timothy", "Titus", "Philemon", "Hebrews", "James",
	"1 Peter", "2 Peter", "1 John", "2 John", "3 John",
	"Jude", "Revelation",
}

// headerPrefixes holds the lowercased book names, longest first, so that a
// header is attributed to the most specific name.
var headerPrefixes = func() []string {
	out := make([]string, len(CanonicalBooks))
	for i, b := range CanonicalBooks {
		out[i] = strings.ToLower(b)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}()

var canonicalByLower = func() map[string]string {
	m := make(map[string]string, len(CanonicalBooks))
	for _, b := range CanonicalBooks {
		m[strings.ToLower(b)] = b
	}
	return m
}()

// MatchBookHeader reports whether line begins with a canonical book name,
// case-insensitively, and returns the canonical spelling. The name must end
// at a word boundary, so "Johnson" is not a header for "John".
func MatchBookHeader(line string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, prefix := range headerPrefixes {
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		rest := lower[len(prefix):]
		if r, _ := utf8.DecodeRuneInString(rest); rest != "" && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		return canonicalByLower[prefix], true
	}
	return "", false
}
