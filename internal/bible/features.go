package bible

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minKeywordLen is the length a token must exceed to become a keyword.
const minKeywordLen = 2

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)

// ArchaicWords are Early Modern English markers shared by Shakespeare and the
// Geneva Bible.
var ArchaicWords = []string{
	"thee", "thou", "thy", "thine", "ye", "hath", "doth", "dost", "hast",
	"art", "shalt", "wilt", "wast", "wert", "shouldst", "wouldst", "couldst",
	"didst", "canst", "unto", "prithee", "ere", "nay", "yea", "verily",
	"wherefore", "whence", "whither", "hither", "thither", "thence", "hence",
	"lo", "behold", "saith", "cometh", "goeth", "maketh", "giveth", "taketh",
	"methinks", "anon", "oft", "whilst", "betwixt", "forsooth", "hark", "alack",
}

// Stopwords are common English function words excluded from keywords.
var Stopwords = []string{
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can",
	"her", "was", "one", "our", "out", "his", "has", "had", "him", "how",
	"its", "may", "new", "now", "old", "see", "two", "who", "did", "get",
	"she", "too", "use", "that", "with", "have", "this", "will", "your",
	"from", "they", "been", "were", "said", "each", "which", "their", "there",
	"what", "about", "would", "make", "like", "into", "than", "them", "these",
	"some", "then", "when", "upon", "also", "shall", "should", "could", "other",
	"such", "only", "very", "more", "most", "many", "much", "over", "where",
	"while", "those", "because", "being", "before", "after", "here", "even",
	"just", "both", "does", "doing", "let", "yet", "nor", "own", "same", "why",
	"whom", "whose", "again", "every", "through", "under",
}

var (
	archaicSet  = toSet(ArchaicWords)
	stopwordSet = toSet(Stopwords)
)

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsArchaic reports whether word is in the archaic vocabulary.
func IsArchaic(word string) bool {
	_, ok := archaicSet[word]
	return ok
}

// Features are the comparison features of a text: content keywords and
// archaic markers, each deduplicated in first-seen order.
type Features struct {
	Keywords []string
	Archaic  []string
}

// ExtractFeatures lowercases text, strips non-word characters, splits on
// whitespace and sorts tokens into keywords and archaic markers. Archaic
// markers are recognised before the length filter so "ye" and "lo" count.
func ExtractFeatures(text string) Features {
	tokens := Tokenize(text)

	var f Features
	seenKw := make(map[string]struct{})
	seenAr := make(map[string]struct{})

	for _, tok := range tokens {
		if IsArchaic(tok) {
			if _, ok := seenAr[tok]; !ok {
				seenAr[tok] = struct{}{}
				f.Archaic = append(f.Archaic, tok)
			}
			continue
		}
		if utf8.RuneCountInString(tok) <= minKeywordLen {
			continue
		}
		if _, stop := stopwordSet[tok]; stop {
			continue
		}
		if _, ok := seenKw[tok]; ok {
			continue
		}
		seenKw[tok] = struct{}{}
		f.Keywords = append(f.Keywords, tok)
	}

	return f
}

// Tokenize lowercases text, removes punctuation and splits on whitespace.
func Tokenize(text string) []string {
	clean := nonWord.ReplaceAllString(strings.ToLower(text), "")
	return strings.Fields(clean)
}
