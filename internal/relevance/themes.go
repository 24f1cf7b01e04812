package relevance

import "strings"

// Theme is a Biblical motif identified by a set of marker words.
type Theme struct {
	Name    string
	Markers []string
}

// Dictionary is the fixed set of theme dictionaries, in reporting order.
var Dictionary = []Theme{
	{"creation", []string{"create", "creation", "beginning", "heaven", "earth", "light", "darkness", "firmament", "formed"}},
	{"salvation", []string{"save", "salvation", "saviour", "redeem", "deliver", "grace", "mercy", "forgive", "sin"}},
	{"wisdom", []string{"wisdom", "wise", "understanding", "knowledge", "counsel", "fool", "instruction"}},
	{"love", []string{"love", "beloved", "charity", "compassion", "kindness", "heart"}},
	{"justice", []string{"judge", "judgment", "righteous", "wicked", "justice", "punish", "vengeance", "blood"}},
	{"prophecy", []string{"prophet", "prophecy", "vision", "dream", "sign", "oracle", "foretold"}},
	{"kingdom", []string{"king", "kingdom", "throne", "crown", "reign", "prince", "scepter"}},
	{"covenant", []string{"covenant", "promise", "oath", "swear", "sware", "testament"}},
	{"temple", []string{"temple", "altar", "sacrifice", "priest", "sanctuary", "offering", "holy"}},
	{"exile", []string{"exile", "captivity", "captive", "banish", "wilderness", "wander", "babylon"}},
}

// Themes returns the names of the themes any keyword belongs to, without
// duplicates, in dictionary order. A keyword belongs to a theme when it or
// one of the theme's markers is a substring of the other.
func Themes(keywords []string) []string {
	var out []string
	for _, theme := range Dictionary {
		if belongs(keywords, theme.Markers) {
			out = append(out, theme.Name)
		}
	}
	return out
}

func belongs(keywords, markers []string) bool {
	for _, kw := range keywords {
		for _, m := range markers {
			if strings.Contains(kw, m) || strings.Contains(m, kw) {
				return true
			}
		}
	}
	return false
}
