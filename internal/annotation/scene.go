package annotation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrInvalidSceneID is returned when a scene identifier cannot be parsed.
var ErrInvalidSceneID = errors.New("invalid scene id")

// SceneID is a parsed act/scene pair.
type SceneID struct {
	Act   int
	Scene int
}

// String renders the canonical document key, e.g. "ACT 1, SCENE 1".
func (s SceneID) String() string {
	return fmt.Sprintf("ACT %d, SCENE %d", s.Act, s.Scene)
}

// Less orders scenes by act, then scene.
func (s SceneID) Less(other SceneID) bool {
	if s.Act != other.Act {
		return s.Act < other.Act
	}
	return s.Scene < other.Scene
}

// sceneGrammar accepts "ACT 1, SCENE 1", "Act I Scene ii", "act 1 sc. 2" and "1.2".
//
//nolint:govet // participle grammar tags are not standard struct tags
type sceneGrammar struct {
	Long  *longScene  `  @@`
	Short *shortScene `| @@`
}

//nolint:govet // participle grammar tags are not standard struct tags
type longScene struct {
	Act   string `"act" "."? @(Int | Word) ","?`
	Scene string `("scene" | "sc") "."? @(Int | Word)`
}

//nolint:govet // participle grammar tags are not standard struct tags
type shortScene struct {
	Act   string `@Int "."`
	Scene string `@Int`
}

var sceneLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Word", Pattern: `[A-Za-z]+`},
	{Name: "Punct", Pattern: `[.,:]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var sceneParser = participle.MustBuild[sceneGrammar](
	participle.Lexer(sceneLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Word"),
)

// ParseSceneID parses a scene identifier in any of the accepted spellings.
// Acts and scenes may be arabic or roman numerals.
func ParseSceneID(s string) (SceneID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SceneID{}, fmt.Errorf("%w: empty", ErrInvalidSceneID)
	}

	parsed, err := sceneParser.ParseString("", s)
	if err != nil {
		return SceneID{}, fmt.Errorf("%w: %q: %v", ErrInvalidSceneID, s, err)
	}

	var actText, sceneText string
	switch {
	case parsed.Long != nil:
		actText, sceneText = parsed.Long.Act, parsed.Long.Scene
	case parsed.Short != nil:
		actText, sceneText = parsed.Short.Act, parsed.Short.Scene
	}

	act, err := parseNumeral(actText)
	if err != nil {
		return SceneID{}, fmt.Errorf("%w: act %q: %v", ErrInvalidSceneID, actText, err)
	}
	scene, err := parseNumeral(sceneText)
	if err != nil {
		return SceneID{}, fmt.Errorf("%w: scene %q: %v", ErrInvalidSceneID, sceneText, err)
	}

	return SceneID{Act: act, Scene: scene}, nil
}

var romanValues = map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50}

// parseNumeral accepts a positive arabic number or a roman numeral up to L.
func parseNumeral(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("must be positive")
		}
		return n, nil
	}

	s = strings.ToUpper(s)
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanValues[s[i]]
		if !ok {
			return 0, fmt.Errorf("not a numeral")
		}
		if i+1 < len(s) && romanValues[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	if total <= 0 {
		return 0, fmt.Errorf("not a numeral")
	}
	return total, nil
}
