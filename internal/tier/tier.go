// Package tier defines the analysis depth requested by a reader.
package tier

import (
	"fmt"
	"strings"
)

// Tier controls annotation depth and the Biblical-context budget.
type Tier string

const (
	Basic          Tier = "basic"
	Intermediate   Tier = "intermediate"
	Expert         Tier = "expert"
	FullFathomFive Tier = "full-fathom-five"
)

// All lists every tier from shallowest to deepest.
var All = []Tier{Basic, Intermediate, Expert, FullFathomFive}

type policy struct {
	budget   int
	mode     string
	sections []string
}

var policies = map[Tier]policy{
	Basic: {
		budget: 0,
		mode:   "basic",
		sections: []string{
			"Plain Meaning",
			"Context",
		},
	},
	Intermediate: {
		budget: 2,
		mode:   "expert",
		sections: []string{
			"Plain Meaning",
			"Context",
			"Language and Imagery",
			"Themes",
		},
	},
	Expert: {
		budget: 3,
		mode:   "expert",
		sections: []string{
			"Plain Meaning",
			"Context",
			"Language and Imagery",
			"Themes",
			"Biblical Echoes",
			"Critical Perspectives",
		},
	},
	FullFathomFive: {
		budget: 5,
		mode:   "fullfathomfive",
		sections: []string{
			"Plain Meaning",
			"Context",
			"Language and Imagery",
			"Prosody",
			"Themes",
			"Biblical Echoes",
			"Sources and Textual History",
			"Performance History",
			"Critical Perspectives",
		},
	},
}

// Parse converts user input into a Tier. The generator's compact spelling
// "fullfathomfive" is accepted as an alias.
func Parse(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "basic":
		return Basic, nil
	case "intermediate":
		return Intermediate, nil
	case "expert":
		return Expert, nil
	case "full-fathom-five", "fullfathomfive", "full_fathom_five":
		return FullFathomFive, nil
	default:
		return "", fmt.Errorf("unknown tier %q (must be basic, intermediate, expert or full-fathom-five)", s)
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	_, ok := policies[t]
	return ok
}

// Budget returns how many Biblical passages the tier asks for.
// Zero means the relevance scorer is not consulted at all.
func (t Tier) Budget() int {
	return policies[t].budget
}

// WantsBibleContext reports whether the scorer runs for this tier.
func (t Tier) WantsBibleContext() bool {
	return t.Budget() > 0
}

// Mode is the level name sent to the commentary generator.
func (t Tier) Mode() string {
	if p, ok := policies[t]; ok {
		return p.mode
	}
	return policies[Basic].mode
}

// Sections returns the ordered section titles requested from the generator.
func (t Tier) Sections() []string {
	p, ok := policies[t]
	if !ok {
		p = policies[Basic]
	}
	out := make([]string, len(p.sections))
	copy(out, p.sections)
	return out
}

func (t Tier) String() string {
	return string(t)
}
