package corpus

import (
	"fmt"
	"strings"
)

// Archetype is a deck's strategic category.
type Archetype string

// Archetypes.
const (
	Aggro    Archetype = "aggro"
	Midrange Archetype = "midrange"
	Control  Archetype = "control"
	Combo    Archetype = "combo"
	Stax     Archetype = "stax"
	Other    Archetype = "other"
)

// AllArchetypes lists every archetype in lexical order.
var AllArchetypes = []Archetype{Aggro, Combo, Control, Midrange, Other, Stax}

// Valid reports whether a is a known archetype.
func (a Archetype) Valid() bool {
	switch a {
	case Aggro, Midrange, Control, Combo, Stax, Other:
		return true
	}
	return false
}

// ParseArchetype parses an archetype name, case-insensitively.
func ParseArchetype(s string) (Archetype, error) {
	a := Archetype(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown archetype %q", s)
	}
	return a, nil
}

// BudgetBracket is a price tier for a deck variant.
type BudgetBracket string

// Budget brackets, cheapest first.
const (
	Budget BudgetBracket = "budget"
	Mid    BudgetBracket = "mid"
	High   BudgetBracket = "high"
	CEDH   BudgetBracket = "cedh"
)

// AllBudgetBrackets lists brackets from cheapest to most expensive.
var AllBudgetBrackets = []BudgetBracket{Budget, Mid, High, CEDH}

// Order returns the bracket's position from cheapest (0). Unknown brackets sort last.
func (b BudgetBracket) Order() int {
	for i, v := range AllBudgetBrackets {
		if v == b {
			return i
		}
	}
	return len(AllBudgetBrackets)
}

// Valid reports whether b is a known bracket.
func (b BudgetBracket) Valid() bool {
	return b.Order() < len(AllBudgetBrackets)
}

// ParseBudgetBracket parses a bracket name, case-insensitively.
func ParseBudgetBracket(s string) (BudgetBracket, error) {
	b := BudgetBracket(strings.ToLower(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", fmt.Errorf("unknown budget bracket %q", s)
	}
	return b, nil
}

// BracketForPrice maps an average deck price to a bracket using the same
// cut-offs as commander recommendations (<150 budget, <500 mid, <1000 high).
func BracketForPrice(price float64) BudgetBracket {
	switch {
	case price < 150:
		return Budget
	case price < 500:
		return Mid
	case price < 1000:
		return High
	default:
		return CEDH
	}
}

// Category classifies how central a card is to a deck variant.
type Category string

// Card categories, most important first.
const (
	Signature   Category = "signature"
	HighSynergy Category = "high_synergy"
	Staple      Category = "staple"
	Basic       Category = "basic"
)

// AllCategories lists categories from most to least important.
var AllCategories = []Category{Signature, HighSynergy, Staple, Basic}

// Rank orders categories: signature 4, high_synergy 3, staple 2, basic 1, unknown 0.
func (c Category) Rank() int {
	switch c {
	case Signature:
		return 4
	case HighSynergy:
		return 3
	case Staple:
		return 2
	case Basic:
		return 1
	}
	return 0
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c.Rank() > 0
}

// AtLeast reports whether c ranks at or above other.
func (c Category) AtLeast(other Category) bool {
	return c.Rank() >= other.Rank()
}

// ParseCategory parses a category name, case-insensitively. Hyphens and
// spaces are accepted in place of underscores.
func ParseCategory(s string) (Category, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	c := Category(normalized)
	if !c.Valid() {
		return "", fmt.Errorf("unknown card category %q", s)
	}
	return c, nil
}
