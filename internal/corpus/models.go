// Package corpus models the aggregated deck statistics scraped from EDHREC:
// commanders, their deck variants and each variant's card inclusions.
package corpus

import (
	"fmt"
	"strings"

	"github.com/danethurber/ponderous/internal/collection"
)

// Commander holds commander-level metadata. Optional fields are nil when the
// source did not provide them; they are never defaulted to zero.
type Commander struct {
	Name             string         `json:"name"`
	ColorIdentity    *ColorIdentity `json:"colorIdentity,omitempty"`
	PopularityRank   *int           `json:"popularityRank,omitempty"`
	TotalDeckCount   int            `json:"totalDeckCount"`
	AverageDeckPrice float64        `json:"averageDeckPrice"`
	SaltScore        *float64       `json:"saltScore,omitempty"`
	PowerLevel       *float64       `json:"powerLevel,omitempty"`
}

// ColorIdentityString renders the identity, or "?" when unknown.
func (c *Commander) ColorIdentityString() string {
	if c.ColorIdentity == nil {
		return "?"
	}
	return c.ColorIdentity.String()
}

// VariantKey identifies one archetype/budget combination for a commander.
type VariantKey struct {
	Commander string        `json:"commander"`
	Archetype Archetype     `json:"archetype"`
	Budget    BudgetBracket `json:"budget"`
}

// String renders the key as commander/archetype/budget.
func (k VariantKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Commander, k.Archetype, k.Budget)
}

// CardInclusion is one card's statistics within a deck variant.
type CardInclusion struct {
	CardName      string   `json:"cardName"`
	InclusionRate float64  `json:"inclusionRate"`
	SynergyScore  float64  `json:"synergyScore"`
	Category      Category `json:"category"`
}

// DeckVariant is one archetype/budget deck composition for a commander.
// Variants are independent; none is canonical.
type DeckVariant struct {
	Key          VariantKey      `json:"key"`
	Themes       []string        `json:"themes,omitempty"`
	SampleCount  int             `json:"sampleCount"`
	AveragePrice float64         `json:"averagePrice"`
	WinRate      *float64        `json:"winRate,omitempty"`
	Cards        []CardInclusion `json:"cards"`
}

// HasTheme reports whether the variant carries a theme tag, case-insensitively.
func (v *DeckVariant) HasTheme(theme string) bool {
	want := strings.ToLower(strings.TrimSpace(theme))
	for _, t := range v.Themes {
		if strings.ToLower(strings.TrimSpace(t)) == want {
			return true
		}
	}
	return false
}

// Validate reports malformed variant data: unknown enums, out-of-range
// rates and duplicate card names.
func (v *DeckVariant) Validate() error {
	if strings.TrimSpace(v.Key.Commander) == "" {
		return fmt.Errorf("variant has no commander")
	}
	if !v.Key.Archetype.Valid() {
		return fmt.Errorf("variant %s: unknown archetype %q", v.Key, v.Key.Archetype)
	}
	if !v.Key.Budget.Valid() {
		return fmt.Errorf("variant %s: unknown budget bracket %q", v.Key, v.Key.Budget)
	}
	if v.WinRate != nil && (*v.WinRate < 0 || *v.WinRate > 1) {
		return fmt.Errorf("variant %s: win rate %v out of range", v.Key, *v.WinRate)
	}

	seen := make(map[string]struct{}, len(v.Cards))
	for _, card := range v.Cards {
		key := collection.NormalizeName(card.CardName)
		if key == "" {
			return fmt.Errorf("variant %s: card with empty name", v.Key)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("variant %s: duplicate card %q", v.Key, card.CardName)
		}
		seen[key] = struct{}{}

		if card.InclusionRate < 0 || card.InclusionRate > 1 {
			return fmt.Errorf("variant %s: inclusion rate %v for %q out of range", v.Key, card.InclusionRate, card.CardName)
		}
		if !card.Category.Valid() {
			return fmt.Errorf("variant %s: unknown category %q for %q", v.Key, card.Category, card.CardName)
		}
	}

	return nil
}

// Card is card-level metadata used for collection-wide signals.
type Card struct {
	Name          string         `json:"name"`
	SetCode       string         `json:"setCode,omitempty"`
	ColorIdentity *ColorIdentity `json:"colorIdentity,omitempty"`
	ManaValue     *float64       `json:"manaValue,omitempty"`
	Price         *float64       `json:"price,omitempty"`
}
