package analysis

import (
	"sort"

	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/corpus"
)

// Prices resolves estimated unit prices.
type Prices interface {
	UnitPrice(name string) (float64, bool)
}

// MissingCard is a deck card the collection does not own.
type MissingCard struct {
	CardName      string          `json:"cardName"`
	InclusionRate float64         `json:"inclusionRate"`
	SynergyScore  float64         `json:"synergyScore"`
	Category      corpus.Category `json:"category"`
	Price         float64         `json:"price"`
	PriceKnown    bool            `json:"priceKnown"`
}

// MissingReport lists missing cards in acquisition-impact order.
type MissingReport struct {
	Cards         []MissingCard `json:"cards"`
	TotalValue    float64       `json:"totalValue"`    // sum of known prices
	UnknownPrices int           `json:"unknownPrices"` // cards counted as 0 in TotalValue
}

// ImpactThreshold decides which missing cards are high impact: a card
// qualifies when its category is listed or its inclusion rate reaches
// MinInclusionRate. A MinInclusionRate of 0 disables the rate test.
type ImpactThreshold struct {
	Categories       []corpus.Category `json:"categories" toml:"categories"`
	MinInclusionRate float64           `json:"minInclusionRate" toml:"min_inclusion_rate"`
}

// DefaultImpactThreshold treats signature and high_synergy cards, or cards
// in at least 60% of decks, as high impact.
func DefaultImpactThreshold() ImpactThreshold {
	return ImpactThreshold{
		Categories:       []corpus.Category{corpus.Signature, corpus.HighSynergy},
		MinInclusionRate: 0.6,
	}
}

// IsHighImpact reports whether a missing card meets the threshold.
func (t ImpactThreshold) IsHighImpact(card MissingCard) bool {
	for _, c := range t.Categories {
		if card.Category == c {
			return true
		}
	}
	return t.MinInclusionRate > 0 && card.InclusionRate >= t.MinInclusionRate
}

// HighImpact returns the missing cards meeting the threshold, in report order.
func (r MissingReport) HighImpact(t ImpactThreshold) []MissingCard {
	var out []MissingCard
	for _, card := range r.Cards {
		if t.IsHighImpact(card) {
			out = append(out, card)
		}
	}
	return out
}

// MissingCards returns the composition rows not owned, ordered by category
// rank, then synergy descending, then inclusion rate descending, then name.
// Unknown prices are listed with PriceKnown false and add nothing to TotalValue.
func MissingCards(owned collection.Ownership, cards []corpus.CardInclusion, prices Prices) MissingReport {
	report := MissingReport{Cards: make([]MissingCard, 0, len(cards))}

	for _, card := range cards {
		if owned != nil && owned.Owns(card.CardName) {
			continue
		}
		mc := MissingCard{
			CardName:      card.CardName,
			InclusionRate: card.InclusionRate,
			SynergyScore:  card.SynergyScore,
			Category:      card.Category,
		}
		if prices != nil {
			mc.Price, mc.PriceKnown = prices.UnitPrice(card.CardName)
		}
		if !mc.PriceKnown {
			mc.Price = 0
		}
		report.Cards = append(report.Cards, mc)
	}

	sort.SliceStable(report.Cards, func(i, j int) bool {
		return missingLess(report.Cards[i], report.Cards[j])
	})

	// Summed after sorting so the result does not depend on input order.
	for _, mc := range report.Cards {
		if mc.PriceKnown {
			report.TotalValue += mc.Price
		} else {
			report.UnknownPrices++
		}
	}

	return report
}

func missingLess(a, b MissingCard) bool {
	if ra, rb := a.Category.Rank(), b.Category.Rank(); ra != rb {
		return ra > rb
	}
	if a.SynergyScore != b.SynergyScore {
		return a.SynergyScore > b.SynergyScore
	}
	if a.InclusionRate != b.InclusionRate {
		return a.InclusionRate > b.InclusionRate
	}
	na, nb := collection.NormalizeName(a.CardName), collection.NormalizeName(b.CardName)
	if na != nb {
		return na < nb
	}
	return a.CardName < b.CardName
}
