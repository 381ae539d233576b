package analysis

import (
	"sort"

	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/corpus"
)

// DeckRecommendation is one commander variant scored against a collection.
type DeckRecommendation struct {
	Commander         string               `json:"commander"`
	Archetype         corpus.Archetype     `json:"archetype"`
	Budget            corpus.BudgetBracket `json:"budget"`
	Themes            []string             `json:"themes,omitempty"`
	Completion        float64              `json:"completion"`
	Buildability      float64              `json:"buildability"`
	OwnedCards        int                  `json:"ownedCards"`
	TotalCards        int                  `json:"totalCards"`
	MissingValue      float64              `json:"missingValue"`
	UnknownPrices     int                  `json:"unknownPrices"`
	HighImpactMissing int                  `json:"highImpactMissing"`
	Missing           []MissingCard        `json:"missing"`
	SampleCount       int                  `json:"sampleCount"`
	AveragePrice      float64              `json:"averagePrice"`
	WinRate           *float64             `json:"winRate,omitempty"`
}

// Key returns the variant key of the recommendation.
func (d *DeckRecommendation) Key() corpus.VariantKey {
	return corpus.VariantKey{Commander: d.Commander, Archetype: d.Archetype, Budget: d.Budget}
}

// EvaluateVariant scores a variant and builds its missing-card list.
// Malformed or empty variants return an error wrapping ErrDataUnavailable.
func EvaluateVariant(owned collection.Ownership, v *corpus.DeckVariant, prices Prices, w Weights, impact ImpactThreshold) (DeckRecommendation, error) {
	if err := v.Validate(); err != nil {
		return DeckRecommendation{}, &DataUnavailableError{Entity: "variant", Name: v.Key.String(), Reason: err.Error()}
	}

	score, err := ScoreComposition(owned, v.Cards, w)
	if err != nil {
		return DeckRecommendation{}, &DataUnavailableError{Entity: "variant", Name: v.Key.String(), Reason: "no card inclusions"}
	}
	report := MissingCards(owned, v.Cards, prices)

	return DeckRecommendation{
		Commander:         v.Key.Commander,
		Archetype:         v.Key.Archetype,
		Budget:            v.Key.Budget,
		Themes:            v.Themes,
		Completion:        score.Completion,
		Buildability:      score.Buildability,
		OwnedCards:        score.OwnedCards,
		TotalCards:        score.TotalCards,
		MissingValue:      report.TotalValue,
		UnknownPrices:     report.UnknownPrices,
		HighImpactMissing: len(report.HighImpact(impact)),
		Missing:           report.Cards,
		SampleCount:       v.SampleCount,
		AveragePrice:      v.AveragePrice,
		WinRate:           v.WinRate,
	}, nil
}

// headlineLess orders variants of one commander best first: highest
// buildability, then lowest missing value, then archetype name, then budget
// bracket from cheapest.
func headlineLess(a, b *DeckRecommendation) bool {
	if a.Buildability != b.Buildability {
		return a.Buildability > b.Buildability
	}
	if a.MissingValue != b.MissingValue {
		return a.MissingValue < b.MissingValue
	}
	if a.Archetype != b.Archetype {
		return a.Archetype < b.Archetype
	}
	return a.Budget.Order() < b.Budget.Order()
}

// sortHeadline sorts decks best first.
func sortHeadline(decks []DeckRecommendation) {
	sort.SliceStable(decks, func(i, j int) bool {
		return headlineLess(&decks[i], &decks[j])
	})
}
