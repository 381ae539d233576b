package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/corpus"
)

func missingNames(r MissingReport) []string {
	out := make([]string, len(r.Cards))
	for i, c := range r.Cards {
		out[i] = c.CardName
	}
	return out
}

func TestMissingCards_Ordering(t *testing.T) {
	cards := []corpus.CardInclusion{
		inc("Island", corpus.Basic, 1.0, 0),
		inc("Counterspell", corpus.Staple, 0.8, 0.1),
		inc("Arcane Signet", corpus.Staple, 0.8, 0.1),
		inc("Sol Ring", corpus.Staple, 0.95, 0.1),
		inc("Talrand's Invocation", corpus.Signature, 0.5, 0.8),
		inc("Mystic Remora", corpus.HighSynergy, 0.4, 0.6),
		inc("Rhystic Study", corpus.HighSynergy, 0.7, 0.3),
		inc("Owned Card", corpus.Signature, 0.9, 0.9),
	}

	report := MissingCards(collection.NewOwnedSet("Owned Card"), cards, nil)

	assert.Equal(t, []string{
		"Talrand's Invocation",
		"Mystic Remora",
		"Rhystic Study",
		"Sol Ring",
		"Arcane Signet",
		"Counterspell",
		"Island",
	}, missingNames(report))
}

func TestMissingCards_PermutationInvariant(t *testing.T) {
	cards := []corpus.CardInclusion{
		inc("B", corpus.Staple, 0.5, 0.1),
		inc("A", corpus.Staple, 0.5, 0.1),
		inc("C", corpus.Staple, 0.5, 0.1),
		inc("D", corpus.Signature, 0.2, 0.1),
	}
	prices := corpus.PriceBook{}
	prices.Set("A", 1.25)
	prices.Set("B", 2.5)
	prices.Set("C", 0.1)

	expected := MissingCards(nil, cards, prices)

	reversed := make([]corpus.CardInclusion, len(cards))
	for i, c := range cards {
		reversed[len(cards)-1-i] = c
	}
	assert.Equal(t, expected, MissingCards(nil, reversed, prices))
	assert.Equal(t, expected, MissingCards(nil, cards, prices))
	assert.Equal(t, []string{"D", "A", "B", "C"}, missingNames(expected))
}

func TestMissingCards_UnknownPrice(t *testing.T) {
	cards := []corpus.CardInclusion{
		inc("Sol Ring", corpus.Staple, 0.9, 0),
		inc("Mana Crypt", corpus.Staple, 0.6, 0),
		inc("Demonic Tutor", corpus.Signature, 0.8, 0.2),
	}
	prices := corpus.PriceBook{}
	prices.Set("Sol Ring", 1.5)
	prices.Set("Demonic Tutor", 35)

	report := MissingCards(collection.NewOwnedSet(), cards, prices)

	require.Len(t, report.Cards, 3)
	assert.InDelta(t, 36.5, report.TotalValue, 1e-9)
	assert.Equal(t, 1, report.UnknownPrices)

	var crypt *MissingCard
	for i := range report.Cards {
		if report.Cards[i].CardName == "Mana Crypt" {
			crypt = &report.Cards[i]
		}
	}
	require.NotNil(t, crypt, "card with unknown price must still be listed")
	assert.False(t, crypt.PriceKnown)
	assert.Zero(t, crypt.Price)
}

func TestMissingCards_AllOwned(t *testing.T) {
	cards := []corpus.CardInclusion{inc("Sol Ring", corpus.Staple, 0.9, 0)}
	report := MissingCards(collection.NewOwnedSet("Sol Ring"), cards, nil)
	assert.Empty(t, report.Cards)
	assert.Zero(t, report.TotalValue)
	assert.Zero(t, report.UnknownPrices)
}

func TestImpactThreshold(t *testing.T) {
	cards := []corpus.CardInclusion{
		inc("Signature", corpus.Signature, 0.1, 0),
		inc("Synergy", corpus.HighSynergy, 0.1, 0),
		inc("Popular Staple", corpus.Staple, 0.7, 0),
		inc("Niche Staple", corpus.Staple, 0.3, 0),
		inc("Basic", corpus.Basic, 1.0, 0),
	}
	report := MissingCards(nil, cards, nil)

	tests := []struct {
		name      string
		threshold ImpactThreshold
		want      []string
	}{
		{
			name:      "default",
			threshold: DefaultImpactThreshold(),
			want:      []string{"Signature", "Synergy", "Popular Staple", "Basic"},
		},
		{
			name:      "categories only",
			threshold: ImpactThreshold{Categories: []corpus.Category{corpus.Signature}},
			want:      []string{"Signature"},
		},
		{
			name:      "rate only",
			threshold: ImpactThreshold{MinInclusionRate: 0.25},
			want:      []string{"Popular Staple", "Niche Staple", "Basic"},
		},
		{
			name:      "nothing qualifies",
			threshold: ImpactThreshold{},
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, c := range report.HighImpact(tt.threshold) {
				got = append(got, c.CardName)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
