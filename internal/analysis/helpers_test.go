package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/corpus"
)

func ptr[T any](v T) *T {
	return &v
}

func inc(name string, cat corpus.Category, rate, synergy float64) corpus.CardInclusion {
	return corpus.CardInclusion{CardName: name, InclusionRate: rate, SynergyScore: synergy, Category: cat}
}

func variant(commander string, arch corpus.Archetype, budget corpus.BudgetBracket, price float64, cards ...corpus.CardInclusion) corpus.DeckVariant {
	return corpus.DeckVariant{
		Key:          corpus.VariantKey{Commander: commander, Archetype: arch, Budget: budget},
		SampleCount:  100,
		AveragePrice: price,
		Cards:        cards,
	}
}

func identity(t *testing.T, s string) *corpus.ColorIdentity {
	t.Helper()
	ci, err := corpus.ParseColorIdentity(s)
	require.NoError(t, err)
	return &ci
}

func newCollection(t *testing.T, names ...string) *collection.Collection {
	t.Helper()
	cards := make([]collection.OwnedCard, 0, len(names))
	for _, n := range names {
		cards = append(cards, collection.OwnedCard{Name: n, Quantity: 1})
	}
	coll, err := collection.New("tester", cards)
	require.NoError(t, err)
	return coll
}

func newEngine(t *testing.T, c *corpus.Corpus, prices Prices, workers int) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.Workers = workers
	opts.ColorBias = 0
	e, err := NewEngine(c, prices, opts)
	require.NoError(t, err)
	return e
}

func names(recs []CommanderRecommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

// fixtureCorpus builds a small corpus covering colors, archetypes, budgets
// and optional fields.
func fixtureCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()

	commanders := []corpus.Commander{
		{Name: "Meren of Clan Nel Toth", ColorIdentity: identity(t, "BG"), TotalDeckCount: 9000, PowerLevel: ptr(7.0), SaltScore: ptr(1.2), PopularityRank: ptr(12)},
		{Name: "Krenko, Mob Boss", ColorIdentity: identity(t, "R"), TotalDeckCount: 15000, PowerLevel: ptr(6.5), SaltScore: ptr(1.8), PopularityRank: ptr(3)},
		{Name: "Talrand, Sky Summoner", ColorIdentity: identity(t, "U"), TotalDeckCount: 7000, PowerLevel: ptr(6.0), SaltScore: ptr(0.9)},
		{Name: "Atraxa, Praetors' Voice", ColorIdentity: identity(t, "WUBG"), TotalDeckCount: 25000, PowerLevel: ptr(8.0), SaltScore: ptr(2.1), PopularityRank: ptr(1)},
		{Name: "Mystery Commander", TotalDeckCount: 100},
	}

	meren := "Meren of Clan Nel Toth"
	krenko := "Krenko, Mob Boss"
	talrand := "Talrand, Sky Summoner"
	atraxa := "Atraxa, Praetors' Voice"

	merenMid := variant(meren, corpus.Midrange, corpus.Mid, 320,
		inc("Sol Ring", corpus.Staple, 0.95, 0.0),
		inc("Spore Frog", corpus.HighSynergy, 0.6, 0.45),
		inc("Sakura-Tribe Elder", corpus.Staple, 0.7, 0.2),
		inc("Meren's Memory", corpus.Signature, 0.8, 0.7),
		inc("Swamp", corpus.Basic, 1.0, 0.0),
	)
	merenMid.Themes = []string{"Reanimator", "Aristocrats"}
	merenMid.WinRate = ptr(0.28)

	merenCombo := variant(meren, corpus.Combo, corpus.High, 800,
		inc("Sol Ring", corpus.Staple, 0.95, 0.0),
		inc("Demonic Tutor", corpus.Signature, 0.9, 0.3),
		inc("Spore Frog", corpus.HighSynergy, 0.5, 0.4),
		inc("Swamp", corpus.Basic, 1.0, 0.0),
	)
	merenCombo.Themes = []string{"Combo"}

	krenkoAggro := variant(krenko, corpus.Aggro, corpus.Budget, 120,
		inc("Sol Ring", corpus.Staple, 0.9, 0.0),
		inc("Goblin Chieftain", corpus.HighSynergy, 0.7, 0.5),
		inc("Mountain", corpus.Basic, 1.0, 0.0),
		inc("Skirk Prospector", corpus.Signature, 0.8, 0.6),
	)
	krenkoAggro.Themes = []string{"Tokens", "Goblins"}
	krenkoAggro.WinRate = ptr(0.3)

	talrandControl := variant(talrand, corpus.Control, corpus.Mid, 260,
		inc("Sol Ring", corpus.Staple, 0.9, 0.0),
		inc("Counterspell", corpus.Staple, 0.85, 0.2),
		inc("Island", corpus.Basic, 1.0, 0.0),
		inc("Talrand's Invocation", corpus.Signature, 0.5, 0.8),
	)
	talrandControl.Themes = []string{"Spellslinger"}

	atraxaMid := variant(atraxa, corpus.Midrange, corpus.CEDH, 2400,
		inc("Sol Ring", corpus.Staple, 0.95, 0.0),
		inc("Doubling Season", corpus.Signature, 0.6, 0.6),
		inc("Demonic Tutor", corpus.Staple, 0.7, 0.1),
		inc("Forest", corpus.Basic, 1.0, 0.0),
	)
	atraxaMid.Themes = []string{"Counters"}

	mystery := variant("Mystery Commander", corpus.Other, corpus.Budget, 90,
		inc("Sol Ring", corpus.Staple, 0.9, 0.0),
		inc("Wastes", corpus.Basic, 1.0, 0.0),
	)

	cards := []corpus.Card{
		{Name: "Sol Ring", ColorIdentity: identity(t, "C"), ManaValue: ptr(1.0)},
		{Name: "Spore Frog", ColorIdentity: identity(t, "G"), ManaValue: ptr(1.0)},
		{Name: "Sakura-Tribe Elder", ColorIdentity: identity(t, "G"), ManaValue: ptr(2.0)},
		{Name: "Demonic Tutor", ColorIdentity: identity(t, "B"), ManaValue: ptr(2.0)},
		{Name: "Counterspell", ColorIdentity: identity(t, "U"), ManaValue: ptr(2.0)},
		{Name: "Goblin Chieftain", ColorIdentity: identity(t, "R"), ManaValue: ptr(3.0)},
		{Name: "Doubling Season", ColorIdentity: identity(t, "G"), ManaValue: ptr(5.0)},
		{Name: "Swamp", ColorIdentity: identity(t, "C"), ManaValue: ptr(0.0)},
	}

	return corpus.New(commanders,
		[]corpus.DeckVariant{merenMid, merenCombo, krenkoAggro, talrandControl, atraxaMid, mystery},
		cards)
}

func fixturePrices() corpus.PriceBook {
	p := corpus.PriceBook{}
	p.Set("Sol Ring", 1.5)
	p.Set("Demonic Tutor", 35)
	p.Set("Spore Frog", 0.5)
	p.Set("Sakura-Tribe Elder", 0.4)
	p.Set("Goblin Chieftain", 1.2)
	p.Set("Skirk Prospector", 0.3)
	p.Set("Counterspell", 1.0)
	p.Set("Doubling Season", 45)
	return p
}
