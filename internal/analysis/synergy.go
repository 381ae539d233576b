package analysis

import (
	"sort"

	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/corpus"
)

// DefaultSynergyTopN is how many key cards per commander feed the collection synergy score.
const DefaultSynergyTopN = 30

type keyCard struct {
	name      string
	category  corpus.Category
	synergy   float64
	inclusion float64
}

// commanderKeyCards collects the signature and high_synergy cards across
// every variant of a commander, deduplicated by name with the strongest
// row kept, and returns the top n by category, synergy, inclusion and name.
func commanderKeyCards(variants []*corpus.DeckVariant, n int) []keyCard {
	byName := make(map[string]keyCard)
	for _, v := range variants {
		for _, card := range v.Cards {
			if !card.Category.AtLeast(corpus.HighSynergy) {
				continue
			}
			key := collection.NormalizeName(card.CardName)
			if key == "" {
				continue
			}
			candidate := keyCard{name: key, category: card.Category, synergy: card.SynergyScore, inclusion: card.InclusionRate}
			if existing, ok := byName[key]; !ok || keyCardLess(candidate, existing) {
				byName[key] = candidate
			}
		}
	}

	cards := make([]keyCard, 0, len(byName))
	for _, c := range byName {
		cards = append(cards, c)
	}
	sort.Slice(cards, func(i, j int) bool {
		return keyCardLess(cards[i], cards[j])
	})

	if n > 0 && len(cards) > n {
		cards = cards[:n]
	}
	return cards
}

func keyCardLess(a, b keyCard) bool {
	if ra, rb := a.category.Rank(), b.category.Rank(); ra != rb {
		return ra > rb
	}
	if a.synergy != b.synergy {
		return a.synergy > b.synergy
	}
	if a.inclusion != b.inclusion {
		return a.inclusion > b.inclusion
	}
	return a.name < b.name
}

// keyCardOverlap returns the weighted fraction of key cards owned, in [0,1].
// It reports false when the commander has no key cards.
func keyCardOverlap(owned collection.Ownership, cards []keyCard, w Weights) (float64, bool) {
	var ownedWeight, total float64
	for _, c := range cards {
		weight := w[c.category]
		total += weight
		if owned != nil && owned.Owns(c.name) {
			ownedWeight += weight
		}
	}
	if total == 0 {
		return 0, false
	}
	return ownedWeight / total, true
}

// colorProfile is the share of the collection's colored cards in each color.
type colorProfile struct {
	counts map[corpus.Color]int
	total  int
}

func newColorProfile(counts map[corpus.Color]int) *colorProfile {
	p := &colorProfile{counts: counts}
	for _, c := range corpus.AllColors {
		p.total += counts[c]
	}
	if p.total == 0 {
		return nil
	}
	return p
}

// affinity returns the share of colored owned cards whose colors fall in
// the identity. Colorless identities and unknown profiles report false.
func (p *colorProfile) affinity(ci *corpus.ColorIdentity) (float64, bool) {
	if p == nil || ci == nil || *ci == corpus.Colorless {
		return 0, false
	}
	matched := 0
	for _, c := range ci.Colors() {
		matched += p.counts[c]
	}
	share := float64(matched) / float64(p.total)
	if share > 1 {
		share = 1
	}
	return share, true
}

// collectionSynergy blends key-card overlap with color affinity:
// (1-bias)*overlap + bias*affinity. Without an affinity signal the overlap
// is returned unchanged.
func collectionSynergy(owned collection.Ownership, cmd *corpus.Commander, variants []*corpus.DeckVariant, w Weights, topN int, bias float64, profile *colorProfile) float64 {
	overlap, _ := keyCardOverlap(owned, commanderKeyCards(variants, topN), w)
	if bias <= 0 {
		return overlap
	}
	affinity, ok := profile.affinity(cmd.ColorIdentity)
	if !ok {
		return overlap
	}
	return (1-bias)*overlap + bias*affinity
}
