package analysis

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/corpus"
)

// AnalyzeOptions tunes the collection-wide report.
type AnalyzeOptions struct {
	// MissingStapleThreshold is the minimum number of variants a card must
	// appear in, as staple or above, to be reported as a missing staple.
	MissingStapleThreshold int
	MissingStapleLimit     int
	// PowerBaseline is the best-variant completion a commander needs to
	// count toward the collection power level.
	PowerBaseline float64
}

// DefaultAnalyzeOptions returns threshold 3, limit 25 and baseline 0.5.
func DefaultAnalyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{
		MissingStapleThreshold: 3,
		MissingStapleLimit:     25,
		PowerBaseline:          0.5,
	}
}

// ManaCurve buckets owned cards by mana value: index 0-5, then 6 for 6+.
type ManaCurve struct {
	Buckets [7]int `json:"buckets"`
	Unknown int    `json:"unknown"`
}

// StapleCard is a frequently played card the collection lacks.
type StapleCard struct {
	Name      string `json:"name"`
	Frequency int    `json:"frequency"` // variants listing it as staple or above
}

// CollectionAnalysis is a collection-wide report.
type CollectionAnalysis struct {
	UserID        string  `json:"userId"`
	TotalCards    int     `json:"totalCards"`
	UniqueCards   int     `json:"uniqueCards"`
	TotalValue    float64 `json:"totalValue"`
	UnpricedCards int     `json:"unpricedCards"`

	ColorDistribution map[corpus.Color]int `json:"colorDistribution"`
	ColorlessCards    int                  `json:"colorlessCards"`
	UnknownColorCards int                  `json:"unknownColorCards"`
	StrongestColors   []corpus.Color       `json:"strongestColors"`

	ArchetypeAffinity map[corpus.Archetype]float64 `json:"archetypeAffinity"`
	ThemeSupport      map[string]float64           `json:"themeSupport"`
	ManaCurve         ManaCurve                    `json:"manaCurve"`
	MissingStaples    []StapleCard                 `json:"missingStaples"`

	PowerLevel           float64 `json:"powerLevel"`
	PowerLevelCommanders int     `json:"powerLevelCommanders"`
}

// Analyze computes the collection-wide report. Cards without metadata are
// counted as unknown rather than guessed.
func Analyze(ctx context.Context, coll *collection.Collection, view CorpusView, opts AnalyzeOptions) (*CollectionAnalysis, error) {
	if coll == nil {
		return nil, &DataUnavailableError{Entity: "collection", Reason: "no collection loaded"}
	}
	if view == nil {
		return nil, &DataUnavailableError{Entity: "corpus", Reason: "no deck statistics loaded"}
	}

	a := &CollectionAnalysis{
		UserID:            coll.UserID,
		TotalCards:        coll.TotalCards(),
		UniqueCards:       coll.UniqueCards(),
		TotalValue:        coll.TotalValue(),
		UnpricedCards:     coll.UnpricedCards(),
		ArchetypeAffinity: make(map[corpus.Archetype]float64),
		ThemeSupport:      make(map[string]float64),
	}

	a.ColorDistribution, a.ColorlessCards, a.UnknownColorCards = colorDistribution(coll, view)
	a.StrongestColors = strongestColors(a.ColorDistribution)
	a.ManaCurve = manaCurve(coll, view)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	archetypePools := make(map[corpus.Archetype]map[string]struct{})
	themePools := make(map[string]map[string]struct{})
	frequency := make(map[string]int)
	displayName := make(map[string]string)

	var weightedPower, powerWeight float64
	for _, cmd := range view.Commanders() {
		best := -1.0
		for _, v := range view.Variants(cmd.Name) {
			if v.Validate() != nil || len(v.Cards) == 0 {
				continue
			}
			if score, err := ScoreComposition(coll, v.Cards, DefaultWeights()); err == nil && score.Completion > best {
				best = score.Completion
			}

			for _, card := range v.Cards {
				if !card.Category.AtLeast(corpus.Staple) {
					continue
				}
				key := collection.NormalizeName(card.CardName)
				addToPool(archetypePools, v.Key.Archetype, key)
				for _, t := range v.Themes {
					if theme := strings.ToLower(strings.TrimSpace(t)); theme != "" {
						addToPool(themePools, theme, key)
					}
				}
				frequency[key]++
				if _, ok := displayName[key]; !ok {
					displayName[key] = card.CardName
				}
			}
		}

		if cmd.PowerLevel != nil && best >= opts.PowerBaseline && best > 0 {
			weightedPower += best * *cmd.PowerLevel
			powerWeight += best
			a.PowerLevelCommanders++
		}
	}

	for arch, pool := range archetypePools {
		a.ArchetypeAffinity[arch] = ownedFraction(coll, pool)
	}
	for theme, pool := range themePools {
		a.ThemeSupport[theme] = ownedFraction(coll, pool)
	}
	if powerWeight > 0 {
		a.PowerLevel = weightedPower / powerWeight
	}
	a.MissingStaples = missingStaples(coll, frequency, displayName, opts)

	return a, nil
}

// colorDistribution counts unique owned cards per color. Colorless cards
// and cards with no known identity are counted separately.
func colorDistribution(coll *collection.Collection, view CorpusView) (counts map[corpus.Color]int, colorless, unknown int) {
	counts = make(map[corpus.Color]int, len(corpus.AllColors))
	for _, c := range corpus.AllColors {
		counts[c] = 0
	}
	for _, card := range coll.Cards() {
		if card.TotalQuantity() == 0 {
			continue
		}
		info, ok := view.CardInfo(card.Name)
		if !ok || info.ColorIdentity == nil {
			unknown++
			continue
		}
		if *info.ColorIdentity == corpus.Colorless {
			colorless++
			continue
		}
		for _, c := range info.ColorIdentity.Colors() {
			counts[c]++
		}
	}
	return counts, colorless, unknown
}

// strongestColors ranks colors with at least one card by count, ties
// broken by color code.
func strongestColors(counts map[corpus.Color]int) []corpus.Color {
	out := make([]corpus.Color, 0, len(corpus.AllColors))
	for _, c := range corpus.AllColors {
		if counts[c] > 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func manaCurve(coll *collection.Collection, view CorpusView) ManaCurve {
	var curve ManaCurve
	for _, card := range coll.Cards() {
		if card.TotalQuantity() == 0 {
			continue
		}
		info, ok := view.CardInfo(card.Name)
		if !ok || info.ManaValue == nil || math.IsNaN(*info.ManaValue) || math.IsInf(*info.ManaValue, 0) || *info.ManaValue < 0 {
			curve.Unknown++
			continue
		}
		bucket := int(math.Floor(*info.ManaValue))
		if bucket > 6 {
			bucket = 6
		}
		curve.Buckets[bucket]++
	}
	return curve
}

func addToPool[K comparable](pools map[K]map[string]struct{}, key K, card string) {
	pool, ok := pools[key]
	if !ok {
		pool = make(map[string]struct{})
		pools[key] = pool
	}
	pool[card] = struct{}{}
}

func ownedFraction(owned collection.Ownership, pool map[string]struct{}) float64 {
	if len(pool) == 0 {
		return 0
	}
	n := 0
	for card := range pool {
		if owned.Owns(card) {
			n++
		}
	}
	return float64(n) / float64(len(pool))
}

func missingStaples(owned collection.Ownership, frequency map[string]int, displayName map[string]string, opts AnalyzeOptions) []StapleCard {
	threshold := opts.MissingStapleThreshold
	if threshold < 1 {
		threshold = 1
	}

	out := []StapleCard{}
	for key, freq := range frequency {
		if freq < threshold || owned.Owns(key) {
			continue
		}
		out = append(out, StapleCard{Name: displayName[key], Frequency: freq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return collection.NormalizeName(out[i].Name) < collection.NormalizeName(out[j].Name)
	})

	if opts.MissingStapleLimit > 0 && len(out) > opts.MissingStapleLimit {
		out = out[:opts.MissingStapleLimit]
	}
	return out
}
