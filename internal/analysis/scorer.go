// Package analysis scores how buildable Commander decks are from an owned
// collection and ranks commanders across the deck statistics corpus.
//
// Everything here is a pure computation over in-memory snapshots: the
// collection, the corpus and the price book are never modified, so the
// functions and Engine methods are safe for concurrent use.
package analysis

import (
	"fmt"

	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/corpus"
)

// Weights maps each card category to its buildability weight.
type Weights map[corpus.Category]float64

// DefaultWeights returns signature 3.0, high_synergy 2.0, staple 1.5, basic 1.0.
func DefaultWeights() Weights {
	return Weights{
		corpus.Signature:   3.0,
		corpus.HighSynergy: 2.0,
		corpus.Staple:      1.5,
		corpus.Basic:       1.0,
	}
}

// Validate requires a non-negative weight for every category and at least one positive weight.
func (w Weights) Validate() error {
	total := 0.0
	for _, c := range corpus.AllCategories {
		v, ok := w[c]
		if !ok {
			return fmt.Errorf("missing weight for category %s", c)
		}
		if v < 0 {
			return fmt.Errorf("weight for category %s cannot be negative: %v", c, v)
		}
		total += v
	}
	if total == 0 {
		return fmt.Errorf("at least one category weight must be positive")
	}
	return nil
}

// Score is the result of scoring one deck composition against owned cards.
type Score struct {
	Completion   float64 `json:"completion"`   // owned rows / rows, in [0,1]
	Buildability float64 `json:"buildability"` // weighted completion scaled to 0-10
	OwnedCards   int     `json:"ownedCards"`
	TotalCards   int     `json:"totalCards"`
}

// ScoreComposition computes completion and buildability for a composition.
// The deck size is the number of inclusion rows. An empty composition is a
// *DataUnavailableError, never a zero score. A composition whose categories
// all weigh zero keeps its completion and scores zero buildability.
func ScoreComposition(owned collection.Ownership, cards []corpus.CardInclusion, w Weights) (Score, error) {
	if len(cards) == 0 {
		return Score{}, &DataUnavailableError{Entity: "composition", Reason: "no card inclusions"}
	}

	var ownedCount int
	var weighted, maxWeighted float64
	for _, card := range cards {
		weight := w[card.Category]
		maxWeighted += weight
		if owned != nil && owned.Owns(card.CardName) {
			ownedCount++
			weighted += weight
		}
	}

	score := Score{
		Completion: float64(ownedCount) / float64(len(cards)),
		OwnedCards: ownedCount,
		TotalCards: len(cards),
	}
	if maxWeighted > 0 {
		score.Buildability = weighted / maxWeighted * 10
	}
	return score, nil
}
