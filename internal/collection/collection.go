// Package collection models a user's owned cards.
package collection

import (
	"fmt"
	"sort"
	"strings"
)

// OwnedCard is a single card entry in a collection.
type OwnedCard struct {
	Name         string   `json:"name"`
	Quantity     int      `json:"quantity"`
	FoilQuantity int      `json:"foilQuantity"`
	UnitPrice    *float64 `json:"unitPrice,omitempty"` // nil when the price is unknown
}

// TotalQuantity returns regular plus foil copies.
func (c OwnedCard) TotalQuantity() int {
	return c.Quantity + c.FoilQuantity
}

// Value returns the card's total value and whether the price was known.
func (c OwnedCard) Value() (float64, bool) {
	if c.UnitPrice == nil {
		return 0, false
	}
	return float64(c.TotalQuantity()) * *c.UnitPrice, true
}

// NormalizeName lower-cases a card name and collapses whitespace so that
// "Sol  Ring" and "sol ring" identify the same card.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Ownership reports whether a card is owned.
type Ownership interface {
	Owns(name string) bool
}

// OwnedSet is a set of normalized card names.
type OwnedSet map[string]struct{}

// NewOwnedSet builds a set from raw card names.
func NewOwnedSet(names ...string) OwnedSet {
	s := make(OwnedSet, len(names))
	for _, n := range names {
		if key := NormalizeName(n); key != "" {
			s[key] = struct{}{}
		}
	}
	return s
}

// Owns reports whether name is in the set.
func (s OwnedSet) Owns(name string) bool {
	_, ok := s[NormalizeName(name)]
	return ok
}

// Len returns the number of distinct names.
func (s OwnedSet) Len() int {
	return len(s)
}

// Collection is one user's card collection keyed by normalized card name.
// It is read-only once constructed.
type Collection struct {
	UserID string

	cards map[string]OwnedCard
	owned OwnedSet
}

// New builds a collection. Entries sharing a normalized name (for example
// the same card from several printings) are merged: quantities are summed
// and the first known price is kept.
func New(userID string, cards []OwnedCard) (*Collection, error) {
	c := &Collection{
		UserID: userID,
		cards:  make(map[string]OwnedCard, len(cards)),
		owned:  make(OwnedSet, len(cards)),
	}

	for _, card := range cards {
		key := NormalizeName(card.Name)
		if key == "" {
			return nil, fmt.Errorf("card name cannot be empty")
		}
		if card.Quantity < 0 || card.FoilQuantity < 0 {
			return nil, fmt.Errorf("negative quantity for card %q", card.Name)
		}

		if existing, ok := c.cards[key]; ok {
			existing.Quantity += card.Quantity
			existing.FoilQuantity += card.FoilQuantity
			if existing.UnitPrice == nil && card.UnitPrice != nil {
				price := *card.UnitPrice
				existing.UnitPrice = &price
			}
			c.cards[key] = existing
		} else {
			entry := card
			entry.Name = strings.TrimSpace(card.Name)
			if card.UnitPrice != nil {
				price := *card.UnitPrice
				entry.UnitPrice = &price
			}
			c.cards[key] = entry
		}
	}

	for key, card := range c.cards {
		if card.TotalQuantity() > 0 {
			c.owned[key] = struct{}{}
		}
	}

	return c, nil
}

// Owns reports whether at least one copy of the card is owned.
func (c *Collection) Owns(name string) bool {
	if c == nil {
		return false
	}
	return c.owned.Owns(name)
}

// Get returns the entry for a card name.
func (c *Collection) Get(name string) (OwnedCard, bool) {
	card, ok := c.cards[NormalizeName(name)]
	return card, ok
}

// OwnedSet returns the normalized names of all cards with a positive quantity.
// The returned set must not be modified.
func (c *Collection) OwnedSet() OwnedSet {
	return c.owned
}

// Cards returns all entries sorted by name.
func (c *Collection) Cards() []OwnedCard {
	out := make([]OwnedCard, 0, len(c.cards))
	for _, card := range c.cards {
		out = append(out, card)
	}
	sort.Slice(out, func(i, j int) bool {
		return NormalizeName(out[i].Name) < NormalizeName(out[j].Name)
	})
	return out
}

// UniqueCards returns the number of distinct owned cards.
func (c *Collection) UniqueCards() int {
	return len(c.owned)
}

// TotalCards returns the number of physical cards, foils included.
func (c *Collection) TotalCards() int {
	total := 0
	for _, card := range c.cards {
		total += card.TotalQuantity()
	}
	return total
}

// TotalValue sums quantity times price over entries with a known price.
// It is recomputed on every call.
func (c *Collection) TotalValue() float64 {
	total := 0.0
	for _, card := range c.Cards() {
		if v, ok := card.Value(); ok {
			total += v
		}
	}
	return total
}

// UnpricedCards returns how many owned entries have no known price.
func (c *Collection) UnpricedCards() int {
	n := 0
	for key, card := range c.cards {
		if _, owned := c.owned[key]; owned && card.UnitPrice == nil {
			n++
		}
	}
	return n
}
