package corpus

import (
	"sort"

	"github.com/danethurber/ponderous/internal/collection"
)

// Corpus is a read-only in-memory snapshot of the deck statistics.
// It is safe for concurrent readers.
type Corpus struct {
	commanders []*Commander
	byName     map[string]*Commander
	variants   map[string][]*DeckVariant
	cards      map[string]*Card
	themes     map[string]struct{}
}

// New builds a corpus snapshot. Later commanders or cards with the same
// normalized name replace earlier ones. Variants are kept in input order per
// commander. A commander with variants but no metadata row gets a bare
// entry with every optional field unknown.
func New(commanders []Commander, variants []DeckVariant, cards []Card) *Corpus {
	c := &Corpus{
		byName:   make(map[string]*Commander, len(commanders)),
		variants: make(map[string][]*DeckVariant),
		cards:    make(map[string]*Card, len(cards)),
		themes:   make(map[string]struct{}),
	}

	for i := range commanders {
		cmd := commanders[i]
		c.byName[collection.NormalizeName(cmd.Name)] = &cmd
	}

	for i := range variants {
		v := variants[i]
		key := collection.NormalizeName(v.Key.Commander)
		if _, ok := c.byName[key]; !ok && key != "" {
			c.byName[key] = &Commander{Name: v.Key.Commander}
		}
		c.variants[key] = append(c.variants[key], &v)
		for _, theme := range v.Themes {
			c.themes[normalizeTheme(theme)] = struct{}{}
		}
	}

	c.commanders = make([]*Commander, 0, len(c.byName))
	for _, cmd := range c.byName {
		c.commanders = append(c.commanders, cmd)
	}
	sort.Slice(c.commanders, func(i, j int) bool {
		return collection.NormalizeName(c.commanders[i].Name) < collection.NormalizeName(c.commanders[j].Name)
	})

	for i := range cards {
		card := cards[i]
		c.cards[collection.NormalizeName(card.Name)] = &card
	}

	return c
}

// Commanders returns every commander sorted by normalized name.
func (c *Corpus) Commanders() []*Commander {
	return c.commanders
}

// Commander looks up a commander by name.
func (c *Corpus) Commander(name string) (*Commander, bool) {
	cmd, ok := c.byName[collection.NormalizeName(name)]
	return cmd, ok
}

// Variants returns the deck variants for a commander.
func (c *Corpus) Variants(commander string) []*DeckVariant {
	return c.variants[collection.NormalizeName(commander)]
}

// CardInfo returns card-level metadata.
func (c *Corpus) CardInfo(name string) (*Card, bool) {
	card, ok := c.cards[collection.NormalizeName(name)]
	return card, ok
}

// HasTheme reports whether any variant carries the theme tag.
func (c *Corpus) HasTheme(theme string) bool {
	_, ok := c.themes[normalizeTheme(theme)]
	return ok
}

// Themes returns every theme tag in the corpus, sorted.
func (c *Corpus) Themes() []string {
	out := make([]string, 0, len(c.themes))
	for t := range c.themes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Stats summarizes the snapshot.
func (c *Corpus) Stats() Stats {
	s := Stats{
		Commanders: len(c.commanders),
		Cards:      len(c.cards),
		Themes:     len(c.themes),
	}
	for _, vs := range c.variants {
		s.Variants += len(vs)
		for _, v := range vs {
			s.Inclusions += len(v.Cards)
		}
	}
	return s
}

// Stats counts the rows in a corpus snapshot.
type Stats struct {
	Commanders int `json:"commanders"`
	Variants   int `json:"variants"`
	Inclusions int `json:"inclusions"`
	Cards      int `json:"cards"`
	Themes     int `json:"themes"`
}

func normalizeTheme(theme string) string {
	return collection.NormalizeName(theme)
}

// PriceBook maps normalized card names to estimated unit prices.
type PriceBook map[string]float64

// Set records a price for a card.
func (p PriceBook) Set(name string, price float64) {
	p[collection.NormalizeName(name)] = price
}

// UnitPrice returns the price for a card, or false when unknown.
func (p PriceBook) UnitPrice(name string) (float64, bool) {
	v, ok := p[collection.NormalizeName(name)]
	return v, ok
}
