package edhrec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/corpus"
)

// SignatureSynergy is the synergy at which a high-synergy card counts as
// a signature card for the commander.
const SignatureSynergy = 0.5

// maxThemes caps the themes kept per variant.
const maxThemes = 10

// Parsed is one commander page converted to corpus types.
type Parsed struct {
	Commander corpus.Commander
	Variant   corpus.DeckVariant
	Cards     []corpus.Card
}

// tagCategory maps a card list tag to a category. Lists not named here are
// role lists (creatures, ramp, removal) and count as staples.
func tagCategory(tag string, synergy float64) (corpus.Category, bool) {
	switch tag {
	case "newcards":
		return "", false
	case "highsynergycards":
		if synergy >= SignatureSynergy {
			return corpus.Signature, true
		}
		return corpus.HighSynergy, true
	case "lands", "basics":
		return corpus.Basic, true
	default:
		return corpus.Staple, true
	}
}

// archetypeKeywords maps theme keywords to archetypes, checked in order.
var archetypeKeywords = []struct {
	archetype corpus.Archetype
	keywords  []string
}{
	{corpus.Stax, []string{"stax", "hatebears", "prison", "tax"}},
	{corpus.Combo, []string{"combo", "infinite", "storm", "turbo"}},
	{corpus.Control, []string{"control", "counterspell", "spellslinger", "wheels", "mill"}},
	{corpus.Aggro, []string{"aggro", "tokens", "voltron", "go-wide", "go wide", "extra combat", "equipment", "auras", "tribal", "typal"}},
	{corpus.Midrange, []string{"midrange", "value", "counters", "reanimator", "graveyard", "aristocrats", "sacrifice", "landfall", "blink", "lifegain"}},
}

// ArchetypeForThemes returns the archetype suggested by the first theme,
// in the given order, that matches a keyword. Unmatched themes give Other.
func ArchetypeForThemes(themes []string) corpus.Archetype {
	for _, theme := range themes {
		t := strings.ToLower(theme)
		for _, entry := range archetypeKeywords {
			for _, kw := range entry.keywords {
				if strings.Contains(t, kw) {
					return entry.archetype
				}
			}
		}
	}
	return corpus.Other
}

// ParseCommanderPage converts a commander page fetched for budget. Optional
// values the page omits stay nil.
func ParseCommanderPage(page *CommanderPage, budget corpus.BudgetBracket) (*Parsed, error) {
	if page == nil || page.Container == nil || page.Container.JSONDict == nil {
		return nil, fmt.Errorf("commander page has no data")
	}
	if budget == "" {
		budget = corpus.Mid
	}
	dict := page.Container.JSONDict

	cmd := corpus.Commander{Name: commanderName(page)}
	if cmd.Name == "" {
		return nil, fmt.Errorf("commander page has no name")
	}

	var info CardInfo
	if dict.Card != nil {
		info = *dict.Card
	}
	if info.ColorIdentity != nil {
		ci, err := corpus.ParseColorIdentity(strings.Join(info.ColorIdentity, ""))
		if err != nil {
			return nil, fmt.Errorf("commander %q: %w", cmd.Name, err)
		}
		cmd.ColorIdentity = &ci
	}
	if info.Rank != nil && *info.Rank > 0 {
		rank := *info.Rank
		cmd.PopularityRank = &rank
	}
	if info.Salt != nil {
		salt := *info.Salt
		cmd.SaltScore = &salt
	}
	cmd.TotalDeckCount = info.NumDecks
	if cmd.TotalDeckCount == 0 {
		cmd.TotalDeckCount = page.NumDecksAvg
	}
	if page.AvgPrice != nil {
		cmd.AverageDeckPrice = *page.AvgPrice
	}

	themes := pageThemes(page)
	variant := corpus.DeckVariant{
		Key: corpus.VariantKey{
			Commander: cmd.Name,
			Archetype: ArchetypeForThemes(themes),
			Budget:    budget,
		},
		Themes:       themes,
		SampleCount:  cmd.TotalDeckCount,
		AveragePrice: cmd.AverageDeckPrice,
	}

	inclusions, cards := pageCards(dict, cmd.TotalDeckCount)
	variant.Cards = inclusions
	if err := variant.Validate(); err != nil {
		return nil, err
	}

	commanderCard := corpus.Card{Name: cmd.Name, ColorIdentity: cmd.ColorIdentity, ManaValue: info.CMC}
	if price, ok := bestPrice(info.Prices); ok {
		commanderCard.Price = &price
	}
	cards = append([]corpus.Card{commanderCard}, cards...)

	return &Parsed{Commander: cmd, Variant: variant, Cards: cards}, nil
}

func commanderName(page *CommanderPage) string {
	if d := page.Container.JSONDict; d.Card != nil && strings.TrimSpace(d.Card.Name) != "" {
		return strings.TrimSpace(d.Card.Name)
	}
	header := strings.TrimSpace(page.Header)
	header = strings.TrimSuffix(header, " (Commander)")
	return strings.TrimSpace(header)
}

// pageThemes returns theme names, most-tagged first.
func pageThemes(page *CommanderPage) []string {
	if page.Panels == nil || len(page.Panels.TagLinks) == 0 {
		return nil
	}
	links := make([]*TagLink, 0, len(page.Panels.TagLinks))
	for _, l := range page.Panels.TagLinks {
		if l != nil && strings.TrimSpace(l.Value) != "" {
			links = append(links, l)
		}
	}
	sort.SliceStable(links, func(i, j int) bool { return links[i].Count > links[j].Count })

	var themes []string
	seen := make(map[string]struct{})
	for _, l := range links {
		key := strings.ToLower(strings.TrimSpace(l.Value))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		themes = append(themes, strings.TrimSpace(l.Value))
		if len(themes) == maxThemes {
			break
		}
	}
	return themes
}

// pageCards flattens the card lists. A card listed more than once keeps its
// first position and its highest-ranked category.
func pageCards(dict *JSONDict, totalDecks int) ([]corpus.CardInclusion, []corpus.Card) {
	var inclusions []corpus.CardInclusion
	var cards []corpus.Card
	index := make(map[string]int)

	for _, list := range dict.CardLists {
		if list == nil {
			continue
		}
		for _, view := range list.CardViews {
			if view == nil || strings.TrimSpace(view.Name) == "" {
				continue
			}
			synergy := clamp(view.Synergy, -1, 1)
			category, ok := tagCategory(list.Tag, synergy)
			if !ok {
				continue
			}

			key := collection.NormalizeName(view.Name)
			if i, dup := index[key]; dup {
				if category.Rank() > inclusions[i].Category.Rank() {
					inclusions[i].Category = category
				}
				continue
			}

			index[key] = len(inclusions)
			inclusions = append(inclusions, corpus.CardInclusion{
				CardName:      strings.TrimSpace(view.Name),
				InclusionRate: inclusionRate(view, totalDecks),
				SynergyScore:  synergy,
				Category:      category,
			})

			card := corpus.Card{Name: strings.TrimSpace(view.Name)}
			if price, ok := bestPrice(view.Prices); ok {
				card.Price = &price
			}
			cards = append(cards, card)
		}
	}

	return inclusions, cards
}

// inclusionRate is inclusion over potential decks, falling back to the
// commander's deck count.
func inclusionRate(view *CardView, totalDecks int) float64 {
	included := view.Inclusion
	if included == 0 {
		included = view.NumDecks
	}
	potential := view.PotentialDecks
	if potential <= 0 {
		potential = totalDecks
	}
	if potential <= 0 {
		return 0
	}
	return clamp(float64(included)/float64(potential), 0, 1)
}

// vendorOrder is the preference order for card prices.
var vendorOrder = []string{"tcgplayer", "cardkingdom", "cardmarket"}

func bestPrice(prices map[string]*VendorPrice) (float64, bool) {
	for _, vendor := range vendorOrder {
		if p, ok := prices[vendor]; ok && p != nil && p.Price > 0 {
			return p.Price, true
		}
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
