package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danethurber/ponderous/internal/collection"
)

// SortKey is a commander ranking criterion.
type SortKey string

// Sort keys. Every key sorts descending except SortBudget.
const (
	SortCompletion   SortKey = "completion"
	SortBuildability SortKey = "buildability"
	SortPopularity   SortKey = "popularity"
	SortPowerLevel   SortKey = "power-level"
	SortSynergy      SortKey = "synergy"
	SortBudget       SortKey = "budget" // ascending, cheapest first
)

// AllSortKeys lists every supported key.
var AllSortKeys = []SortKey{SortCompletion, SortBuildability, SortPopularity, SortPowerLevel, SortSynergy, SortBudget}

// DefaultSortKeys is used when the caller passes no keys.
var DefaultSortKeys = []SortKey{SortCompletion, SortBuildability}

// Valid reports whether k is a known key.
func (k SortKey) Valid() bool {
	for _, v := range AllSortKeys {
		if v == k {
			return true
		}
	}
	return false
}

// ParseSortKey parses a key name. "power_level" and "power" are accepted for power-level.
func ParseSortKey(s string) (SortKey, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "power_level", "power":
		normalized = string(SortPowerLevel)
	}
	k := SortKey(normalized)
	if !k.Valid() {
		return "", fmt.Errorf("unknown sort key %q", s)
	}
	return k, nil
}

func validateSortKeys(keys []SortKey) error {
	for i, k := range keys {
		if !k.Valid() {
			return &InvalidFilterError{Field: fmt.Sprintf("sortKeys[%d]", i), Reason: fmt.Sprintf("unknown sort key %q", k)}
		}
	}
	return nil
}

// compareBy returns -1 when a ranks before b on key k, 1 when after, 0 on a tie.
// Unknown optional values rank after known ones.
func compareBy(k SortKey, a, b *CommanderRecommendation) int {
	switch k {
	case SortCompletion:
		return desc(a.Headline.Completion, b.Headline.Completion)
	case SortBuildability:
		return desc(a.Headline.Buildability, b.Headline.Buildability)
	case SortPopularity:
		return desc(float64(a.TotalDeckCount), float64(b.TotalDeckCount))
	case SortPowerLevel:
		return descOptional(a.PowerLevel, b.PowerLevel)
	case SortSynergy:
		return desc(a.CollectionSynergy, b.CollectionSynergy)
	case SortBudget:
		return -desc(a.Headline.AveragePrice, b.Headline.AveragePrice)
	}
	return 0
}

func desc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

func descOptional(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return desc(*a, *b)
}

// sortRecommendations applies keys in priority order, then lower missing
// value, then commander name.
func sortRecommendations(recs []CommanderRecommendation, keys []SortKey) {
	if len(keys) == 0 {
		keys = DefaultSortKeys
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := &recs[i], &recs[j]
		for _, k := range keys {
			if c := compareBy(k, a, b); c != 0 {
				return c < 0
			}
		}
		if a.Headline.MissingValue != b.Headline.MissingValue {
			return a.Headline.MissingValue < b.Headline.MissingValue
		}
		na, nb := collection.NormalizeName(a.Name), collection.NormalizeName(b.Name)
		if na != nb {
			return na < nb
		}
		return a.Name < b.Name
	})
}
