package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danethurber/ponderous/internal/corpus"
	"github.com/danethurber/ponderous/internal/validation"
)

// ColorMode selects how Filters.Colors is matched against a commander's identity.
type ColorMode string

// Color match modes.
const (
	// ColorSubset accepts commanders whose identity fits inside the given colors.
	ColorSubset ColorMode = "subset"
	// ColorExact accepts commanders whose identity equals the given colors.
	ColorExact ColorMode = "exact"
)

// Filters narrows discovery. Zero values mean "no constraint"; pointer
// fields are unset when nil.
type Filters struct {
	Colors        []corpus.Color `json:"colors,omitempty" validate:"dive,oneof=W U B R G"`
	ColorMode     ColorMode      `json:"colorMode,omitempty" validate:"omitempty,oneof=subset exact"`
	ExcludeColors []corpus.Color `json:"excludeColors,omitempty" validate:"dive,oneof=W U B R G"`

	Archetypes        []corpus.Archetype     `json:"archetypes,omitempty" validate:"dive,oneof=aggro midrange control combo stax other"`
	ExcludeArchetypes []corpus.Archetype     `json:"excludeArchetypes,omitempty" validate:"dive,oneof=aggro midrange control combo stax other"`
	BudgetBrackets    []corpus.BudgetBracket `json:"budgetBrackets,omitempty" validate:"dive,oneof=budget mid high cedh"`
	BudgetMin         *float64               `json:"budgetMin,omitempty" validate:"omitempty,gte=0"`
	BudgetMax         *float64               `json:"budgetMax,omitempty" validate:"omitempty,gte=0"`

	Themes        []string `json:"themes,omitempty" validate:"dive,required"`
	ExcludeThemes []string `json:"excludeThemes,omitempty" validate:"dive,required"`

	PowerMin      *float64 `json:"powerMin,omitempty" validate:"omitempty,gte=1,lte=10"`
	PowerMax      *float64 `json:"powerMax,omitempty" validate:"omitempty,gte=1,lte=10"`
	PopularityMin *int     `json:"popularityMin,omitempty" validate:"omitempty,gte=0"`
	SaltMax       *float64 `json:"saltMax,omitempty" validate:"omitempty,gte=0"`
	WinRateMin    *float64 `json:"winRateMin,omitempty" validate:"omitempty,gte=0,lte=1"`

	MinCompletion float64 `json:"minCompletion" validate:"gte=0,lte=1"`
}

// ThemeVocabulary reports whether a theme tag exists in the corpus.
type ThemeVocabulary interface {
	HasTheme(theme string) bool
}

// Validate checks field ranges and contradictory combinations. Theme tokens
// are checked against vocab when it is non-nil. All failures are
// *InvalidFilterError.
func (f *Filters) Validate(vocab ThemeVocabulary) error {
	if err := validation.Struct(f); err != nil {
		var ve validation.Errors
		if errors.As(err, &ve) && len(ve) > 0 {
			return &InvalidFilterError{Field: ve[0].Field, Reason: ve[0].Error()}
		}
		return &InvalidFilterError{Field: "filters", Reason: err.Error()}
	}

	if f.BudgetMin != nil && f.BudgetMax != nil && *f.BudgetMin > *f.BudgetMax {
		return &InvalidFilterError{Field: "budgetMin", Reason: fmt.Sprintf("budget min %.2f exceeds budget max %.2f", *f.BudgetMin, *f.BudgetMax)}
	}
	if f.PowerMin != nil && f.PowerMax != nil && *f.PowerMin > *f.PowerMax {
		return &InvalidFilterError{Field: "powerMin", Reason: fmt.Sprintf("power min %.1f exceeds power max %.1f", *f.PowerMin, *f.PowerMax)}
	}

	include := corpus.NewColorIdentity(f.Colors...)
	exclude := corpus.NewColorIdentity(f.ExcludeColors...)
	if include.Intersects(exclude) {
		return &InvalidFilterError{Field: "excludeColors", Reason: fmt.Sprintf("colors %s are both required and excluded", include&exclude)}
	}
	if f.ColorMode == ColorExact && len(f.Colors) == 0 {
		return &InvalidFilterError{Field: "colorMode", Reason: "exact color matching needs at least one color"}
	}

	for _, a := range f.Archetypes {
		for _, x := range f.ExcludeArchetypes {
			if a == x {
				return &InvalidFilterError{Field: "excludeArchetypes", Reason: fmt.Sprintf("archetype %s is both included and excluded", a)}
			}
		}
	}

	for _, t := range f.Themes {
		for _, x := range f.ExcludeThemes {
			if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(x)) {
				return &InvalidFilterError{Field: "excludeThemes", Reason: fmt.Sprintf("theme %q is both included and excluded", t)}
			}
		}
	}

	if vocab != nil {
		for _, t := range f.Themes {
			if !vocab.HasTheme(t) {
				return &InvalidFilterError{Field: "themes", Reason: fmt.Sprintf("unknown theme %q", t)}
			}
		}
		for _, t := range f.ExcludeThemes {
			if !vocab.HasTheme(t) {
				return &InvalidFilterError{Field: "excludeThemes", Reason: fmt.Sprintf("unknown theme %q", t)}
			}
		}
	}

	return nil
}

// candidateCheck applies the commander-level pre-filter. It returns the
// unknown field name when the commander is excluded only because a filtered
// field is absent.
func (f *Filters) candidateCheck(cmd *corpus.Commander) (ok bool, unknownField string) {
	if len(f.Colors) > 0 || len(f.ExcludeColors) > 0 {
		if cmd.ColorIdentity == nil {
			return false, "colorIdentity"
		}
		ci := *cmd.ColorIdentity
		if len(f.Colors) > 0 {
			want := corpus.NewColorIdentity(f.Colors...)
			if f.ColorMode == ColorExact {
				if ci != want {
					return false, ""
				}
			} else if !ci.SubsetOf(want) {
				return false, ""
			}
		}
		if ci.Intersects(corpus.NewColorIdentity(f.ExcludeColors...)) {
			return false, ""
		}
	}

	if f.PopularityMin != nil && cmd.TotalDeckCount < *f.PopularityMin {
		return false, ""
	}

	if f.PowerMin != nil || f.PowerMax != nil {
		if cmd.PowerLevel == nil {
			return false, "powerLevel"
		}
		if f.PowerMin != nil && *cmd.PowerLevel < *f.PowerMin {
			return false, ""
		}
		if f.PowerMax != nil && *cmd.PowerLevel > *f.PowerMax {
			return false, ""
		}
	}

	return true, ""
}

// variantMatches applies archetype, budget and theme filters to one variant.
func (f *Filters) variantMatches(v *corpus.DeckVariant) bool {
	if len(f.Archetypes) > 0 && !containsArchetype(f.Archetypes, v.Key.Archetype) {
		return false
	}
	if containsArchetype(f.ExcludeArchetypes, v.Key.Archetype) {
		return false
	}

	if len(f.BudgetBrackets) > 0 {
		found := false
		for _, b := range f.BudgetBrackets {
			if b == v.Key.Budget {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.BudgetMin != nil && v.AveragePrice < *f.BudgetMin {
		return false
	}
	if f.BudgetMax != nil && v.AveragePrice > *f.BudgetMax {
		return false
	}

	if len(f.Themes) > 0 {
		found := false
		for _, t := range f.Themes {
			if v.HasTheme(t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, t := range f.ExcludeThemes {
		if v.HasTheme(t) {
			return false
		}
	}

	return true
}

// scalarCheck applies the filters evaluated after headline selection.
func (f *Filters) scalarCheck(cmd *corpus.Commander, headline *DeckRecommendation) (ok bool, unknownField string) {
	if f.SaltMax != nil {
		if cmd.SaltScore == nil {
			return false, "saltScore"
		}
		if *cmd.SaltScore > *f.SaltMax {
			return false, ""
		}
	}
	if f.WinRateMin != nil {
		if headline.WinRate == nil {
			return false, "winRate"
		}
		if *headline.WinRate < *f.WinRateMin {
			return false, ""
		}
	}
	return true, ""
}

func containsArchetype(list []corpus.Archetype, a corpus.Archetype) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}
