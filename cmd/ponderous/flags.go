package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danethurber/ponderous/internal/analysis"
	"github.com/danethurber/ponderous/internal/corpus"
)

// globalOptions are accepted before or after the subcommand.
type globalOptions struct {
	configPath string
	debug      bool
	format     string
}

func (g *globalOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&g.configPath, "config", g.configPath, "Path to config.toml (default ~/.ponderous/config.toml)")
	fs.BoolVar(&g.debug, "debug", g.debug, "Enable debug logging")
	fs.StringVar(&g.format, "format", g.format, "Output format: table or json")
}

func (g *globalOptions) validate() error {
	switch g.format {
	case formatTable, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown output format %q: expected table or json", g.format)
}

// newFlagSet creates a subcommand flag set that reports errors instead of exiting.
func newFlagSet(name string, g *globalOptions, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs)
	return fs
}

// parseInterspersed parses flags that may follow positional arguments and
// returns the positionals in order.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// optFloat is a float flag that records whether it was given.
type optFloat struct {
	value *float64
}

func (o *optFloat) String() string {
	if o.value == nil {
		return ""
	}
	return strconv.FormatFloat(*o.value, 'f', -1, 64)
}

func (o *optFloat) Set(v string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", v)
	}
	o.value = &f
	return nil
}

// optInt is an int flag that records whether it was given.
type optInt struct {
	value *int
}

func (o *optInt) String() string {
	if o.value == nil {
		return ""
	}
	return strconv.Itoa(*o.value)
}

func (o *optInt) Set(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid integer %q", v)
	}
	o.value = &n
	return nil
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseColors accepts "W,U,B", "WUB" or "wu,br" and returns each color
// once in WUBRG order.
func parseColors(field, s string) ([]corpus.Color, error) {
	var ci corpus.ColorIdentity
	for _, group := range splitList(s) {
		for _, r := range group {
			c, err := corpus.ParseColor(string(r))
			if err != nil {
				return nil, &analysis.InvalidFilterError{Field: field, Reason: err.Error()}
			}
			ci |= corpus.NewColorIdentity(c)
		}
	}
	if ci == corpus.Colorless {
		return nil, nil
	}
	return ci.Colors(), nil
}

func parseArchetypes(field, s string) ([]corpus.Archetype, error) {
	var out []corpus.Archetype
	for _, item := range splitList(s) {
		a, err := corpus.ParseArchetype(item)
		if err != nil {
			return nil, &analysis.InvalidFilterError{Field: field, Reason: err.Error()}
		}
		out = append(out, a)
	}
	return out, nil
}

func parseBrackets(field, s string) ([]corpus.BudgetBracket, error) {
	var out []corpus.BudgetBracket
	for _, item := range splitList(s) {
		b, err := corpus.ParseBudgetBracket(item)
		if err != nil {
			return nil, &analysis.InvalidFilterError{Field: field, Reason: err.Error()}
		}
		out = append(out, b)
	}
	return out, nil
}

// parseSortKeys parses a comma-separated key list. Empty means the default order.
func parseSortKeys(s string) ([]analysis.SortKey, error) {
	var keys []analysis.SortKey
	for _, item := range splitList(s) {
		k, err := analysis.ParseSortKey(item)
		if err != nil {
			return nil, &analysis.InvalidFilterError{Field: "sort-by", Reason: err.Error()}
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// filterFlags binds every discovery filter to a flag set.
type filterFlags struct {
	colors, excludeColors         string
	exactColors                   bool
	archetypes, excludeArchetypes string
	brackets                      string
	themes, excludeThemes         string
	budgetMin, budgetMax          optFloat
	powerMin, powerMax            optFloat
	popularityMin                 optInt
	saltMax                       optFloat
	winRateMin                    optFloat
	minCompletion                 optFloat
}

func (f *filterFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.colors, "colors", "", "Colors to build in: W,U,B,R,G or combinations like WU,BR")
	fs.BoolVar(&f.exactColors, "exact-colors", false, "Require the commander identity to equal --colors")
	fs.StringVar(&f.excludeColors, "exclude-colors", "", "Colors to exclude")
	fs.StringVar(&f.archetypes, "archetype", "", "Comma-separated archetypes: aggro,midrange,control,combo,stax,other")
	fs.StringVar(&f.excludeArchetypes, "exclude-archetype", "", "Archetypes to exclude")
	fs.StringVar(&f.brackets, "budget-bracket", "", "Budget brackets: budget,mid,high,cedh")
	fs.StringVar(&f.themes, "themes", "", "Preferred themes, any of: tribal,artifacts,graveyard")
	fs.StringVar(&f.excludeThemes, "exclude-themes", "", "Themes to avoid")
	fs.Var(&f.budgetMin, "budget-min", "Minimum average deck cost")
	fs.Var(&f.budgetMax, "budget-max", "Maximum average deck cost")
	fs.Var(&f.powerMin, "power-min", "Minimum power level (1-10)")
	fs.Var(&f.powerMax, "power-max", "Maximum power level (1-10)")
	fs.Var(&f.popularityMin, "popularity-min", "Minimum EDHREC deck count")
	fs.Var(&f.saltMax, "salt-score-max", "Maximum salt score")
	fs.Var(&f.winRateMin, "win-rate-min", "Minimum win rate (0-1)")
	fs.Var(&f.minCompletion, "min-completion", "Minimum collection completion (0-1, default from config)")
}

// build converts the flags to Filters. defaultCompletion applies when
// --min-completion was not given.
func (f *filterFlags) build(defaultCompletion float64) (analysis.Filters, error) {
	var (
		filters analysis.Filters
		err     error
	)

	if filters.Colors, err = parseColors("colors", f.colors); err != nil {
		return filters, err
	}
	if filters.ExcludeColors, err = parseColors("exclude-colors", f.excludeColors); err != nil {
		return filters, err
	}
	if f.exactColors {
		filters.ColorMode = analysis.ColorExact
	}
	if filters.Archetypes, err = parseArchetypes("archetype", f.archetypes); err != nil {
		return filters, err
	}
	if filters.ExcludeArchetypes, err = parseArchetypes("exclude-archetype", f.excludeArchetypes); err != nil {
		return filters, err
	}
	if filters.BudgetBrackets, err = parseBrackets("budget-bracket", f.brackets); err != nil {
		return filters, err
	}

	filters.Themes = splitList(f.themes)
	filters.ExcludeThemes = splitList(f.excludeThemes)
	filters.BudgetMin = f.budgetMin.value
	filters.BudgetMax = f.budgetMax.value
	filters.PowerMin = f.powerMin.value
	filters.PowerMax = f.powerMax.value
	filters.PopularityMin = f.popularityMin.value
	filters.SaltMax = f.saltMax.value
	filters.WinRateMin = f.winRateMin.value

	filters.MinCompletion = defaultCompletion
	if f.minCompletion.value != nil {
		filters.MinCompletion = *f.minCompletion.value
	}

	return filters, nil
}
