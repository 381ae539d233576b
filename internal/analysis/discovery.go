package analysis

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/corpus"
)

// CorpusView is the read-only deck statistics the engine consumes.
type CorpusView interface {
	Commanders() []*corpus.Commander
	Commander(name string) (*corpus.Commander, bool)
	Variants(commander string) []*corpus.DeckVariant
	CardInfo(name string) (*corpus.Card, bool)
	HasTheme(theme string) bool
}

// Options configures an Engine.
type Options struct {
	Weights     Weights
	Impact      ImpactThreshold
	Workers     int     // parallel commander evaluations; <= 0 uses GOMAXPROCS
	SynergyTopN int     // key cards per commander for collection synergy
	ColorBias   float64 // weight of color affinity in collection synergy, in [0,1)
	Logger      *zerolog.Logger
}

// DefaultOptions returns the default weights, impact threshold and synergy settings.
func DefaultOptions() Options {
	return Options{
		Weights:     DefaultWeights(),
		Impact:      DefaultImpactThreshold(),
		SynergyTopN: DefaultSynergyTopN,
		ColorBias:   0.15,
	}
}

// Engine evaluates a collection against a corpus snapshot.
type Engine struct {
	corpus CorpusView
	prices Prices
	opts   Options
	log    zerolog.Logger
}

// NewEngine creates an engine. prices may be nil when no pricing is available.
func NewEngine(view CorpusView, prices Prices, opts Options) (*Engine, error) {
	if view == nil {
		return nil, fmt.Errorf("corpus view is required")
	}
	if opts.Weights == nil {
		opts.Weights = DefaultWeights()
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	if opts.ColorBias < 0 || opts.ColorBias >= 1 {
		return nil, fmt.Errorf("color bias must be in [0,1): %v", opts.ColorBias)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.SynergyTopN <= 0 {
		opts.SynergyTopN = DefaultSynergyTopN
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Engine{
		corpus: view,
		prices: prices,
		opts:   opts,
		log:    log.With().Str("component", "analysis").Logger(),
	}, nil
}

// CommanderRecommendation is one commander's aggregated result: commander
// metadata plus its headline variant.
type CommanderRecommendation struct {
	Name             string                `json:"name"`
	ColorIdentity    *corpus.ColorIdentity `json:"colorIdentity,omitempty"`
	PopularityRank   *int                  `json:"popularityRank,omitempty"`
	TotalDeckCount   int                   `json:"totalDeckCount"`
	AverageDeckPrice float64               `json:"averageDeckPrice"`
	SaltScore        *float64              `json:"saltScore,omitempty"`
	PowerLevel       *float64              `json:"powerLevel,omitempty"`

	Headline           DeckRecommendation `json:"headline"`
	Themes             []string           `json:"themes,omitempty"`
	CollectionSynergy  float64            `json:"collectionSynergy"`
	VariantsConsidered int                `json:"variantsConsidered"`
}

// DiscoveryResult is the outcome of a discovery call.
type DiscoveryResult struct {
	Recommendations []CommanderRecommendation `json:"recommendations"`
	Evaluated       int                       `json:"evaluated"` // commanders passing the pre-filter
	Skipped         int                       `json:"skipped"`   // commanders or variants with unusable data
	Caveats         []Caveat                  `json:"caveats,omitempty"`
}

type outcomeStatus int

const (
	outcomeExcluded outcomeStatus = iota
	outcomeSkipped
	outcomeAccepted
)

type commanderOutcome struct {
	status  outcomeStatus
	rec     CommanderRecommendation
	skipped int
	caveats []Caveat
}

// Discover ranks commanders buildable from coll. Filters are validated
// before any scoring. Commanders or variants with unusable data are
// skipped and counted. An empty candidate set is an empty result, not an
// error; a corpus without commanders is a *DataUnavailableError.
func (e *Engine) Discover(ctx context.Context, coll *collection.Collection, filters Filters, keys []SortKey, limit int) (*DiscoveryResult, error) {
	start := time.Now()

	if err := filters.Validate(e.corpus); err != nil {
		return nil, err
	}
	if err := validateSortKeys(keys); err != nil {
		return nil, err
	}
	if coll == nil {
		return nil, &DataUnavailableError{Entity: "collection", Reason: "no collection loaded"}
	}

	commanders := e.corpus.Commanders()
	if len(commanders) == 0 {
		return nil, &DataUnavailableError{Entity: "corpus", Reason: "no commanders loaded"}
	}

	result := &DiscoveryResult{Recommendations: []CommanderRecommendation{}}

	candidates := make([]*corpus.Commander, 0, len(commanders))
	for _, cmd := range commanders {
		ok, unknown := filters.candidateCheck(cmd)
		if ok {
			candidates = append(candidates, cmd)
			continue
		}
		if unknown != "" {
			result.Caveats = append(result.Caveats, Caveat{
				Kind:    CaveatFilteredUnknown,
				Subject: cmd.Name,
				Detail:  fmt.Sprintf("%s unknown, excluded by active filter", unknown),
			})
		}
	}
	result.Evaluated = len(candidates)

	var profile *colorProfile
	if e.opts.ColorBias > 0 {
		counts, _, _ := colorDistribution(coll, e.corpus)
		profile = newColorProfile(counts)
	}

	outcomes := make([]commanderOutcome, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, cmd := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = e.evaluateCommander(coll, cmd, &filters, profile)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("discovery interrupted: %w", err)
	}

	for _, o := range outcomes {
		result.Skipped += o.skipped
		result.Caveats = append(result.Caveats, o.caveats...)
		if o.status == outcomeAccepted {
			result.Recommendations = append(result.Recommendations, o.rec)
		}
	}

	sortRecommendations(result.Recommendations, keys)
	if limit > 0 && len(result.Recommendations) > limit {
		result.Recommendations = result.Recommendations[:limit]
	}

	e.log.Info().
		Str("user", coll.UserID).
		Int("commanders", len(commanders)).
		Int("candidates", result.Evaluated).
		Int("recommended", len(result.Recommendations)).
		Int("skipped", result.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("Commander discovery complete")

	return result, nil
}

// evaluateCommander scores every matching variant of one commander and
// selects its headline. It writes nothing shared.
func (e *Engine) evaluateCommander(owned collection.Ownership, cmd *corpus.Commander, f *Filters, profile *colorProfile) commanderOutcome {
	var out commanderOutcome

	variants := e.corpus.Variants(cmd.Name)
	if len(variants) == 0 {
		e.log.Debug().Str("commander", cmd.Name).Msg("Skipping commander without deck variants")
		out.status = outcomeSkipped
		out.skipped = 1
		out.caveats = append(out.caveats, Caveat{Kind: CaveatSkipped, Subject: cmd.Name, Detail: "no deck variants"})
		return out
	}

	var decks []DeckRecommendation
	matched, failed := 0, 0
	for _, v := range variants {
		if !f.variantMatches(v) {
			continue
		}
		matched++
		deck, err := EvaluateVariant(owned, v, e.prices, e.opts.Weights, e.opts.Impact)
		if err != nil {
			failed++
			e.log.Debug().Err(err).Str("commander", cmd.Name).Str("variant", v.Key.String()).Msg("Skipping variant")
			out.caveats = append(out.caveats, Caveat{Kind: CaveatSkipped, Subject: v.Key.String(), Detail: err.Error()})
			continue
		}
		if deck.Completion < f.MinCompletion {
			continue
		}
		decks = append(decks, deck)
	}
	out.skipped = failed

	if matched > 0 && failed == matched {
		out.status = outcomeSkipped
		return out
	}
	if len(decks) == 0 {
		out.status = outcomeExcluded
		return out
	}

	sortHeadline(decks)
	headline := decks[0]

	if ok, unknown := f.scalarCheck(cmd, &headline); !ok {
		if unknown != "" {
			out.caveats = append(out.caveats, Caveat{
				Kind:    CaveatFilteredUnknown,
				Subject: cmd.Name,
				Detail:  fmt.Sprintf("%s unknown, excluded by active filter", unknown),
			})
		}
		out.status = outcomeExcluded
		return out
	}

	if absent := absentFields(cmd, &headline); len(absent) > 0 {
		out.caveats = append(out.caveats, Caveat{
			Kind:    CaveatPartialEntry,
			Subject: cmd.Name,
			Detail:  "unknown " + strings.Join(absent, ", "),
		})
	}
	if headline.UnknownPrices > 0 {
		out.caveats = append(out.caveats, Caveat{
			Kind:    CaveatUnknownPrice,
			Subject: headline.Key().String(),
			Detail:  fmt.Sprintf("%d missing cards have no price and count as 0", headline.UnknownPrices),
		})
	}

	out.status = outcomeAccepted
	out.rec = CommanderRecommendation{
		Name:               cmd.Name,
		ColorIdentity:      cmd.ColorIdentity,
		PopularityRank:     cmd.PopularityRank,
		TotalDeckCount:     cmd.TotalDeckCount,
		AverageDeckPrice:   cmd.AverageDeckPrice,
		SaltScore:          cmd.SaltScore,
		PowerLevel:         cmd.PowerLevel,
		Headline:           headline,
		Themes:             unionThemes(decks),
		CollectionSynergy:  collectionSynergy(owned, cmd, variants, e.opts.Weights, e.opts.SynergyTopN, e.opts.ColorBias, profile),
		VariantsConsidered: len(decks),
	}
	return out
}

// RecommendDecks scores every variant of one commander that passes the
// variant filters and MinCompletion, best first by the headline ordering.
func (e *Engine) RecommendDecks(ctx context.Context, coll *collection.Collection, commander string, filters Filters) ([]DeckRecommendation, error) {
	if err := filters.Validate(e.corpus); err != nil {
		return nil, err
	}
	if coll == nil {
		return nil, &DataUnavailableError{Entity: "collection", Reason: "no collection loaded"}
	}

	variants := e.corpus.Variants(commander)
	if len(variants) == 0 {
		if _, ok := e.corpus.Commander(commander); !ok {
			return nil, &DataUnavailableError{Entity: "commander", Name: commander, Reason: "not found in deck statistics"}
		}
		return nil, &DataUnavailableError{Entity: "commander", Name: commander, Reason: "no deck variants"}
	}

	decks := []DeckRecommendation{}
	matched, failed := 0, 0
	var lastErr error
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !filters.variantMatches(v) {
			continue
		}
		matched++
		deck, err := EvaluateVariant(coll, v, e.prices, e.opts.Weights, e.opts.Impact)
		if err != nil {
			failed++
			lastErr = err
			e.log.Warn().Err(err).Str("variant", v.Key.String()).Msg("Skipping variant")
			continue
		}
		if deck.Completion < filters.MinCompletion {
			continue
		}
		decks = append(decks, deck)
	}

	if matched > 0 && failed == matched {
		return nil, lastErr
	}

	sortHeadline(decks)
	return decks, nil
}

// MissingForVariant scores a single variant and returns its full missing-card list.
func (e *Engine) MissingForVariant(ctx context.Context, coll *collection.Collection, key corpus.VariantKey) (*DeckRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if coll == nil {
		return nil, &DataUnavailableError{Entity: "collection", Reason: "no collection loaded"}
	}

	variants := e.corpus.Variants(key.Commander)
	if len(variants) == 0 {
		return nil, &DataUnavailableError{Entity: "commander", Name: key.Commander, Reason: "no deck variants"}
	}
	for _, v := range variants {
		if v.Key.Archetype != key.Archetype || v.Key.Budget != key.Budget {
			continue
		}
		deck, err := EvaluateVariant(coll, v, e.prices, e.opts.Weights, e.opts.Impact)
		if err != nil {
			return nil, err
		}
		return &deck, nil
	}
	return nil, &DataUnavailableError{Entity: "variant", Name: key.String(), Reason: "not found in deck statistics"}
}

func absentFields(cmd *corpus.Commander, headline *DeckRecommendation) []string {
	var absent []string
	if cmd.ColorIdentity == nil {
		absent = append(absent, "color identity")
	}
	if cmd.PopularityRank == nil {
		absent = append(absent, "popularity rank")
	}
	if cmd.SaltScore == nil {
		absent = append(absent, "salt score")
	}
	if cmd.PowerLevel == nil {
		absent = append(absent, "power level")
	}
	if headline.WinRate == nil {
		absent = append(absent, "win rate")
	}
	return absent
}

func unionThemes(decks []DeckRecommendation) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range decks {
		for _, t := range d.Themes {
			key := strings.ToLower(strings.TrimSpace(t))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
