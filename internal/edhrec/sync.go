package edhrec

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/danethurber/ponderous/internal/corpus"
)

// Fetcher retrieves commander pages.
type Fetcher interface {
	FetchCommander(ctx context.Context, slug string, budget corpus.BudgetBracket) (*CommanderPage, error)
}

// Store persists parsed commander data.
type Store interface {
	StoreCommander(ctx context.Context, cmd *corpus.Commander, variants []corpus.DeckVariant) error
	StoreCards(ctx context.Context, cards []corpus.Card) error
}

// SyncBudgets are the brackets fetched per commander. The mid page is
// required; the others are stored when EDHREC has them.
var SyncBudgets = []corpus.BudgetBracket{corpus.Mid, corpus.Budget, corpus.High}

// SyncError records one commander that could not be synced.
type SyncError struct {
	Slug string `json:"slug"`
	Err  string `json:"error"`
}

// SyncResult summarizes a sync run.
type SyncResult struct {
	Requested int           `json:"requested"`
	Stored    int           `json:"stored"`
	Failed    int           `json:"failed"`
	Variants  int           `json:"variants"`
	Cards     int           `json:"cards"`
	Errors    []SyncError   `json:"errors,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Syncer fetches commanders and stores them. Failures are counted per
// commander and never abort the batch.
type Syncer struct {
	fetcher Fetcher
	store   Store
	workers int
	logger  zerolog.Logger
}

// NewSyncer creates a syncer. Workers below one means one.
func NewSyncer(fetcher Fetcher, store Store, workers int, logger *zerolog.Logger) *Syncer {
	if workers < 1 {
		workers = 1
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &Syncer{
		fetcher: fetcher,
		store:   store,
		workers: workers,
		logger:  l.With().Str("component", "edhrec_sync").Logger(),
	}
}

type syncOutcome struct {
	variants int
	cards    int
	err      error
}

// Sync fetches and stores every slug. It returns an error only when ctx
// is cancelled.
func (s *Syncer) Sync(ctx context.Context, slugs []string) (*SyncResult, error) {
	start := time.Now()
	outcomes := make([]syncOutcome, len(slugs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, slug := range slugs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, c, err := s.syncOne(gctx, slug)
			outcomes[i] = syncOutcome{variants: v, cards: c, err: err}
			if err != nil {
				s.logger.Warn().Err(err).Str("commander", slug).Msg("Commander sync failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sync interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sync interrupted: %w", err)
	}

	result := &SyncResult{Requested: len(slugs)}
	for i, o := range outcomes {
		if o.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, SyncError{Slug: slugs[i], Err: o.err.Error()})
			continue
		}
		result.Stored++
		result.Variants += o.variants
		result.Cards += o.cards
	}
	result.Duration = time.Since(start)

	s.logger.Info().
		Int("requested", result.Requested).
		Int("stored", result.Stored).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("EDHREC sync complete")

	return result, nil
}

// syncOne fetches every budget page of one commander and stores them
// together, replacing what was stored before.
func (s *Syncer) syncOne(ctx context.Context, slug string) (variants, cards int, err error) {
	var (
		cmd      *corpus.Commander
		decks    []corpus.DeckVariant
		allCards []corpus.Card
	)

	for _, budget := range SyncBudgets {
		page, err := s.fetcher.FetchCommander(ctx, slug, budget)
		if err != nil {
			if budget != corpus.Mid && IsNotFound(err) {
				s.logger.Debug().Str("commander", slug).Str("budget", string(budget)).Msg("No budget page")
				continue
			}
			return 0, 0, fmt.Errorf("fetch %s/%s: %w", slug, budget, err)
		}

		parsed, err := ParseCommanderPage(page, budget)
		if err != nil {
			if budget != corpus.Mid {
				s.logger.Debug().Err(err).Str("commander", slug).Str("budget", string(budget)).Msg("Skipping unparseable budget page")
				continue
			}
			return 0, 0, fmt.Errorf("parse %s: %w", slug, err)
		}

		if cmd == nil {
			c := parsed.Commander
			cmd = &c
		}
		// Budget pages can name the commander differently; the mid page wins.
		parsed.Variant.Key.Commander = cmd.Name
		decks = append(decks, parsed.Variant)
		allCards = append(allCards, parsed.Cards...)
	}

	if err := s.store.StoreCommander(ctx, cmd, decks); err != nil {
		return 0, 0, err
	}
	unique := dedupeCards(allCards)
	if err := s.store.StoreCards(ctx, unique); err != nil {
		return 0, 0, err
	}

	return len(decks), len(unique), nil
}

// dedupeCards keeps the first entry per name, filling in a price from later
// entries when the first has none.
func dedupeCards(cards []corpus.Card) []corpus.Card {
	out := make([]corpus.Card, 0, len(cards))
	index := make(map[string]int, len(cards))
	for _, c := range cards {
		if i, ok := index[c.Name]; ok {
			if out[i].Price == nil && c.Price != nil {
				out[i].Price = c.Price
			}
			continue
		}
		index[c.Name] = len(out)
		out = append(out, c)
	}
	return out
}
