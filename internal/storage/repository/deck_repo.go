package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/danethurber/ponderous/internal/corpus"
)

// DeckRepository handles database operations for deck variants and their
// card inclusions.
type DeckRepository interface {
	// ReplaceVariant upserts a variant and replaces its card inclusions.
	ReplaceVariant(ctx context.Context, v *corpus.DeckVariant) error

	// ListVariants returns the variants of a commander, or of every
	// commander when name is empty, with cards in stored order.
	ListVariants(ctx context.Context, commander string) ([]corpus.DeckVariant, error)

	// DeleteCommander removes every variant of a commander.
	DeleteCommander(ctx context.Context, commander string) error

	// Counts returns the number of stored variants and inclusions.
	Counts(ctx context.Context) (variants, inclusions int, err error)
}

type deckRepository struct {
	db Querier
}

// NewDeckRepository creates a new deck repository.
func NewDeckRepository(db Querier) DeckRepository {
	return &deckRepository{db: db}
}

// ReplaceVariant is not atomic on its own; run it on a *sql.Tx.
func (r *deckRepository) ReplaceVariant(ctx context.Context, v *corpus.DeckVariant) error {
	themes := v.Themes
	if themes == nil {
		themes = []string{}
	}
	themesJSON, err := json.Marshal(themes)
	if err != nil {
		return fmt.Errorf("failed to encode themes: %w", err)
	}

	k := v.Key
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO deck_variants (commander_name, archetype, budget_range, themes, total_decks, avg_price, win_rate, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(commander_name, archetype, budget_range) DO UPDATE SET
			themes = excluded.themes,
			total_decks = excluded.total_decks,
			avg_price = excluded.avg_price,
			win_rate = excluded.win_rate,
			updated_at = excluded.updated_at
	`, k.Commander, string(k.Archetype), string(k.Budget), string(themesJSON),
		v.SampleCount, v.AveragePrice, nullFloat(v.WinRate), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert variant %s: %w", k, err)
	}

	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM deck_card_inclusions
		WHERE commander_name = ? AND archetype = ? AND budget_range = ?
	`, k.Commander, string(k.Archetype), string(k.Budget)); err != nil {
		return fmt.Errorf("failed to clear inclusions for %s: %w", k, err)
	}

	if len(v.Cards) == 0 {
		return nil
	}

	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO deck_card_inclusions
			(commander_name, archetype, budget_range, card_name, position, inclusion_rate, synergy_score, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare inclusion insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, card := range v.Cards {
		if _, err := stmt.ExecContext(ctx, k.Commander, string(k.Archetype), string(k.Budget),
			card.CardName, i, card.InclusionRate, card.SynergyScore, string(card.Category)); err != nil {
			return fmt.Errorf("failed to insert inclusion %q for %s: %w", card.CardName, k, err)
		}
	}

	return nil
}

func (r *deckRepository) ListVariants(ctx context.Context, commander string) ([]corpus.DeckVariant, error) {
	variantQuery := `
		SELECT commander_name, archetype, budget_range, themes, total_decks, avg_price, win_rate
		FROM deck_variants`
	cardQuery := `
		SELECT commander_name, archetype, budget_range, card_name, inclusion_rate, synergy_score, category
		FROM deck_card_inclusions`
	var args []any
	if commander != "" {
		variantQuery += ` WHERE commander_name = ?`
		cardQuery += ` WHERE commander_name = ?`
		args = append(args, commander)
	}
	variantQuery += ` ORDER BY commander_name, archetype, budget_range`
	cardQuery += ` ORDER BY commander_name, archetype, budget_range, position`

	variants, index, err := r.queryVariants(ctx, variantQuery, args)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, cardQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inclusions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			key  corpus.VariantKey
			card corpus.CardInclusion
		)
		if err := rows.Scan(&key.Commander, &key.Archetype, &key.Budget,
			&card.CardName, &card.InclusionRate, &card.SynergyScore, &card.Category); err != nil {
			return nil, fmt.Errorf("failed to scan inclusion: %w", err)
		}
		if i, ok := index[key]; ok {
			variants[i].Cards = append(variants[i].Cards, card)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inclusions: %w", err)
	}

	return variants, nil
}

func (r *deckRepository) queryVariants(ctx context.Context, query string, args []any) ([]corpus.DeckVariant, map[corpus.VariantKey]int, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var variants []corpus.DeckVariant
	index := make(map[corpus.VariantKey]int)
	for rows.Next() {
		var (
			v          corpus.DeckVariant
			themesJSON string
			winRate    sql.NullFloat64
		)
		if err := rows.Scan(&v.Key.Commander, &v.Key.Archetype, &v.Key.Budget,
			&themesJSON, &v.SampleCount, &v.AveragePrice, &winRate); err != nil {
			return nil, nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		if themesJSON != "" {
			if err := json.Unmarshal([]byte(themesJSON), &v.Themes); err != nil {
				return nil, nil, fmt.Errorf("failed to decode themes for %s: %w", v.Key, err)
			}
		}
		if len(v.Themes) == 0 {
			v.Themes = nil
		}
		v.WinRate = floatPtr(winRate)
		index[v.Key] = len(variants)
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating variants: %w", err)
	}

	return variants, index, nil
}

func (r *deckRepository) DeleteCommander(ctx context.Context, commander string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM deck_card_inclusions WHERE commander_name = ?`, commander); err != nil {
		return fmt.Errorf("failed to delete inclusions: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM deck_variants WHERE commander_name = ?`, commander); err != nil {
		return fmt.Errorf("failed to delete variants: %w", err)
	}
	return nil
}

func (r *deckRepository) Counts(ctx context.Context) (variants, inclusions int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM deck_variants), (SELECT COUNT(*) FROM deck_card_inclusions)
	`).Scan(&variants, &inclusions)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count variants: %w", err)
	}
	return variants, inclusions, nil
}
