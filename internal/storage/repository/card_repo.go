package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danethurber/ponderous/internal/collection"
	"github.com/danethurber/ponderous/internal/corpus"
)

// CardRepository handles database operations for card metadata.
type CardRepository interface {
	// UpsertCards inserts or updates card printings.
	UpsertCards(ctx context.Context, cards []corpus.Card) error

	// ListPreferred returns one printing per card name: the one with the
	// alphabetically first set code.
	ListPreferred(ctx context.Context) ([]corpus.Card, error)
}

type cardRepository struct {
	db Querier
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db Querier) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) UpsertCards(ctx context.Context, cards []corpus.Card) error {
	if len(cards) == 0 {
		return nil
	}

	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO cards (name, set_code, color_identity, mana_value, price_usd, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, set_code) DO UPDATE SET
			color_identity = COALESCE(excluded.color_identity, cards.color_identity),
			mana_value = COALESCE(excluded.mana_value, cards.mana_value),
			price_usd = COALESCE(excluded.price_usd, cards.price_usd),
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare card upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, c := range cards {
		if _, err := stmt.ExecContext(ctx, c.Name, c.SetCode, nullIdentity(c.ColorIdentity),
			nullFloat(c.ManaValue), nullFloat(c.Price), now); err != nil {
			return fmt.Errorf("failed to upsert card %q: %w", c.Name, err)
		}
	}

	return nil
}

func (r *cardRepository) ListPreferred(ctx context.Context) ([]corpus.Card, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, set_code, color_identity, mana_value, price_usd
		FROM cards
		ORDER BY name, set_code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []corpus.Card
	seen := make(map[string]struct{})
	for rows.Next() {
		var (
			c        corpus.Card
			identity sql.NullString
			mv       sql.NullFloat64
			price    sql.NullFloat64
		)
		if err := rows.Scan(&c.Name, &c.SetCode, &identity, &mv, &price); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		key := collection.NormalizeName(c.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		c.ColorIdentity = identityPtr(identity)
		c.ManaValue = floatPtr(mv)
		c.Price = floatPtr(price)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}

	return out, nil
}
