package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danethurber/ponderous/internal/collection"
)

// UserSummary describes one stored collection.
type UserSummary struct {
	UserID      string    `json:"userId"`
	UniqueCards int       `json:"uniqueCards"`
	TotalCards  int       `json:"totalCards"`
	Sources     int       `json:"sources"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CollectionRepository handles database operations for user collections.
type CollectionRepository interface {
	// UpsertCards inserts or updates cards for a user and import source.
	UpsertCards(ctx context.Context, userID, source string, cards []collection.OwnedCard) (int, error)

	// DeleteSource removes every card a source contributed to a user's collection.
	DeleteSource(ctx context.Context, userID, source string) (int64, error)

	// GetCards returns all cards a user owns, across sources, ordered by name.
	GetCards(ctx context.Context, userID string) ([]collection.OwnedCard, error)

	// ListUsers summarizes every stored collection.
	ListUsers(ctx context.Context) ([]UserSummary, error)

	// DeleteUser removes a user's collection.
	DeleteUser(ctx context.Context, userID string) (int64, error)
}

type collectionRepository struct {
	db Querier
}

// NewCollectionRepository creates a new collection repository.
func NewCollectionRepository(db Querier) CollectionRepository {
	return &collectionRepository{db: db}
}

// UpsertCards writes cards with one prepared statement. Callers wanting
// all-or-nothing semantics pass a *sql.Tx.
func (r *collectionRepository) UpsertCards(ctx context.Context, userID, source string, cards []collection.OwnedCard) (int, error) {
	if len(cards) == 0 {
		return 0, nil
	}

	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO user_collections (user_id, card_name, quantity, foil_quantity, price_usd, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, card_name, source) DO UPDATE SET
			quantity = excluded.quantity,
			foil_quantity = excluded.foil_quantity,
			price_usd = excluded.price_usd,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare collection upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, card := range cards {
		if _, err := stmt.ExecContext(ctx, userID, card.Name, card.Quantity, card.FoilQuantity,
			nullFloat(card.UnitPrice), source, now); err != nil {
			return 0, fmt.Errorf("failed to upsert card %q: %w", card.Name, err)
		}
	}

	return len(cards), nil
}

func (r *collectionRepository) DeleteSource(ctx context.Context, userID, source string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_collections WHERE user_id = ? AND source = ?`, userID, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete collection source: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted cards: %w", err)
	}
	return n, nil
}

func (r *collectionRepository) GetCards(ctx context.Context, userID string) ([]collection.OwnedCard, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT card_name, quantity, foil_quantity, price_usd
		FROM user_collections
		WHERE user_id = ?
		ORDER BY card_name, source
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []collection.OwnedCard
	for rows.Next() {
		var (
			card  collection.OwnedCard
			price sql.NullFloat64
		)
		if err := rows.Scan(&card.Name, &card.Quantity, &card.FoilQuantity, &price); err != nil {
			return nil, fmt.Errorf("failed to scan collection card: %w", err)
		}
		card.UnitPrice = floatPtr(price)
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection: %w", err)
	}

	return cards, nil
}

func (r *collectionRepository) ListUsers(ctx context.Context) ([]UserSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id,
			COUNT(DISTINCT card_name),
			COALESCE(SUM(quantity + foil_quantity), 0),
			COUNT(DISTINCT source),
			MAX(updated_at)
		FROM user_collections
		GROUP BY user_id
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []UserSummary
	for rows.Next() {
		var (
			u       UserSummary
			updated any
		)
		if err := rows.Scan(&u.UserID, &u.UniqueCards, &u.TotalCards, &u.Sources, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		u.UpdatedAt = parseTimestamp(updated)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (r *collectionRepository) DeleteUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_collections WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted cards: %w", err)
	}
	return n, nil
}

// parseTimestamp reads an aggregate timestamp. The driver only converts
// declared DATETIME columns, so MAX(updated_at) may arrive as text.
func parseTimestamp(v any) time.Time {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return time.Time{}
	}

	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
