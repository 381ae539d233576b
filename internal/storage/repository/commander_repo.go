package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danethurber/ponderous/internal/corpus"
)

// CommanderRepository handles database operations for commander metadata.
type CommanderRepository interface {
	// Upsert inserts or replaces a commander's metadata.
	Upsert(ctx context.Context, cmd *corpus.Commander) error

	// Get returns a commander by name, or nil if it is not stored.
	Get(ctx context.Context, name string) (*corpus.Commander, error)

	// List returns every commander ordered by name.
	List(ctx context.Context) ([]corpus.Commander, error)

	// Count returns the number of stored commanders.
	Count(ctx context.Context) (int, error)
}

type commanderRepository struct {
	db Querier
}

// NewCommanderRepository creates a new commander repository.
func NewCommanderRepository(db Querier) CommanderRepository {
	return &commanderRepository{db: db}
}

const commanderColumns = `name, color_identity, popularity_rank, total_decks, avg_deck_price, salt_score, power_level`

func (r *commanderRepository) Upsert(ctx context.Context, cmd *corpus.Commander) error {
	query := `
		INSERT INTO commanders (` + commanderColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			color_identity = excluded.color_identity,
			popularity_rank = excluded.popularity_rank,
			total_decks = excluded.total_decks,
			avg_deck_price = excluded.avg_deck_price,
			salt_score = excluded.salt_score,
			power_level = excluded.power_level,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		cmd.Name,
		nullIdentity(cmd.ColorIdentity),
		nullInt(cmd.PopularityRank),
		cmd.TotalDeckCount,
		cmd.AverageDeckPrice,
		nullFloat(cmd.SaltScore),
		nullFloat(cmd.PowerLevel),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert commander %q: %w", cmd.Name, err)
	}

	return nil
}

func (r *commanderRepository) Get(ctx context.Context, name string) (*corpus.Commander, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+commanderColumns+` FROM commanders WHERE name = ?`, name)
	cmd, err := scanCommander(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commander: %w", err)
	}
	return cmd, nil
}

func (r *commanderRepository) List(ctx context.Context) ([]corpus.Commander, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+commanderColumns+` FROM commanders ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query commanders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []corpus.Commander
	for rows.Next() {
		cmd, err := scanCommander(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commander: %w", err)
		}
		out = append(out, *cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commanders: %w", err)
	}

	return out, nil
}

func (r *commanderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commanders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count commanders: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCommander(s scanner) (*corpus.Commander, error) {
	var (
		cmd      corpus.Commander
		identity sql.NullString
		rank     sql.NullInt64
		salt     sql.NullFloat64
		power    sql.NullFloat64
	)
	if err := s.Scan(&cmd.Name, &identity, &rank, &cmd.TotalDeckCount, &cmd.AverageDeckPrice, &salt, &power); err != nil {
		return nil, err
	}
	cmd.ColorIdentity = identityPtr(identity)
	cmd.PopularityRank = intPtr(rank)
	cmd.SaltScore = floatPtr(salt)
	cmd.PowerLevel = floatPtr(power)
	return &cmd, nil
}
