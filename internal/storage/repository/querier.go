// Package repository holds the SQL for each stored entity.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/danethurber/ponderous/internal/corpus"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so a repository can run
// standalone or inside a caller's transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// nullIdentity stores an unknown identity as NULL and colorless as "C".
func nullIdentity(ci *corpus.ColorIdentity) sql.NullString {
	if ci == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: ci.String(), Valid: true}
}

// identityPtr reads a stored identity. Unparseable values are treated as
// unknown rather than failing the whole load.
func identityPtr(v sql.NullString) *corpus.ColorIdentity {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ci, err := corpus.ParseColorIdentity(v.String)
	if err != nil {
		return nil
	}
	return &ci
}
