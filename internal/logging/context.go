package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const runIDKey contextKey = "run_id"

// NewRunID returns a short random id identifying one CLI invocation.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// ContextWithRunID attaches a new run id to ctx.
func ContextWithRunID(ctx context.Context) context.Context {
	return context.WithValue(ctx, runIDKey, NewRunID())
}

// RunIDFromContext returns the run id, or "" when none is set.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger with the run id from ctx attached.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if id := RunIDFromContext(ctx); id != "" {
		l = l.With().Str("run_id", id).Logger()
	}
	return &l
}
