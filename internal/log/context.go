package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const runIDKey ctxKey = "run_id"

// ContextWithRunID stores the run id in ctx.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run id stored in ctx, or "".
func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runIDKey).(string); ok {
		return v
	}
	return ""
}

// ForRun returns a component logger tagged with the run id from ctx.
func ForRun(ctx context.Context, component string) zerolog.Logger {
	l := WithComponent(component)
	if id := RunIDFromContext(ctx); id != "" {
		l = l.With().Str(FieldRunID, id).Logger()
	}
	return l
}
