package logging

import (
	"context"
	"log/slog"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	runIDKey   contextKey = "run_id"
	triggerKey contextKey = "trigger"
	actorKey   contextKey = "actor"
)

// Trigger values describing why a run started.
const (
	TriggerStartup   = "startup"
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// WithRunID attaches a run identifier to ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID returns the run identifier from ctx, if any.
func GetRunID(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey).(string); ok {
		return v
	}
	return ""
}

// WithTrigger records why the current run started.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey, trigger)
}

// GetTrigger returns the trigger from ctx, if any.
func GetTrigger(ctx context.Context) string {
	if v, ok := ctx.Value(triggerKey).(string); ok {
		return v
	}
	return ""
}

// WithActor records who initiated the current operation.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor returns the actor from ctx, if any.
func GetActor(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey).(string); ok {
		return v
	}
	return ""
}

// FromContext returns logger annotated with the run fields present in ctx.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	var args []any
	if v := GetRunID(ctx); v != "" {
		args = append(args, "run_id", v)
	}
	if v := GetTrigger(ctx); v != "" {
		args = append(args, "trigger", v)
	}
	if v := GetActor(ctx); v != "" {
		args = append(args, "actor", v)
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
