// Package observability carries cycle identity through a context so that log
// records of one build cycle can be correlated.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
)

// LogContext identifies the cycle, docset and stage a log record belongs to.
type LogContext struct {
	CycleID string
	Docset  string
	Stage   string
}

type logContextKey struct{}

// FromContext returns the LogContext stored in ctx, or the zero value.
func FromContext(ctx context.Context) LogContext {
	lc, _ := ctx.Value(logContextKey{}).(LogContext)
	return lc
}

func with(ctx context.Context, set func(*LogContext)) context.Context {
	lc := FromContext(ctx)
	set(&lc)
	return context.WithValue(ctx, logContextKey{}, lc)
}

// WithCycleID tags ctx with the id of the running build cycle.
func WithCycleID(ctx context.Context, id string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.CycleID = id })
}

// WithDocset tags ctx with the primary docset path.
func WithDocset(ctx context.Context, path string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.Docset = path })
}

// WithStage replaces the stage of ctx.
func WithStage(ctx context.Context, stage string) context.Context {
	return with(ctx, func(lc *LogContext) { lc.Stage = stage })
}

// Attrs returns the non-empty fields of the context's LogContext.
func Attrs(ctx context.Context) []slog.Attr {
	lc := FromContext(ctx)
	var attrs []slog.Attr
	if lc.CycleID != "" {
		attrs = append(attrs, logfields.CycleID(lc.CycleID))
	}
	if lc.Docset != "" {
		attrs = append(attrs, logfields.Docset(lc.Docset))
	}
	if lc.Stage != "" {
		attrs = append(attrs, logfields.Stage(lc.Stage))
	}
	return attrs
}

func log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	slog.LogAttrs(ctx, level, msg, append(Attrs(ctx), attrs...)...)
}

// DebugContext logs at debug level with the cycle attributes of ctx.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelDebug, msg, attrs)
}

// InfoContext logs at info level with the cycle attributes of ctx.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelInfo, msg, attrs)
}

// WarnContext logs at warn level with the cycle attributes of ctx.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelWarn, msg, attrs)
}
