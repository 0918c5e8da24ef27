package fpsim

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/fpsim/metadata"
)

// Logger wraps slog.Logger with fpsim-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithThreshold adds a threshold field to the logger.
func (l *Logger) WithThreshold(threshold float64) *Logger {
	return &Logger{
		Logger: l.Logger.With("threshold", threshold),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogSearch logs a finished search.
func (l *Logger) LogSearch(ctx context.Context, kind string, queries, hits int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"kind", kind,
			"queries", queries,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"kind", kind,
		"queries", queries,
		"hits", hits,
		"duration", d,
	)
}

// LogBatch logs one processed query batch.
func (l *Logger) LogBatch(ctx context.Context, kind string, index, size int, d time.Duration) {
	l.DebugContext(ctx, "batch completed",
		"kind", kind,
		"batch", index,
		"size", size,
		"duration", d,
	)
}

// LogLoad logs loading fingerprints into an arena.
func (l *Logger) LogLoad(ctx context.Context, records int, reordered bool, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"records", records,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "arena loaded",
		"records", records,
		"reordered", reordered,
		"duration", d,
	)
}

// LogWarnings logs metadata differences between queries and targets.
func (l *Logger) LogWarnings(ctx context.Context, warnings []metadata.Warning) {
	for _, w := range warnings {
		l.WarnContext(ctx, "query and target metadata differ",
			"field", w.Field,
			"query", w.Query,
			"target", w.Target,
		)
	}
}
