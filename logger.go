package slichash

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/slichash/model"
)

// Logger wraps slog.Logger with slichash-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithImage adds an image name field to the logger.
func (l *Logger) WithImage(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("image", name),
	}
}

// LogIndex logs the indexing of one database image.
func (l *Logger) LogIndex(ctx context.Context, name string, id model.ImageID, regions int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index failed",
			"image", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "index completed",
			"image", name,
			"id", uint32(id),
			"regions", regions,
		)
	}
}

// LogBuild logs a bulk build.
func (l *Logger) LogBuild(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "build completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"count", count,
		)
	}
}

// LogQuery logs a query.
func (l *Logger) LogQuery(ctx context.Context, m Match, regions int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "query failed",
			"regions", regions,
			"error", err,
		)
	case !m.Found:
		l.DebugContext(ctx, "query found no match",
			"regions", regions,
		)
	default:
		l.DebugContext(ctx, "query completed",
			"regions", regions,
			"match", m.Name,
			"votes", m.Votes,
		)
	}
}

// LogSeal logs the transition into the query phase.
func (l *Logger) LogSeal(ctx context.Context, images, entries int) {
	l.InfoContext(ctx, "database sealed",
		"images", images,
		"entries", entries,
	)
}
