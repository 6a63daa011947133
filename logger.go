package blockmat

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with blockmat-specific context.
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

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithMatrix adds a matrix field to the logger.
func (l *Logger) WithMatrix(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("matrix", name),
	}
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(ctx context.Context, name string, sparse bool, blocks int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"matrix", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "matrix loaded",
		"matrix", name,
		"sparse", sparse,
		"blocks", blocks,
		"elapsed", elapsed,
	)
}

// LogTranspose logs a transpose operation.
func (l *Logger) LogTranspose(ctx context.Context, name string, pairs int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "transpose failed",
			"matrix", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "matrix transposed",
		"matrix", name,
		"pairs", pairs,
		"elapsed", elapsed,
	)
}

// LogExport logs a makePermanent operation.
func (l *Logger) LogExport(ctx context.Context, name, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "export failed",
			"matrix", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "matrix exported",
		"matrix", name,
		"path", path,
	)
}

// LogUnload logs an unload operation.
func (l *Logger) LogUnload(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "unload failed",
			"matrix", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "matrix unloaded",
		"matrix", name,
	)
}
