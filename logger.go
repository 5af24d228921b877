package hashmodel

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with hashmodel-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPath adds a file or blob path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithClasses adds a class count field to the logger.
func (l *Logger) WithClasses(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("classes", n),
	}
}

// WithModel adds a model kind field ("linear" or "network").
func (l *Logger) WithModel(kind string) *Logger {
	return &Logger{
		Logger: l.Logger.With("model", kind),
	}
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, path string, features int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "model saved",
			"path", path,
			"features", features,
			"elapsed", elapsed,
		)
	}
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(ctx context.Context, path string, features int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "model loaded",
			"path", path,
			"features", features,
			"elapsed", elapsed,
		)
	}
}

// LogPublish logs a publish or fetch against a blob store.
func (l *Logger) LogPublish(ctx context.Context, op, name string, bytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, op+" completed",
			"name", name,
			"bytes", bytes,
		)
	}
}

// LogTrain logs a training step.
func (l *Logger) LogTrain(ctx context.Context, gold, predicted int, loss float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "train step failed",
			"gold", gold,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "train step completed",
			"gold", gold,
			"predicted", predicted,
			"loss", loss,
		)
	}
}
