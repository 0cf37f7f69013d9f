package resumevec

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with resumevec-specific context.
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

// WithOwner adds an owner_id field to the logger.
func (l *Logger) WithOwner(ownerID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("owner_id", ownerID),
	}
}

// LogIngest logs an ingestion operation.
func (l *Logger) LogIngest(ctx context.Context, ownerID, filename, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ingest failed",
			"owner_id", ownerID,
			"filename", filename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "ingest completed",
			"owner_id", ownerID,
			"filename", filename,
			"id", id,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, kind string, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"kind", kind,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"kind", kind,
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, id, ownerID string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"id", id,
			"owner_id", ownerID,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "delete completed",
			"id", id,
			"owner_id", ownerID,
		)
	}
}

// LogRebuild logs an index rebuild from the record store.
func (l *Logger) LogRebuild(ctx context.Context, recordsReplayed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index rebuild failed",
			"records_replayed", recordsReplayed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index rebuild completed",
			"records_replayed", recordsReplayed,
		)
	}
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, location string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"location", location,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"location", location,
			"records", count,
		)
	}
}
