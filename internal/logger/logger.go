// Package logger provides structured logging using Go 1.21's log/slog.
// It sets up a JSON handler with service-level context and provides
// run ID propagation through context.Context.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type ctxKey string

const runIDKey ctxKey = "run_id"

// Init creates a JSON logger on stdout for service and installs it as the
// slog default.
func Init(service string, level slog.Level) *slog.Logger {
	logger := New(os.Stdout, service, level)
	slog.SetDefault(logger)
	return logger
}

// New creates a JSON logger writing to w with the service name embedded.
func New(w io.Writer, service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With(slog.String("service", service))
}

// ParseLevel maps "debug", "info", "warn" and "error" to a level. Unknown
// or empty values give info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRunID stores a run ID in the context for downstream propagation.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunID extracts the run ID from context. Returns "" if not set.
func RunID(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey).(string); ok {
		return v
	}
	return ""
}

// NewRunID creates a run ID from a symbol and start time.
// Format: "{symbol}-{unixNano}".
func NewRunID(symbol string, ts time.Time) string {
	return fmt.Sprintf("%s-%d", symbol, ts.UnixNano())
}

// LogWithRun returns slog attributes including the run ID from context.
// Usage: slog.Info("msg", logger.LogWithRun(ctx)...)
func LogWithRun(ctx context.Context) []any {
	id := RunID(ctx)
	if id == "" {
		return nil
	}
	return []any{slog.String("run_id", id)}
}

// FromContext returns base annotated with the run ID from ctx, if any.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if attrs := LogWithRun(ctx); attrs != nil {
		return base.With(attrs...)
	}
	return base
}
