// Package notification delivers run alerts to external channels.
package notification

import (
	"context"
	"encoding/json"
	"log/slog"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel      `json:"level"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	RunID   string          `json:"run_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"` // e.g. a backtest summary
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to a logger.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a log-based notifier. A nil logger uses slog.Default.
func NewLogNotifier(l *slog.Logger) *LogNotifier {
	if l == nil {
		l = slog.Default()
	}
	return &LogNotifier{log: l}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	level := slog.LevelInfo
	switch alert.Level {
	case AlertWarning:
		level = slog.LevelWarn
	case AlertCritical:
		level = slog.LevelError
	}
	n.log.Log(ctx, level, alert.Title, "message", alert.Message, "run_id", alert.RunID)
	return nil
}

// Multi fans an alert out to several notifiers and returns the first error.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var first error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil && first == nil {
			first = err
		}
	}
	return first
}
