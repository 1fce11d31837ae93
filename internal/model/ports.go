package model

import (
	"context"
	"time"
)

// ── Port Interfaces ──
// These interfaces decouple the signal pipeline from concrete sources and
// sinks (CSV files, SQLite, Redis). Each implementation satisfies one or more.

// SeriesSource loads a complete candle series before any computation starts.
type SeriesSource interface {
	// Load returns a validated series.
	Load(ctx context.Context) (Series, error)
}

// CandleWriter persists candle history.
type CandleWriter interface {
	// UpsertCandles inserts or replaces every candle of the series.
	UpsertCandles(ctx context.Context, series Series) (int, error)

	// Close releases underlying resources.
	Close() error
}

// CandleReader reads candle history for one instrument and interval.
type CandleReader interface {
	// ReadSeries reads candles strictly after from, ordered ascending.
	ReadSeries(ctx context.Context, symbol, interval string, from time.Time) (Series, error)

	// Close releases underlying resources.
	Close() error
}

// SignalPublisher ships non-hold signal events and a run summary to
// downstream consumers.
type SignalPublisher interface {
	// PublishSignals writes the events for one strategy run.
	PublishSignals(ctx context.Context, events []SignalEvent) error

	// PublishSummary stores the latest run summary as raw JSON.
	PublishSummary(ctx context.Context, symbol string, data []byte) error

	// Close releases underlying resources.
	Close() error
}
