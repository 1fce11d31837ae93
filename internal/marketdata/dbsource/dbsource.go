// Package dbsource loads a candle series from a stored candle history.
package dbsource

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tradesignals/internal/model"
)

// Source reads one symbol/interval history through a CandleReader.
type Source struct {
	reader   model.CandleReader
	symbol   string
	interval string
	from     time.Time
}

var _ model.SeriesSource = (*Source)(nil)

// New creates a Source. from filters candles to those strictly after it
// (zero = all).
func New(reader model.CandleReader, symbol, interval string, from time.Time) *Source {
	return &Source{reader: reader, symbol: symbol, interval: interval, from: from}
}

// Load reads and validates the stored series.
func (s *Source) Load(ctx context.Context) (model.Series, error) {
	series, err := s.reader.ReadSeries(ctx, s.symbol, s.interval, s.from)
	if err != nil {
		return model.Series{}, err
	}
	if series.Len() == 0 {
		return model.Series{}, fmt.Errorf("no stored candles for %s:%s: %w", s.symbol, s.interval, model.ErrEmptySeries)
	}
	if err := series.Validate(); err != nil {
		return model.Series{}, fmt.Errorf("stored series %s: %w", series.Key(), err)
	}
	slog.Default().Info("stored series loaded",
		"key", series.Key(),
		"candles", series.Len(),
		"from", series.Candles[0].TS,
		"to", series.Candles[series.Len()-1].TS,
	)
	return series, nil
}
