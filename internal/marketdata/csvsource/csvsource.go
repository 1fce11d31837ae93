// Package csvsource loads a candle series from a CSV file with the header
// DateTime,Open,High,Low,Close,Volume.
package csvsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"tradesignals/internal/model"
)

// Column names expected in the header row.
const (
	ColDateTime = "DateTime"
	ColOpen     = "Open"
	ColHigh     = "High"
	ColLow      = "Low"
	ColClose    = "Close"
	ColVolume   = "Volume"
)

// Accepted DateTime layouts, tried in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

var (
	ErrMissingColumn = errors.New("csv missing column")
	ErrBadTimestamp  = errors.New("csv bad timestamp")
)

// Source reads candles from a CSV file.
type Source struct {
	path     string
	symbol   string
	interval string
	loc      *time.Location
	log      *slog.Logger
}

var _ model.SeriesSource = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithLocation sets the zone used for timestamps without an offset.
// Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Source) { s.loc = loc }
}

// WithLogger sets the logger. Default slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) { s.log = l }
}

// New creates a CSV source for path labelled with symbol and interval.
func New(path, symbol, interval string, opts ...Option) *Source {
	s := &Source{path: path, symbol: symbol, interval: interval, loc: time.UTC, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load reads and validates the file.
func (s *Source) Load(ctx context.Context) (model.Series, error) {
	if err := ctx.Err(); err != nil {
		return model.Series{}, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return model.Series{}, fmt.Errorf("csv open %s: %w", s.path, err)
	}
	defer f.Close()

	out, err := Parse(f, s.symbol, s.interval, s.loc)
	if err != nil {
		return model.Series{}, fmt.Errorf("csv %s: %w", s.path, err)
	}
	s.log.Info("csv series loaded",
		"path", s.path,
		"key", out.Key(),
		"candles", out.Len(),
		"from", out.Candles[0].TS,
		"to", out.Candles[out.Len()-1].TS,
	)
	return out, nil
}

// Parse reads a CSV stream into a series. Rows are sorted by time and a
// repeated timestamp keeps its last row. The result is validated.
func Parse(r io.Reader, symbol, interval string, loc *time.Location) (model.Series, error) {
	if loc == nil {
		loc = time.UTC
	}
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.WithTypes(map[string]series.Type{
			ColDateTime: series.String,
			ColOpen:     series.Float,
			ColHigh:     series.Float,
			ColLow:      series.Float,
			ColClose:    series.Float,
			ColVolume:   series.Float,
		}),
	)
	if df.Err != nil {
		return model.Series{}, fmt.Errorf("csv read: %w", df.Err)
	}
	if err := requireColumns(df.Names()); err != nil {
		return model.Series{}, err
	}

	stamps := df.Col(ColDateTime).Records()
	opens := df.Col(ColOpen).Float()
	highs := df.Col(ColHigh).Float()
	lows := df.Col(ColLow).Float()
	closes := df.Col(ColClose).Float()
	volumes := df.Col(ColVolume).Float()

	candles := make([]model.Candle, 0, df.Nrow())
	for i, raw := range stamps {
		ts, err := parseTime(raw, loc)
		if err != nil {
			return model.Series{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		candles = append(candles, model.Candle{
			TS:     ts,
			Open:   opens[i],
			High:   highs[i],
			Low:    lows[i],
			Close:  closes[i],
			Volume: volumes[i],
		})
	}

	out := model.Series{Symbol: symbol, Interval: interval, Candles: dedupe(candles)}
	if err := out.Validate(); err != nil {
		return model.Series{}, err
	}
	return out, nil
}

func requireColumns(names []string) error {
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	var missing []string
	for _, want := range []string{ColDateTime, ColOpen, ColHigh, ColLow, ColClose, ColVolume} {
		if !have[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(missing, ","), ErrMissingColumn)
	}
	return nil
}

func parseTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", raw, ErrBadTimestamp)
}

// dedupe sorts by time and keeps the last row of each timestamp.
func dedupe(candles []model.Candle) []model.Candle {
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].TS.Before(candles[j].TS) })
	out := candles[:0]
	for _, c := range candles {
		if n := len(out); n > 0 && out[n-1].TS.Equal(c.TS) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}
