package dbsource

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradesignals/internal/model"
)

type fakeReader struct {
	series model.Series
	err    error
	gotArg time.Time
}

func (f *fakeReader) ReadSeries(_ context.Context, symbol, interval string, from time.Time) (model.Series, error) {
	f.gotArg = from
	s := f.series
	s.Symbol, s.Interval = symbol, interval
	return s, f.err
}

func (f *fakeReader) Close() error { return nil }

func TestLoad(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	from := ts.Add(-time.Hour)
	r := &fakeReader{series: model.Series{Candles: []model.Candle{
		{TS: ts, Open: 1, High: 2, Low: 1, Close: 2, Volume: 10},
		{TS: ts.Add(time.Hour), Open: 2, High: 3, Low: 2, Close: 3, Volume: 10},
	}}}
	s, err := New(r, "ETH", "1h", from).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Key() != "ETH:1h" || s.Len() != 2 {
		t.Errorf("got %s with %d candles", s.Key(), s.Len())
	}
	if !r.gotArg.Equal(from) {
		t.Errorf("from passed as %v", r.gotArg)
	}
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := New(&fakeReader{}, "ETH", "1h", time.Time{}).Load(ctx); !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
	boom := errors.New("boom")
	if _, err := New(&fakeReader{err: boom}, "ETH", "1h", time.Time{}).Load(ctx); !errors.Is(err, boom) {
		t.Errorf("expected reader error, got %v", err)
	}
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	unordered := &fakeReader{series: model.Series{Candles: []model.Candle{{TS: ts, Close: 1}, {TS: ts, Close: 2}}}}
	if _, err := New(unordered, "ETH", "1h", time.Time{}).Load(ctx); !errors.Is(err, model.ErrUnordered) {
		t.Errorf("expected ErrUnordered, got %v", err)
	}
}
