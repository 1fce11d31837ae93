package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrEmptySeries is returned when a series holds no candles.
	ErrEmptySeries = errors.New("empty candle series")
	// ErrUnordered is returned when timestamps are not strictly ascending.
	ErrUnordered = errors.New("candle timestamps not strictly ascending")
	// ErrInvalidCandle is returned for negative or non-finite OHLCV values.
	ErrInvalidCandle = errors.New("invalid candle value")
)

// Candle is one OHLCV bar. Prices and volume are float64 so indicator
// output can be compared against the reference library without rescaling.
type Candle struct {
	TS     time.Time `json:"ts"` // bar timestamp (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

func (c *Candle) validate() error {
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return ErrInvalidCandle
		}
	}
	return nil
}

// Series is the ordered candle history for one instrument and interval.
// It is created once by a loader and treated as read-only afterwards.
type Series struct {
	Symbol   string   `json:"symbol"`
	Interval string   `json:"interval"`
	Candles  []Candle `json:"candles"`
}

// Key returns "symbol:interval".
func (s *Series) Key() string {
	return s.Symbol + ":" + s.Interval
}

// Len returns the number of candles.
func (s *Series) Len() int { return len(s.Candles) }

// Validate checks the series invariants: at least one candle, strictly
// ascending timestamps and finite non-negative OHLCV values. Gaps between
// timestamps are allowed.
func (s *Series) Validate() error {
	if len(s.Candles) == 0 {
		return ErrEmptySeries
	}
	for i := range s.Candles {
		c := &s.Candles[i]
		if err := c.validate(); err != nil {
			return fmt.Errorf("candle %d (%s): %w", i, c.TS.Format(time.RFC3339), err)
		}
		if i > 0 && !c.TS.After(s.Candles[i-1].TS) {
			return fmt.Errorf("candle %d (%s): %w", i, c.TS.Format(time.RFC3339), ErrUnordered)
		}
	}
	return nil
}

// Opens returns a copy of the open prices.
func (s *Series) Opens() []float64 { return s.column(func(c *Candle) float64 { return c.Open }) }

// Highs returns a copy of the high prices.
func (s *Series) Highs() []float64 { return s.column(func(c *Candle) float64 { return c.High }) }

// Lows returns a copy of the low prices.
func (s *Series) Lows() []float64 { return s.column(func(c *Candle) float64 { return c.Low }) }

// Closes returns a copy of the close prices.
func (s *Series) Closes() []float64 { return s.column(func(c *Candle) float64 { return c.Close }) }

// Volumes returns a copy of the volumes.
func (s *Series) Volumes() []float64 { return s.column(func(c *Candle) float64 { return c.Volume }) }

// Times returns a copy of the candle timestamps.
func (s *Series) Times() []time.Time {
	out := make([]time.Time, len(s.Candles))
	for i := range s.Candles {
		out[i] = s.Candles[i].TS
	}
	return out
}

func (s *Series) column(get func(*Candle) float64) []float64 {
	out := make([]float64, len(s.Candles))
	for i := range s.Candles {
		out[i] = get(&s.Candles[i])
	}
	return out
}
