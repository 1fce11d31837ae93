// Package indicator provides technical indicator calculations over candle data.
//
// Every calculation is a pure batch transform: it reads a whole input series
// and returns output series of the same length. Leading entries that fall
// inside the lookback window are NaN. Formulas follow TA-Lib's definitions
// so results match the reference library to floating-point tolerance.
package indicator

import (
	"errors"
	"fmt"
	"math"

	"tradesignals/internal/model"
)

var (
	// ErrInvalidParameter is returned for a period below the indicator's minimum.
	ErrInvalidParameter = errors.New("invalid indicator parameter")
	// ErrEmptyInput is returned when the input series has no values.
	ErrEmptyInput = errors.New("empty input series")
)

// Default parameters, matching the reference library wrappers.
const (
	DefaultMAPeriod       = 30
	DefaultWithDataPeriod = 14
	DefaultBBandsPeriod   = 5
	DefaultDMIPeriod      = 14
	DefaultKPeriod        = 5
	DefaultDPeriod        = 3
	DefaultMACDFast       = 12
	DefaultMACDSlow       = 26
	DefaultMACDSignal     = 9
	DefaultMFIPeriod      = 14
	DefaultMTMPeriod      = 10
	DefaultROCPeriod      = 10
	DefaultRSIPeriod      = 14
	DefaultWillRPeriod    = 14

	bbandsDeviations = 2.0
)

// Indicator computes indicators over one candle series. It keeps private
// column copies so the caller's series is never touched.
type Indicator struct {
	series model.Series
	high   []float64
	low    []float64
	close  []float64
	volume []float64
}

// New validates the series and prepares its price columns.
func New(series model.Series) (*Indicator, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("indicator: %w", ErrEmptyInput)
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("indicator: %w", err)
	}
	return &Indicator{
		series: series,
		high:   series.Highs(),
		low:    series.Lows(),
		close:  series.Closes(),
		volume: series.Volumes(),
	}, nil
}

// Len returns the number of candles.
func (ind *Indicator) Len() int { return len(ind.close) }

// Series returns the candle series the indicator was built from.
func (ind *Indicator) Series() model.Series { return ind.series }

// Closes returns a copy of the close prices.
func (ind *Indicator) Closes() []float64 {
	out := make([]float64, len(ind.close))
	copy(out, ind.close)
	return out
}

func checkPeriod(name string, period, min int) error {
	if period < min {
		return fmt.Errorf("%s period %d (min %d): %w", name, period, min, ErrInvalidParameter)
	}
	return nil
}

func checkData(name string, data []float64) error {
	if len(data) == 0 {
		return fmt.Errorf("%s: %w", name, ErrEmptyInput)
	}
	return nil
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// firstValid returns the index of the first non-NaN value, or len(data).
// Derived series (momentum, ROC) carry a NaN warm-up prefix which is skipped
// before a second indicator is applied on top.
func firstValid(data []float64) int {
	for i, v := range data {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(data)
}

// isZero mirrors the reference library's epsilon test.
func isZero(v float64) bool {
	return v > -1e-8 && v < 1e-8
}

func highest(data []float64, from, to int) float64 {
	h := data[from]
	for i := from + 1; i <= to; i++ {
		if data[i] > h {
			h = data[i]
		}
	}
	return h
}

func lowest(data []float64, from, to int) float64 {
	l := data[from]
	for i := from + 1; i <= to; i++ {
		if data[i] < l {
			l = data[i]
		}
	}
	return l
}
