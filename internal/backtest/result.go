package backtest

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"tradesignals/internal/model"
)

// Result is the outcome of one backtest.
type Result struct {
	Symbol         string          `json:"symbol"`
	Interval       string          `json:"interval"`
	Start          time.Time       `json:"start"`
	End            time.Time       `json:"end"`
	Bars           int             `json:"bars"`
	Signals        int             `json:"signals"`
	StartEquity    decimal.Decimal `json:"start_equity"`
	FinalEquity    decimal.Decimal `json:"final_equity"`
	ReturnPct      float64         `json:"return_pct"`
	BuyHoldPct     float64         `json:"buy_hold_return_pct"`
	MaxDrawdownPct float64         `json:"max_drawdown_pct"`
	WinRatePct     float64         `json:"win_rate_pct"`
	Trades         []Trade         `json:"trades"`
	Fills          []Fill          `json:"-"`
	Equity         []float64       `json:"-"`
}

// Summary is the compact form of a Result, without per-trade detail.
type Summary struct {
	Symbol         string    `json:"symbol"`
	Interval       string    `json:"interval"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Bars           int       `json:"bars"`
	Signals        int       `json:"signals"`
	Trades         int       `json:"trades"`
	StartEquity    string    `json:"start_equity"`
	FinalEquity    string    `json:"final_equity"`
	ReturnPct      float64   `json:"return_pct"`
	BuyHoldPct     float64   `json:"buy_hold_return_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	WinRatePct     float64   `json:"win_rate_pct"`
}

func newResult(series model.Series, cash decimal.Decimal, b *broker, equity []float64, signals model.SignalSeries) *Result {
	first, last := series.Candles[0], series.Candles[len(series.Candles)-1]
	buys, sells := signals.Counts()
	res := &Result{
		Symbol:         series.Symbol,
		Interval:       series.Interval,
		Start:          first.TS,
		End:            last.TS,
		Bars:           series.Len(),
		Signals:        buys + sells,
		StartEquity:    cash,
		FinalEquity:    b.cash,
		ReturnPct:      pctChange(cash, b.cash),
		BuyHoldPct:     pctChange(decimal.NewFromFloat(first.Close), decimal.NewFromFloat(last.Close)),
		MaxDrawdownPct: MaxDrawdown(equity),
		Trades:         b.trades,
		Fills:          b.fills,
		Equity:         equity,
	}
	if len(b.trades) > 0 {
		wins := 0
		for _, t := range b.trades {
			if t.PnL.IsPositive() {
				wins++
			}
		}
		res.WinRatePct = 100 * float64(wins) / float64(len(b.trades))
	}
	return res
}

// Summary returns the compact form of r.
func (r *Result) Summary() Summary {
	return Summary{
		Symbol:         r.Symbol,
		Interval:       r.Interval,
		Start:          r.Start,
		End:            r.End,
		Bars:           r.Bars,
		Signals:        r.Signals,
		Trades:         len(r.Trades),
		StartEquity:    r.StartEquity.StringFixed(2),
		FinalEquity:    r.FinalEquity.StringFixed(2),
		ReturnPct:      r.ReturnPct,
		BuyHoldPct:     r.BuyHoldPct,
		MaxDrawdownPct: r.MaxDrawdownPct,
		WinRatePct:     r.WinRatePct,
	}
}

// JSON returns the summary as JSON bytes.
func (s Summary) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// MaxDrawdown returns the largest peak-to-trough decline of an equity
// curve, in percent of the peak.
func MaxDrawdown(equity []float64) float64 {
	var peak, maxDD float64
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak * 100; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func pctChange(from, to decimal.Decimal) float64 {
	if from.IsZero() {
		return 0
	}
	return to.Sub(from).Div(from).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
