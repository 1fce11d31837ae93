// Package backtest replays a signal series over its candles with a
// single-position cash account.
//
// A signal at bar i fills at the open of bar i+1 (or at the close of bar i
// when TradeOnClose is set). +1 covers any short and goes long with all
// equity; -1 closes any long and, when AllowShort is set, goes short. A
// position still open after the last bar is closed at the last close.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"tradesignals/internal/model"
)

var (
	// ErrLengthMismatch is returned when signals and candles are not aligned.
	ErrLengthMismatch = errors.New("signals and candles length mismatch")
	// ErrInvalidConfig is returned for a non-positive cash balance or a
	// commission outside [0, 1).
	ErrInvalidConfig = errors.New("invalid backtest config")
)

// Config controls the simulated account.
type Config struct {
	Cash         decimal.Decimal
	Commission   decimal.Decimal // fraction of traded notional, e.g. 0.002
	AllowShort   bool
	TradeOnClose bool
}

// DefaultConfig returns 10000 cash, zero commission, long only.
func DefaultConfig() Config {
	return Config{Cash: decimal.NewFromInt(10000), Commission: decimal.Zero}
}

func (c Config) Validate() error {
	if !c.Cash.IsPositive() {
		return fmt.Errorf("cash %s must be positive: %w", c.Cash, ErrInvalidConfig)
	}
	if c.Commission.IsNegative() || c.Commission.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission %s must be in [0,1): %w", c.Commission, ErrInvalidConfig)
	}
	return nil
}

// Observer receives trade and equity updates, e.g. for metrics.
type Observer interface {
	ObserveTrade(symbol string, t Trade)
	ObserveEquity(symbol string, equity float64)
}

// Runner executes backtests with a fixed config.
type Runner struct {
	cfg Config
	log *slog.Logger
	obs Observer
}

// NewRunner creates a runner. A nil logger uses slog.Default; obs may be nil.
func NewRunner(cfg Config, logger *slog.Logger, obs Observer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, log: logger, obs: obs}
}

// Run is shorthand for NewRunner(cfg, nil, nil).Run.
func Run(ctx context.Context, cfg Config, series model.Series, signals model.SignalSeries) (*Result, error) {
	return NewRunner(cfg, nil, nil).Run(ctx, series, signals)
}

// Run simulates signals over series. Cancellation is checked between bars.
func (r *Runner) Run(ctx context.Context, series model.Series, signals model.SignalSeries) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}
	n := series.Len()
	if len(signals) != n {
		return nil, fmt.Errorf("backtest %s: %d signals for %d candles: %w", series.Key(), len(signals), n, ErrLengthMismatch)
	}

	b := newBroker(r.cfg.Cash, r.cfg.Commission)
	opens, closes := series.Opens(), series.Closes()
	equity := make([]float64, n)
	pending := model.SignalHold

	for i, c := range series.Candles {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("backtest %s at bar %d: %w", series.Key(), i, ctx.Err())
		default:
		}

		if !r.cfg.TradeOnClose && pending != model.SignalHold {
			if err := r.execute(b, pending, i, c.TS, decimal.NewFromFloat(opens[i]), series.Symbol); err != nil {
				return nil, err
			}
			pending = model.SignalHold
		}
		if sig := signals[i]; sig != model.SignalHold {
			switch {
			case r.cfg.TradeOnClose:
				if err := r.execute(b, sig, i, c.TS, decimal.NewFromFloat(closes[i]), series.Symbol); err != nil {
					return nil, err
				}
			case i == n-1:
				r.log.Debug("backtest: signal on last bar has no next open", "key", series.Key())
			default:
				pending = sig
			}
		}
		equity[i], _ = b.equity(decimal.NewFromFloat(closes[i])).Float64()
	}

	if !b.flat() {
		last := series.Candles[n-1]
		t, _ := b.close(n-1, last.TS, decimal.NewFromFloat(closes[n-1]))
		r.observeTrade(series.Symbol, t)
		equity[n-1], _ = b.cash.Float64()
	}

	res := newResult(series, r.cfg.Cash, b, equity, signals)
	if r.obs != nil {
		r.obs.ObserveEquity(series.Symbol, res.FinalEquity.InexactFloat64())
	}
	r.log.Info("backtest complete",
		"key", series.Key(),
		"bars", n,
		"trades", len(res.Trades),
		"final_equity", res.FinalEquity.StringFixed(2),
		"return_pct", res.ReturnPct,
	)
	return res, nil
}

// execute applies one signal at price.
func (r *Runner) execute(b *broker, sig model.Signal, idx int, ts time.Time, price decimal.Decimal, symbol string) error {
	switch sig {
	case model.SignalBuy:
		if b.holding(SideLong) {
			return nil
		}
		if t, ok := b.close(idx, ts, price); ok {
			r.observeTrade(symbol, t)
		}
		_, err := b.open(SideLong, idx, ts, price)
		return err
	case model.SignalSell:
		if b.holding(SideShort) {
			return nil
		}
		if t, ok := b.close(idx, ts, price); ok {
			r.observeTrade(symbol, t)
		}
		if !r.cfg.AllowShort {
			return nil
		}
		_, err := b.open(SideShort, idx, ts, price)
		return err
	}
	return nil
}

func (r *Runner) observeTrade(symbol string, t Trade) {
	r.log.Debug("backtest trade",
		"symbol", symbol,
		"side", t.Side,
		"entry", t.EntryPrice.String(),
		"exit", t.ExitPrice.String(),
		"pnl", t.PnL.StringFixed(2),
	)
	if r.obs != nil {
		r.obs.ObserveTrade(symbol, t)
	}
}
