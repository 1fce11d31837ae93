package strategy

import (
	"fmt"

	"tradesignals/internal/indicator"
	"tradesignals/internal/model"
)

// CrossOver trades on the moment one line overtakes another.
//
// Buy signal: fast crosses above slow
// Sell signal: fast crosses below slow
type CrossOver struct {
	ind    *indicator.Indicator
	params Params
}

var _ Strategy = (*CrossOver)(nil)

// crossOverRules maps each supported kind to its handler.
var crossOverRules = map[Kind]func(c *CrossOver) (model.SignalSeries, error){
	KindSMA: func(c *CrossOver) (model.SignalSeries, error) {
		return c.TradeBySMA(c.params.FastPeriod, c.params.SlowPeriod)
	},
	KindEMA: func(c *CrossOver) (model.SignalSeries, error) {
		return c.TradeByEMA(c.params.FastPeriod, c.params.SlowPeriod)
	},
	KindWMA: func(c *CrossOver) (model.SignalSeries, error) {
		return c.TradeByWMA(c.params.FastPeriod, c.params.SlowPeriod)
	},
	KindKD: func(c *CrossOver) (model.SignalSeries, error) {
		return c.TradeByKD(c.params.KPeriod, c.params.DPeriod)
	},
	KindMACD: func(c *CrossOver) (model.SignalSeries, error) {
		return c.TradeByMACD(c.params.MACDFast, c.params.MACDSlow, c.params.MACDSignal)
	},
	KindMTM: func(c *CrossOver) (model.SignalSeries, error) {
		return c.TradeByMTM(c.params.MTMPeriod)
	},
	KindMTMMA: func(c *CrossOver) (model.SignalSeries, error) {
		return c.TradeByMTMMA(c.params.MTMMABase, c.params.MTMMAPeriod)
	},
	KindROC: func(c *CrossOver) (model.SignalSeries, error) {
		return c.TradeByROC(c.params.ROCPeriod)
	},
	KindROCMA: func(c *CrossOver) (model.SignalSeries, error) {
		return c.TradeByROCMA(c.params.ROCMABase, c.params.ROCMAPeriod)
	},
	KindRSI: func(c *CrossOver) (model.SignalSeries, error) {
		return c.TradeByRSI(c.params.RSIPeriod)
	},
}

// NewCrossOver creates a crossover strategy. Zero params take defaults.
func NewCrossOver(ind *indicator.Indicator, params Params) *CrossOver {
	return &CrossOver{ind: ind, params: params.WithDefaults()}
}

func (c *CrossOver) Name() string { return NameCrossOver }

func (c *CrossOver) Supports() []Kind { return supported(crossOverRules) }

func (c *CrossOver) TradeByIndicator(kind Kind) (Producer, error) {
	rule, ok := crossOverRules[kind]
	if !ok {
		return nil, unsupported(c, kind)
	}
	return func() (model.SignalSeries, error) { return rule(c) }, nil
}

// TradeBySMA crosses a fast SMA against a slow SMA.
func (c *CrossOver) TradeBySMA(fast, slow int) (model.SignalSeries, error) {
	return c.pair(c.ind.SMA, fast, slow)
}

// TradeByEMA crosses a fast EMA against a slow EMA.
func (c *CrossOver) TradeByEMA(fast, slow int) (model.SignalSeries, error) {
	return c.pair(c.ind.EMA, fast, slow)
}

// TradeByWMA crosses a fast WMA against a slow WMA.
func (c *CrossOver) TradeByWMA(fast, slow int) (model.SignalSeries, error) {
	return c.pair(c.ind.WMA, fast, slow)
}

func (c *CrossOver) pair(ma func(int) ([]float64, error), fast, slow int) (model.SignalSeries, error) {
	f, err := ma(fast)
	if err != nil {
		return nil, err
	}
	s, err := ma(slow)
	if err != nil {
		return nil, err
	}
	return Crosses(f, s)
}

// TradeByKD buys when %D crosses above %K and sells when it crosses below.
func (c *CrossOver) TradeByKD(kPeriod, dPeriod int) (model.SignalSeries, error) {
	k, d, err := c.ind.KD(kPeriod, dPeriod)
	if err != nil {
		return nil, err
	}
	return Crosses(d, k)
}

// TradeByMACD crosses the MACD line against its signal line.
func (c *CrossOver) TradeByMACD(fast, slow, signal int) (model.SignalSeries, error) {
	line, sig, _, err := c.ind.MACD(fast, slow, signal)
	if err != nil {
		return nil, err
	}
	return Crosses(line, sig)
}

// TradeByMTM crosses momentum against zero.
func (c *CrossOver) TradeByMTM(period int) (model.SignalSeries, error) {
	mtm, err := c.ind.MTM(period)
	if err != nil {
		return nil, err
	}
	return Crosses(mtm, centerline(len(mtm), 0))
}

// TradeByMTMMA crosses momentum against its own EMA.
func (c *CrossOver) TradeByMTMMA(mtmPeriod, maPeriod int) (model.SignalSeries, error) {
	mtm, err := c.ind.MTM(mtmPeriod)
	if err != nil {
		return nil, err
	}
	ma, err := c.ind.EMAWithData(mtm, maPeriod)
	if err != nil {
		return nil, err
	}
	return Crosses(mtm, ma)
}

// TradeByROC crosses rate of change against zero.
func (c *CrossOver) TradeByROC(period int) (model.SignalSeries, error) {
	roc, err := c.ind.ROC(period)
	if err != nil {
		return nil, err
	}
	return Crosses(roc, centerline(len(roc), 0))
}

// TradeByROCMA crosses rate of change against its own SMA.
func (c *CrossOver) TradeByROCMA(rocPeriod, maPeriod int) (model.SignalSeries, error) {
	roc, err := c.ind.ROC(rocPeriod)
	if err != nil {
		return nil, err
	}
	ma, err := c.ind.SMAWithData(roc, maPeriod)
	if err != nil {
		return nil, err
	}
	return Crosses(roc, ma)
}

// TradeByRSI crosses RSI against the centerline (50 by default).
func (c *CrossOver) TradeByRSI(period int) (model.SignalSeries, error) {
	rsi, err := c.ind.RSI(period)
	if err != nil {
		return nil, err
	}
	return Crosses(rsi, centerline(len(rsi), c.params.RSICenterline))
}

// Crosses detects sign changes of fast-slow between consecutive bars.
//
//	buy  at i: fast[i] > slow[i] && fast[i-1] < slow[i-1]
//	sell at i: fast[i] < slow[i] && fast[i-1] > slow[i-1]
//
// Index 0 has no previous bar and is always 0. Any comparison involving an
// undefined (NaN) value is false, so warm-up bars never signal.
func Crosses(fast, slow []float64) (model.SignalSeries, error) {
	if len(fast) != len(slow) {
		return nil, fmt.Errorf("crossover fast=%d slow=%d: %w", len(fast), len(slow), ErrLengthMismatch)
	}
	buy := make([]bool, len(fast))
	sell := make([]bool, len(fast))
	for i := 1; i < len(fast); i++ {
		buy[i] = fast[i] > slow[i] && fast[i-1] < slow[i-1]
		sell[i] = fast[i] < slow[i] && fast[i-1] > slow[i-1]
	}
	return Combine(buy, sell)
}

func centerline(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
