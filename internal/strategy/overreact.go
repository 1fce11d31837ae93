package strategy

import (
	"fmt"

	"tradesignals/internal/indicator"
	"tradesignals/internal/model"
)

// OverReact trades bounded oscillators on overbought/oversold levels.
//
// Buy signal: value below the lower bound (oversold)
// Sell signal: value above the upper bound (overbought)
//
// The rule is level-based: every bar that stays beyond a bound keeps
// signalling, not just the bar where the bound was first breached.
type OverReact struct {
	ind    *indicator.Indicator
	params Params
}

var _ Strategy = (*OverReact)(nil)

var overReactRules = map[Kind]func(o *OverReact) (model.SignalSeries, error){
	KindMFI: func(o *OverReact) (model.SignalSeries, error) {
		return o.TradeByMFI(o.params.OscPeriod, o.params.LowerBound, o.params.UpperBound)
	},
	KindRSI: func(o *OverReact) (model.SignalSeries, error) {
		return o.TradeByRSI(o.params.OscPeriod, o.params.LowerBound, o.params.UpperBound)
	},
	KindWILLR: func(o *OverReact) (model.SignalSeries, error) {
		return o.TradeByWillR(o.params.OscPeriod, o.params.WillRLower, o.params.WillRUpper)
	},
}

// NewOverReact creates an over-reaction strategy. Zero params take defaults.
func NewOverReact(ind *indicator.Indicator, params Params) *OverReact {
	return &OverReact{ind: ind, params: params.WithDefaults()}
}

func (o *OverReact) Name() string { return NameOverReact }

func (o *OverReact) Supports() []Kind { return supported(overReactRules) }

func (o *OverReact) TradeByIndicator(kind Kind) (Producer, error) {
	rule, ok := overReactRules[kind]
	if !ok {
		return nil, unsupported(o, kind)
	}
	return func() (model.SignalSeries, error) { return rule(o) }, nil
}

// TradeByMFI signals on money flow index levels.
func (o *OverReact) TradeByMFI(period int, lower, upper float64) (model.SignalSeries, error) {
	return o.levels(o.ind.MFI, period, lower, upper)
}

// TradeByRSI signals on RSI levels.
func (o *OverReact) TradeByRSI(period int, lower, upper float64) (model.SignalSeries, error) {
	return o.levels(o.ind.RSI, period, lower, upper)
}

// TradeByWillR signals on Williams %R levels. Bounds are in [-100,0]; the
// strategy defaults are -80 and -20 rather than the 30/70 used for MFI and
// RSI.
func (o *OverReact) TradeByWillR(period int, lower, upper float64) (model.SignalSeries, error) {
	return o.levels(o.ind.WillR, period, lower, upper)
}

func (o *OverReact) levels(osc func(int) ([]float64, error), period int, lower, upper float64) (model.SignalSeries, error) {
	if err := checkBounds(lower, upper); err != nil {
		return nil, err
	}
	line, err := osc(period)
	if err != nil {
		return nil, err
	}
	return Levels(line, lower, upper)
}

// Levels marks a buy wherever value < lower and a sell wherever
// value > upper. Undefined (NaN) values never signal.
func Levels(line []float64, lower, upper float64) (model.SignalSeries, error) {
	if err := checkBounds(lower, upper); err != nil {
		return nil, err
	}
	buy := make([]bool, len(line))
	sell := make([]bool, len(line))
	for i, v := range line {
		buy[i] = v < lower
		sell[i] = v > upper
	}
	return Combine(buy, sell)
}

func checkBounds(lower, upper float64) error {
	if lower >= upper {
		return fmt.Errorf("lower bound %.2f must be below upper bound %.2f: %w", lower, upper, ErrInvalidParameter)
	}
	return nil
}
