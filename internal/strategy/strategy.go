// Package strategy turns indicator series into discrete trading signals.
//
// A Strategy maps an indicator Kind to a Producer through a static lookup
// table. Producers are stateless batch transforms over the whole series:
// +1 marks a buy at that bar, -1 a sell, 0 no action.
package strategy

import (
	"errors"
	"fmt"
	"strings"

	"tradesignals/internal/indicator"
	"tradesignals/internal/model"
)

var (
	// ErrUnsupportedIndicator is returned when a strategy has no rule for a kind.
	ErrUnsupportedIndicator = errors.New("unsupported indicator for strategy")
	// ErrUnsupportedStrategy is returned for an unknown strategy name.
	ErrUnsupportedStrategy = errors.New("unsupported strategy")
	// ErrInvalidParameter is returned for nonsensical periods or bounds.
	ErrInvalidParameter = indicator.ErrInvalidParameter
	// ErrLengthMismatch is returned when paired series are not aligned.
	ErrLengthMismatch = errors.New("series length mismatch")
)

// Kind identifies which indicator logic a strategy trades on.
type Kind int

const (
	KindSMA Kind = iota
	KindEMA
	KindWMA
	KindKD
	KindMACD
	KindMFI
	KindMTM
	KindMTMMA
	KindROC
	KindROCMA
	KindRSI
	KindWILLR
)

var kindNames = [...]string{
	KindSMA:   "SMA",
	KindEMA:   "EMA",
	KindWMA:   "WMA",
	KindKD:    "KD",
	KindMACD:  "MACD",
	KindMFI:   "MFI",
	KindMTM:   "MTM",
	KindMTMMA: "MTM_MA",
	KindROC:   "ROC",
	KindROCMA: "ROC_MA",
	KindRSI:   "RSI",
	KindWILLR: "WILLR",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns every known indicator kind.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind resolves a kind from its name ("SMA", "MTM_MA", ...),
// case-insensitively.
func ParseKind(s string) (Kind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("indicator %q: %w", s, ErrUnsupportedIndicator)
}

// Producer computes a signal series aligned with the candle series.
type Producer func() (model.SignalSeries, error)

// Strategy resolves the decision rule for one indicator kind.
type Strategy interface {
	// Name returns the strategy name, e.g. "CrossOverStrategy".
	Name() string

	// TradeByIndicator returns the producer for kind, or
	// ErrUnsupportedIndicator when the strategy has no rule for it.
	TradeByIndicator(kind Kind) (Producer, error)

	// Supports lists the kinds this strategy can trade.
	Supports() []Kind
}

// Strategy names accepted by New.
const (
	NameCrossOver = "CrossOverStrategy"
	NameOverReact = "OverReactStrategy"
)

// Names returns the known strategy names.
func Names() []string {
	return []string{NameCrossOver, NameOverReact}
}

// New builds a strategy variant by name. Zero params take defaults.
func New(name string, ind *indicator.Indicator, params Params) (Strategy, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	switch name {
	case NameCrossOver:
		return NewCrossOver(ind, params), nil
	case NameOverReact:
		return NewOverReact(ind, params), nil
	default:
		return nil, fmt.Errorf("strategy %q: %w", name, ErrUnsupportedStrategy)
	}
}

// Combine turns buy and sell flags into a signal series: buy - sell.
func Combine(buy, sell []bool) (model.SignalSeries, error) {
	if len(buy) != len(sell) {
		return nil, fmt.Errorf("combine %d buy vs %d sell flags: %w", len(buy), len(sell), ErrLengthMismatch)
	}
	out := make(model.SignalSeries, len(buy))
	for i := range buy {
		out[i] = boolSignal(buy[i]) - boolSignal(sell[i])
	}
	return out, nil
}

func boolSignal(b bool) model.Signal {
	if b {
		return 1
	}
	return 0
}

func unsupported(s Strategy, kind Kind) error {
	return fmt.Errorf("%s cannot trade %s: %w", s.Name(), kind, ErrUnsupportedIndicator)
}

func supported[T any](table map[Kind]T) []Kind {
	var kinds []Kind
	for _, k := range Kinds() {
		if _, ok := table[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
