package strategy

import (
	"errors"
	"fmt"
	"sort"
)

// Params carries the tunable periods and thresholds of both strategy
// variants. Zero values are replaced by DefaultParams in WithDefaults.
type Params struct {
	// Moving-average crossovers (SMA, EMA, WMA).
	FastPeriod int `yaml:"fast_period"`
	SlowPeriod int `yaml:"slow_period"`

	// Stochastic crossover: %D (fast role) against %K (slow role).
	KPeriod int `yaml:"k_period"`
	DPeriod int `yaml:"d_period"`

	MACDFast   int `yaml:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow"`
	MACDSignal int `yaml:"macd_signal"`

	// Momentum and rate of change against the zero centerline.
	MTMPeriod int `yaml:"mtm_period"`
	ROCPeriod int `yaml:"roc_period"`

	// Momentum / rate of change against their own moving average.
	MTMMABase   int `yaml:"mtm_ma_base"`
	MTMMAPeriod int `yaml:"mtm_ma_period"`
	ROCMABase   int `yaml:"roc_ma_base"`
	ROCMAPeriod int `yaml:"roc_ma_period"`

	// RSI against its centerline.
	RSIPeriod     int     `yaml:"rsi_period"`
	RSICenterline float64 `yaml:"rsi_centerline"`

	// Over-reaction thresholds for MFI and RSI.
	OscPeriod  int     `yaml:"osc_period"`
	LowerBound float64 `yaml:"lower_bound"`
	UpperBound float64 `yaml:"upper_bound"`

	// Williams %R lives in [-100,0] and needs its own thresholds.
	WillRLower float64 `yaml:"willr_lower"`
	WillRUpper float64 `yaml:"willr_upper"`
}

// DefaultParams returns the stock parameter set.
func DefaultParams() Params {
	return Params{
		FastPeriod:    6,
		SlowPeriod:    12,
		KPeriod:       5,
		DPeriod:       3,
		MACDFast:      12,
		MACDSlow:      26,
		MACDSignal:    9,
		MTMPeriod:     10,
		ROCPeriod:     10,
		MTMMABase:     22,
		MTMMAPeriod:   10,
		ROCMABase:     22,
		ROCMAPeriod:   10,
		RSIPeriod:     14,
		RSICenterline: 50,
		OscPeriod:     14,
		LowerBound:    30,
		UpperBound:    70,
		WillRLower:    -80,
		WillRUpper:    -20,
	}
}

// WithDefaults fills every zero field from DefaultParams, thresholds
// included, so a config that sets only one bound keeps the stock value
// for the other.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	fill := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&p.FastPeriod, d.FastPeriod)
	fill(&p.SlowPeriod, d.SlowPeriod)
	fill(&p.KPeriod, d.KPeriod)
	fill(&p.DPeriod, d.DPeriod)
	fill(&p.MACDFast, d.MACDFast)
	fill(&p.MACDSlow, d.MACDSlow)
	fill(&p.MACDSignal, d.MACDSignal)
	fill(&p.MTMPeriod, d.MTMPeriod)
	fill(&p.ROCPeriod, d.ROCPeriod)
	fill(&p.MTMMABase, d.MTMMABase)
	fill(&p.MTMMAPeriod, d.MTMMAPeriod)
	fill(&p.ROCMABase, d.ROCMABase)
	fill(&p.ROCMAPeriod, d.ROCMAPeriod)
	fill(&p.RSIPeriod, d.RSIPeriod)
	fill(&p.OscPeriod, d.OscPeriod)
	fillf := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fillf(&p.RSICenterline, d.RSICenterline)
	fillf(&p.LowerBound, d.LowerBound)
	fillf(&p.UpperBound, d.UpperBound)
	fillf(&p.WillRLower, d.WillRLower)
	fillf(&p.WillRUpper, d.WillRUpper)
	return p
}

// Validate rejects non-positive periods and reversed thresholds.
func (p Params) Validate() error {
	var errs error
	periods := map[string]int{
		"fast_period": p.FastPeriod, "slow_period": p.SlowPeriod,
		"k_period": p.KPeriod, "d_period": p.DPeriod,
		"macd_fast": p.MACDFast, "macd_slow": p.MACDSlow, "macd_signal": p.MACDSignal,
		"mtm_period": p.MTMPeriod, "roc_period": p.ROCPeriod,
		"mtm_ma_base": p.MTMMABase, "mtm_ma_period": p.MTMMAPeriod,
		"roc_ma_base": p.ROCMABase, "roc_ma_period": p.ROCMAPeriod,
		"rsi_period": p.RSIPeriod, "osc_period": p.OscPeriod,
	}
	for _, name := range sortedKeys(periods) {
		if periods[name] <= 0 {
			errs = errors.Join(errs, fmt.Errorf("%s must be positive, got %d: %w", name, periods[name], ErrInvalidParameter))
		}
	}
	if p.LowerBound >= p.UpperBound {
		errs = errors.Join(errs, fmt.Errorf("lower_bound %.2f must be below upper_bound %.2f: %w", p.LowerBound, p.UpperBound, ErrInvalidParameter))
	}
	if p.WillRLower >= p.WillRUpper {
		errs = errors.Join(errs, fmt.Errorf("willr_lower %.2f must be below willr_upper %.2f: %w", p.WillRLower, p.WillRUpper, ErrInvalidParameter))
	}
	return errs
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
