package indicator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config specifies a single indicator to compute.
type Config struct {
	Type   string `yaml:"type"` // "SMA", "EMA", "RSI", "BBANDS", ...
	Period int    `yaml:"period"`
}

// Result holds one computed output series.
type Result struct {
	Name   string    `json:"name"` // e.g. "SMA_20", "BBANDS_UPPER_5"
	Values []float64 `json:"values"`
	Ready  bool      `json:"ready"` // true when the last value is defined
}

// Last returns the most recent value, NaN if none is defined.
func (r *Result) Last() float64 {
	if len(r.Values) == 0 {
		return math.NaN()
	}
	return r.Values[len(r.Values)-1]
}

// Observer receives per-indicator compute durations.
type Observer interface {
	ObserveIndicator(name string, d time.Duration)
}

// Engine computes a fixed set of indicators over one series.
// Each Config is independent and reads the series only, so they run
// concurrently.
type Engine struct {
	configs  []Config
	observer Observer
}

// NewEngine creates an engine for the given indicator configs.
// observer may be nil.
func NewEngine(configs []Config, observer Observer) *Engine {
	return &Engine{configs: configs, observer: observer}
}

// Compute runs every configured indicator and returns the results in config
// order. The first failing config aborts the whole call; no partial results
// are returned.
func (e *Engine) Compute(ind *Indicator) ([]Result, error) {
	perConfig := make([][]Result, len(e.configs))
	errs := make([]error, len(e.configs))

	var wg sync.WaitGroup
	for i, cfg := range e.configs {
		wg.Add(1)
		go func(i int, cfg Config) {
			defer wg.Done()
			start := time.Now()
			perConfig[i], errs[i] = compute(ind, cfg)
			if e.observer != nil && errs[i] == nil {
				e.observer.ObserveIndicator(strings.ToUpper(cfg.Type), time.Since(start))
			}
		}(i, cfg)
	}
	wg.Wait()

	var results []Result
	for i := range e.configs {
		if errs[i] != nil {
			return nil, errs[i]
		}
		results = append(results, perConfig[i]...)
	}
	return results, nil
}

func compute(ind *Indicator, cfg Config) ([]Result, error) {
	typ := strings.ToUpper(strings.TrimSpace(cfg.Type))
	name := typ + "_" + strconv.Itoa(cfg.Period)

	var single func(int) ([]float64, error)
	switch typ {
	case "SMA":
		single = ind.SMA
	case "EMA":
		single = ind.EMA
	case "WMA":
		single = ind.WMA
	case "RSI":
		single = ind.RSI
	case "MTM":
		single = ind.MTM
	case "ROC":
		single = ind.ROC
	case "MFI":
		single = ind.MFI
	case "WILLR":
		single = ind.WillR
	case "DMI":
		single = ind.DMI
	case "BBANDS":
		upper, middle, lower, err := ind.BBands(cfg.Period)
		if err != nil {
			return nil, err
		}
		return []Result{
			newResult("BBANDS_UPPER_"+strconv.Itoa(cfg.Period), upper),
			newResult("BBANDS_MIDDLE_"+strconv.Itoa(cfg.Period), middle),
			newResult("BBANDS_LOWER_"+strconv.Itoa(cfg.Period), lower),
		}, nil
	case "KD":
		// Period is %K; %D uses the default smoothing.
		k, d, err := ind.KD(cfg.Period, DefaultDPeriod)
		if err != nil {
			return nil, err
		}
		return []Result{newResult("KD_K_"+strconv.Itoa(cfg.Period), k), newResult("KD_D_"+strconv.Itoa(cfg.Period), d)}, nil
	case "MACD":
		line, signal, hist, err := ind.MACD(DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
		if err != nil {
			return nil, err
		}
		return []Result{newResult("MACD", line), newResult("MACD_SIGNAL", signal), newResult("MACD_HIST", hist)}, nil
	default:
		return nil, fmt.Errorf("indicator type %q: %w", cfg.Type, ErrInvalidParameter)
	}

	values, err := single(cfg.Period)
	if err != nil {
		return nil, err
	}
	return []Result{newResult(name, values)}, nil
}

func newResult(name string, values []float64) Result {
	r := Result{Name: name, Values: values}
	r.Ready = !math.IsNaN(r.Last())
	return r
}

// ParseConfigs parses "TYPE:PERIOD,..." specs, skipping malformed entries.
func ParseConfigs(s string) []Config {
	var configs []Config
	for _, part := range strings.Split(s, ",") {
		tokens := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(tokens) != 2 {
			continue
		}
		period, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
		if err != nil || period <= 0 {
			continue
		}
		configs = append(configs, Config{
			Type:   strings.ToUpper(strings.TrimSpace(tokens[0])),
			Period: period,
		})
	}
	return configs
}
