package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"tradesignals/internal/backtest"
	"tradesignals/internal/strategy"
)

const sampleYAML = `
source: csv
csv_path: testdata/btc.csv
symbol: BTCUSDT
interval: 1h
strategy: OverReactStrategy
indicator: rsi
indicators: "SMA:20,RSI:14"
cash: 25000
commission: 0.002
allow_short: true
params:
  osc_period: 10
  lower_bound: 25
  upper_bound: 75
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(writeFile(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Symbol != "BTCUSDT" || cfg.Interval != "1h" || cfg.Strategy != strategy.NameOverReact {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Kind() != strategy.KindRSI {
		t.Errorf("kind = %v", cfg.Kind())
	}
	p := cfg.Params.WithDefaults()
	if p.OscPeriod != 10 || p.LowerBound != 25 || p.UpperBound != 75 || p.FastPeriod != 6 {
		t.Errorf("params = %+v", p)
	}

	bt := cfg.Backtest()
	if !bt.Cash.Equal(decimal.NewFromInt(25000)) || !bt.Commission.Equal(decimal.RequireFromString("0.002")) || !bt.AllowShort {
		t.Errorf("backtest config = %+v", bt)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != SourceCSV || cfg.Strategy != strategy.NameCrossOver || cfg.Cash != 10000 {
		t.Errorf("defaults = %+v", cfg)
	}
	// Symbol has no default.
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "symbol") {
		t.Errorf("expected symbol error, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SYMBOL", "ETHUSDT")
	t.Setenv("CASH", "500")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load(writeFile(t, sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Symbol != "ETHUSDT" || cfg.Cash != 500 || cfg.RedisAddr != "redis:6379" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}

	t.Setenv("COMMISSION", "lots")
	if _, err := Load(""); err == nil {
		t.Error("expected parse error for COMMISSION")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist, got %v", err)
	}
	if _, err := Load(writeFile(t, "cash: [1, 2")); err == nil {
		t.Error("expected yaml error")
	}
}

func TestValidate_JoinsAllProblems(t *testing.T) {
	cfg := &Config{
		Source:     "parquet",
		Strategy:   "MeanReversion",
		Indicator:  "VWAP",
		Indicators: "garbage",
		Cash:       -1,
		Commission: 0.1,
		Params:     strategy.Params{LowerBound: 80, UpperBound: 20},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []error{ErrInvalid, strategy.ErrUnsupportedIndicator, strategy.ErrInvalidParameter, backtest.ErrInvalidConfig} {
		if !errors.Is(err, want) {
			t.Errorf("joined error should wrap %v: %v", want, err)
		}
	}
	for _, want := range []string{"source", "symbol", "interval", "strategy", "indicators", "lower_bound", "cash"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestValidate_SQLiteSource(t *testing.T) {
	cfg := Default()
	cfg.Symbol = "NIFTY"
	cfg.Source = SourceSQLite
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "sqlite_path") {
		t.Errorf("expected sqlite_path error, got %v", err)
	}
	cfg.SQLitePath = "data/candles.db"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
