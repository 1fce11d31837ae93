// Package config loads the run configuration from a YAML file, an optional
// .env file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"tradesignals/internal/backtest"
	"tradesignals/internal/indicator"
	"tradesignals/internal/strategy"
)

// Candle sources.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// ErrInvalid wraps every validation problem.
var ErrInvalid = errors.New("invalid config")

// Config holds the run configuration.
type Config struct {
	// Data
	Source     string `yaml:"source"`
	CSVPath    string `yaml:"csv_path"`
	SQLitePath string `yaml:"sqlite_path"`
	Symbol     string `yaml:"symbol"`
	Interval   string `yaml:"interval"`

	// Signal
	Strategy   string          `yaml:"strategy"`
	Indicator  string          `yaml:"indicator"`
	Indicators string          `yaml:"indicators"` // extra report, e.g. "SMA:30,RSI:14"
	Params     strategy.Params `yaml:"params"`

	// Backtest
	Cash         float64 `yaml:"cash"`
	Commission   float64 `yaml:"commission"`
	AllowShort   bool    `yaml:"allow_short"`
	TradeOnClose bool    `yaml:"trade_on_close"`

	// Infrastructure
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	MetricsAddr   string `yaml:"metrics_addr"`
	WebhookURL    string `yaml:"webhook_url"`
	LogLevel      string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source:    SourceCSV,
		CSVPath:   "data/candles.csv",
		Interval:  "1d",
		Strategy:  strategy.NameCrossOver,
		Indicator: strategy.KindSMA.String(),
		Cash:      10000,
		LogLevel:  "info",
	}
}

// Load reads path (if non-empty) over the defaults, then applies .env and
// environment overrides. The result is not validated.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Source = getEnv("SOURCE", c.Source)
	c.CSVPath = getEnv("CSV_PATH", c.CSVPath)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.Symbol = getEnv("SYMBOL", c.Symbol)
	c.Interval = getEnv("INTERVAL", c.Interval)
	c.Strategy = getEnv("STRATEGY", c.Strategy)
	c.Indicator = getEnv("INDICATOR", c.Indicator)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)
	c.WebhookURL = getEnv("WEBHOOK_URL", c.WebhookURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	var errs error
	if v := os.Getenv("CASH"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("env CASH=%q: %w", v, err))
		}
		c.Cash = f
	}
	if v := os.Getenv("COMMISSION"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("env COMMISSION=%q: %w", v, err))
		}
		c.Commission = f
	}
	return errs
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(msg string) {
		errs = append(errs, fmt.Errorf("%s: %w", msg, ErrInvalid))
	}

	switch c.Source {
	case SourceCSV:
		if c.CSVPath == "" {
			add(fmt.Sprintf("csv_path is required for source %q", c.Source))
		}
	case SourceSQLite:
		if c.SQLitePath == "" {
			add(fmt.Sprintf("sqlite_path is required for source %q", c.Source))
		}
	default:
		add(fmt.Sprintf("source %q must be %q or %q", c.Source, SourceCSV, SourceSQLite))
	}
	if strings.TrimSpace(c.Symbol) == "" {
		add("symbol is required")
	}
	if c.Interval == "" {
		add("interval is required")
	}

	if !contains(strategy.Names(), c.Strategy) {
		add(fmt.Sprintf("strategy %q must be one of %s", c.Strategy, strings.Join(strategy.Names(), ", ")))
	}
	if _, err := strategy.ParseKind(c.Indicator); err != nil {
		errs = append(errs, fmt.Errorf("indicator: %w", err))
	}
	if c.Indicators != "" {
		if len(indicator.ParseConfigs(c.Indicators)) == 0 {
			add(fmt.Sprintf("indicators %q has no TYPE:PERIOD entry", c.Indicators))
		}
	}
	if err := c.Params.WithDefaults().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("params: %w", err))
	}

	if err := c.Backtest().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Kind returns the parsed indicator kind. Call after Validate.
func (c *Config) Kind() strategy.Kind {
	k, _ := strategy.ParseKind(c.Indicator)
	return k
}

// Backtest returns the backtest account settings.
func (c *Config) Backtest() backtest.Config {
	return backtest.Config{
		Cash:         decimal.NewFromFloat(c.Cash),
		Commission:   decimal.NewFromFloat(c.Commission),
		AllowShort:   c.AllowShort,
		TradeOnClose: c.TradeOnClose,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
