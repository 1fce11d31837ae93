// cmd/backtest loads a candle series, derives a signal series with one
// strategy/indicator pair and replays it through the backtest account.
//
// Usage:
//
//	go run ./cmd/backtest --config=config.yaml
//	go run ./cmd/backtest --config=config.yaml --strategy=OverReactStrategy --indicator=RSI
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"tradesignals/config"
	"tradesignals/internal/backtest"
	"tradesignals/internal/indicator"
	"tradesignals/internal/logger"
	"tradesignals/internal/marketdata/csvsource"
	"tradesignals/internal/marketdata/dbsource"
	"tradesignals/internal/metrics"
	"tradesignals/internal/model"
	"tradesignals/internal/notification"
	"tradesignals/internal/store/redis"
	sqlitestore "tradesignals/internal/store/sqlite"
	"tradesignals/internal/strategy"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to YAML config (empty = defaults + env)")
	strategyName := flag.String("strategy", "", "Override strategy name")
	indicatorName := flag.String("indicator", "", "Override indicator kind")
	serve := flag.Bool("serve", false, "Keep the metrics server running after the run until SIGINT/SIGTERM")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[backtest] config: %v", err)
	}
	if *strategyName != "" {
		cfg.Strategy = *strategyName
	}
	if *indicatorName != "" {
		cfg.Indicator = *indicatorName
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[backtest] config: %v", err)
	}

	lg := logger.Init("backtest", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	var srv *metrics.Server
	if cfg.MetricsAddr != "" {
		srv = metrics.NewServer(cfg.MetricsAddr, m, health)
		srv.Start()
	}

	start := time.Now()
	ctx = logger.WithRunID(ctx, logger.NewRunID(cfg.Symbol, start))
	res, err := run(ctx, cfg, lg, m, health)
	health.SetRun(time.Now(), err)
	m.RunDur.Observe(time.Since(start).Seconds())
	if err != nil {
		m.RunsTotal.WithLabelValues("error").Inc()
		lg.Error("run failed", append(logger.LogWithRun(ctx), "error", err)...)
	} else {
		m.RunsTotal.WithLabelValues("ok").Inc()
		printSummary(cfg, res)
	}
	if nerr := notify(ctx, cfg, lg, res, err); nerr != nil {
		lg.Warn("notification failed", "error", nerr)
	}

	if srv != nil {
		if *serve {
			stopChecks := startHealthChecks(ctx, cfg, health, 15*time.Second)
			<-ctx.Done()
			stopChecks()
		}
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		srv.Stop(shutdownCtx)
		stop()
	}
	if err != nil {
		os.Exit(1)
	}
}

// run executes one load → indicator → strategy → backtest → publish pass.
func run(ctx context.Context, cfg *config.Config, lg *slog.Logger, m *metrics.Metrics, health *metrics.HealthStatus) (*backtest.Result, error) {
	lg = logger.FromContext(ctx, lg)

	var writer *sqlitestore.Writer
	if cfg.SQLitePath != "" {
		w, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			return nil, err
		}
		defer w.Close()
		writer = w
		health.CheckSQLite(ctx, w.DB())
	}

	series, err := loadSeries(ctx, cfg)
	if err != nil {
		return nil, err
	}
	m.CandlesLoaded.WithLabelValues(cfg.Source).Add(float64(series.Len()))
	if writer != nil && cfg.Source == config.SourceCSV {
		if _, err := writer.UpsertCandles(ctx, series); err != nil {
			return nil, err
		}
	}

	ind, err := indicator.New(series)
	if err != nil {
		return nil, err
	}
	if cfg.Indicators != "" {
		if err := reportIndicators(ind, cfg.Indicators, lg, m); err != nil {
			return nil, err
		}
	}

	strat, err := strategy.New(cfg.Strategy, ind, cfg.Params.WithDefaults())
	if err != nil {
		return nil, err
	}
	produce, err := strat.TradeByIndicator(cfg.Kind())
	if err != nil {
		return nil, err
	}
	signals, err := produce()
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", cfg.Strategy, cfg.Kind(), err)
	}
	buys, sells := signals.Counts()
	m.ObserveSignals(strat.Name(), cfg.Kind().String(), buys, sells)
	lg.Info("signals computed", "strategy", strat.Name(), "indicator", cfg.Kind().String(), "buys", buys, "sells", sells)

	res, err := backtest.NewRunner(cfg.Backtest(), lg, m).Run(ctx, series, signals)
	if err != nil {
		return nil, err
	}
	summary, err := res.Summary().JSON()
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}

	if cfg.RedisAddr != "" {
		if err := publish(ctx, cfg, series, signals, summary, health); err != nil {
			// best effort
			lg.Warn("redis publish failed", "error", err)
		}
	}
	if writer != nil {
		err := writer.SaveRun(ctx, sqlitestore.RunRecord{
			RunID:     logger.RunID(ctx),
			Symbol:    series.Symbol,
			Interval:  series.Interval,
			Strategy:  strat.Name(),
			Indicator: cfg.Kind().String(),
			Summary:   summary,
		})
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func loadSeries(ctx context.Context, cfg *config.Config) (model.Series, error) {
	var src model.SeriesSource
	switch cfg.Source {
	case config.SourceSQLite:
		reader, err := sqlitestore.NewReader(cfg.SQLitePath)
		if err != nil {
			return model.Series{}, err
		}
		defer reader.Close()
		src = dbsource.New(reader, cfg.Symbol, cfg.Interval, time.Time{})
	default:
		src = csvsource.New(cfg.CSVPath, cfg.Symbol, cfg.Interval)
	}
	return src.Load(ctx)
}

// reportIndicators computes the extra indicator set and logs the latest
// value of each output.
func reportIndicators(ind *indicator.Indicator, specs string, lg *slog.Logger, m *metrics.Metrics) error {
	results, err := indicator.NewEngine(indicator.ParseConfigs(specs), m).Compute(ind)
	if err != nil {
		return err
	}
	for _, r := range results {
		lg.Info("indicator", "name", r.Name, "ready", r.Ready, "last", r.Last())
	}
	return nil
}

func publish(ctx context.Context, cfg *config.Config, series model.Series, signals model.SignalSeries, summary []byte, health *metrics.HealthStatus) error {
	pub, err := redis.New(redis.PublisherConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err != nil {
		return err
	}
	defer pub.Close()
	health.CheckRedis(ctx, pub.Client())

	events := model.Events(series, signals, cfg.Strategy, cfg.Kind().String())
	if err := pub.PublishSignals(ctx, events); err != nil {
		return err
	}
	return pub.PublishSummary(ctx, series.Symbol, summary)
}

// startHealthChecks keeps the /healthz view of SQLite and Redis current
// while the metrics server stays up. The returned func releases the
// connections.
func startHealthChecks(ctx context.Context, cfg *config.Config, health *metrics.HealthStatus, interval time.Duration) func() {
	var closers []func() error
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb = goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		closers = append(closers, rdb.Close)
	}
	var sqlDB *sql.DB
	if cfg.SQLitePath != "" {
		if r, err := sqlitestore.NewReader(cfg.SQLitePath); err == nil {
			sqlDB = r.DB()
			closers = append(closers, r.Close)
		} else {
			slog.Warn("health check: sqlite unavailable", "error", err)
		}
	}

	checkCtx, cancel := context.WithCancel(ctx)
	health.StartLivenessChecker(checkCtx, rdb, sqlDB, interval)
	return func() {
		cancel()
		for _, c := range closers {
			c()
		}
	}
}

// notify announces the run outcome on the log and, when configured, the
// webhook.
func notify(ctx context.Context, cfg *config.Config, lg *slog.Logger, res *backtest.Result, runErr error) error {
	targets := notification.Multi{notification.NewLogNotifier(lg)}
	if cfg.WebhookURL != "" {
		targets = append(targets, notification.NewWebhookNotifier(cfg.WebhookURL))
	}

	alert := notification.Alert{
		Level: notification.AlertInfo,
		Title: "backtest complete",
		RunID: logger.RunID(ctx),
	}
	if runErr != nil {
		alert.Level = notification.AlertCritical
		alert.Title = "backtest failed"
		alert.Message = runErr.Error()
	} else {
		alert.Message = fmt.Sprintf("%s:%s %s/%s: %d trades, return %.2f%%",
			res.Symbol, res.Interval, cfg.Strategy, cfg.Kind(), len(res.Trades), res.ReturnPct)
		if data, err := res.Summary().JSON(); err == nil {
			alert.Data = data
		}
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return targets.Send(sendCtx, alert)
}

func printSummary(cfg *config.Config, res *backtest.Result) {
	line := strings.Repeat("═", 44)
	fmt.Println()
	fmt.Println("╔" + line + "╗")
	fmt.Println("║            BACKTEST COMPLETE               ║")
	fmt.Println("╠" + line + "╣")
	fmt.Printf("║  Series:         %-25s ║\n", res.Symbol+":"+res.Interval)
	fmt.Printf("║  Strategy:       %-25s ║\n", cfg.Strategy)
	fmt.Printf("║  Indicator:      %-25s ║\n", cfg.Kind().String())
	fmt.Printf("║  Bars:           %-25d ║\n", res.Bars)
	fmt.Printf("║  Signals:        %-25d ║\n", res.Signals)
	fmt.Printf("║  Trades:         %-25d ║\n", len(res.Trades))
	fmt.Printf("║  Start equity:   %-25s ║\n", res.StartEquity.StringFixed(2))
	fmt.Printf("║  Final equity:   %-25s ║\n", res.FinalEquity.StringFixed(2))
	fmt.Printf("║  Return:         %-24.2f%% ║\n", res.ReturnPct)
	fmt.Printf("║  Buy & hold:     %-24.2f%% ║\n", res.BuyHoldPct)
	fmt.Printf("║  Max drawdown:   %-24.2f%% ║\n", res.MaxDrawdownPct)
	fmt.Printf("║  Win rate:       %-24.2f%% ║\n", res.WinRatePct)
	fmt.Println("╚" + line + "╝")
}
