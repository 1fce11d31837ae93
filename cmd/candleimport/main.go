// cmd/candleimport loads a CSV candle file into the SQLite candle store.
//
// Usage:
//
//	go run ./cmd/candleimport --csv=data/btc_1h.csv --symbol=BTCUSDT --interval=1h --db=data/candles.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradesignals/internal/logger"
	"tradesignals/internal/marketdata/csvsource"
	sqlitestore "tradesignals/internal/store/sqlite"
)

func main() {
	csvPath := flag.String("csv", "", "CSV file with DateTime,Open,High,Low,Close,Volume")
	symbol := flag.String("symbol", "", "Symbol to store the candles under")
	interval := flag.String("interval", "1d", "Candle interval label")
	dbPath := flag.String("db", "data/candles.db", "Path to SQLite database")
	tz := flag.String("tz", "UTC", "Time zone of timestamps without an offset")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if *csvPath == "" || *symbol == "" {
		log.Fatal("[candleimport] --csv and --symbol are required")
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		log.Fatalf("[candleimport] time zone %q: %v", *tz, err)
	}
	lg := logger.Init("candleimport", logger.ParseLevel(*level))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	n, err := importCSV(ctx, *csvPath, *symbol, *interval, *dbPath, loc, lg)
	if err != nil {
		lg.Error("import failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("imported %d candles for %s:%s into %s\n", n, *symbol, *interval, *dbPath)
}

func importCSV(ctx context.Context, csvPath, symbol, interval, dbPath string, loc *time.Location, lg *slog.Logger) (int, error) {
	series, err := csvsource.New(csvPath, symbol, interval,
		csvsource.WithLocation(loc),
		csvsource.WithLogger(lg),
	).Load(ctx)
	if err != nil {
		return 0, err
	}

	w, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: dbPath})
	if err != nil {
		return 0, err
	}
	defer w.Close()

	last, err := w.GetLastTimestamp(ctx, symbol, interval)
	if err != nil {
		return 0, err
	}
	if !last.IsZero() {
		lg.Info("existing history", "symbol", symbol, "interval", interval, "last", last)
	}
	return w.UpsertCandles(ctx, series)
}
