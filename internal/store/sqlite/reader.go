package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tradesignals/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to stored candles and runs.
type Reader struct {
	db *sql.DB
}

var _ model.CandleReader = (*Reader)(nil)

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	slog.Default().Info("sqlite reader opened", "path", dbPath)
	return &Reader{db: db}, nil
}

// DB returns the underlying connection pool.
func (r *Reader) DB() *sql.DB { return r.db }

// ReadSeries reads candles for symbol and interval with ts strictly after
// from (zero time = all), ordered by timestamp ascending.
func (r *Reader) ReadSeries(ctx context.Context, symbol, interval string, from time.Time) (model.Series, error) {
	after := int64(-1 << 62)
	if !from.IsZero() {
		after = from.UnixMilli()
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND interval = ? AND ts > ?
		ORDER BY ts ASC
	`, symbol, interval, after)
	if err != nil {
		return model.Series{}, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	series := model.Series{Symbol: symbol, Interval: interval}
	for rows.Next() {
		var c model.Candle
		var tsMs int64
		if err := rows.Scan(&tsMs, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return model.Series{}, fmt.Errorf("sqlite scan candles: %w", err)
		}
		c.TS = time.UnixMilli(tsMs).UTC()
		series.Candles = append(series.Candles, c)
	}
	if err := rows.Err(); err != nil {
		return model.Series{}, fmt.Errorf("sqlite iterate candles: %w", err)
	}
	return series, nil
}

// LatestRun loads the most recent backtest run for symbol. Returns nil
// when none is stored.
func (r *Reader) LatestRun(ctx context.Context, symbol string) (*RunRecord, error) {
	var rec RunRecord
	var summary string
	var created int64
	err := r.db.QueryRowContext(ctx, `
		SELECT run_id, symbol, interval, strategy, indicator, summary, created_at
		FROM backtest_runs
		WHERE symbol = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, symbol).Scan(&rec.RunID, &rec.Symbol, &rec.Interval, &rec.Strategy, &rec.Indicator, &summary, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite read run: %w", err)
	}
	rec.Summary = []byte(summary)
	rec.CreatedAt = time.Unix(0, created)
	return &rec, nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
