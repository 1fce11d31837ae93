package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"tradesignals/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const defaultBatchSize = 500

// dsnOptions are appended to every database path.
const dsnOptions = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath    string // path to SQLite database file, e.g. "data/candles.db"
	BatchSize int    // rows per transaction, default 500
}

// Writer is a single-connection SQLite writer with transaction batching.
type Writer struct {
	db        *sql.DB
	batchSize int
	log       *slog.Logger
}

var _ model.CandleWriter = (*Writer)(nil)

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	logger := slog.Default().With("component", "sqlite")
	logger.Info("database opened", "path", cfg.DBPath)
	return &Writer{db: db, batchSize: batch, log: logger}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol     TEXT    NOT NULL,
			interval   TEXT    NOT NULL,
			ts         INTEGER NOT NULL, -- unix milliseconds
			open       REAL    NOT NULL,
			high       REAL    NOT NULL,
			low        REAL    NOT NULL,
			close      REAL    NOT NULL,
			volume     REAL    NOT NULL,
			PRIMARY KEY (symbol, interval, ts)
		);

		CREATE TABLE IF NOT EXISTS backtest_runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT    NOT NULL,
			symbol     TEXT    NOT NULL,
			interval   TEXT    NOT NULL,
			strategy   TEXT    NOT NULL,
			indicator  TEXT    NOT NULL,
			summary    TEXT    NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_backtest_runs_symbol
			ON backtest_runs (symbol, created_at);
	`)
	return err
}

// UpsertCandles inserts or replaces every candle of series in batched
// transactions. Returns the number of rows written.
func (w *Writer) UpsertCandles(ctx context.Context, series model.Series) (int, error) {
	start := time.Now()
	written := 0
	for lo := 0; lo < len(series.Candles); lo += w.batchSize {
		hi := lo + w.batchSize
		if hi > len(series.Candles) {
			hi = len(series.Candles)
		}
		if err := w.insertBatch(ctx, series.Symbol, series.Interval, series.Candles[lo:hi]); err != nil {
			return written, fmt.Errorf("sqlite upsert %s: %w", series.Key(), err)
		}
		written += hi - lo
	}
	w.log.Info("candles committed", "key", series.Key(), "rows", written, "took", time.Since(start))
	return written, nil
}

// insertBatch inserts a batch of candles in a single transaction.
func (w *Writer) insertBatch(ctx context.Context, symbol, interval string, candles []model.Candle) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, interval, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, symbol, interval, c.TS.UnixMilli(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// GetLastTimestamp returns the last stored candle time for symbol and
// interval, or the zero time when none exist.
func (w *Writer) GetLastTimestamp(ctx context.Context, symbol, interval string) (time.Time, error) {
	var ts sql.NullInt64
	err := w.db.QueryRowContext(ctx,
		`SELECT MAX(ts) FROM candles WHERE symbol = ? AND interval = ?`,
		symbol, interval,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite last ts: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.UnixMilli(ts.Int64).UTC(), nil
}

// RunRecord is one persisted backtest run.
type RunRecord struct {
	RunID     string
	Symbol    string
	Interval  string
	Strategy  string
	Indicator string
	Summary   []byte // JSON
	CreatedAt time.Time
}

// SaveRun stores a backtest summary row.
func (w *Writer) SaveRun(ctx context.Context, rec RunRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := w.db.ExecContext(ctx, `
		INSERT INTO backtest_runs (run_id, symbol, interval, strategy, indicator, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.Symbol, rec.Interval, rec.Strategy, rec.Indicator, string(rec.Summary), rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite save run %s: %w", rec.RunID, err)
	}
	w.log.Debug("backtest run saved", "run_id", rec.RunID, "symbol", rec.Symbol)
	return nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
