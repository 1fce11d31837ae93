// Package metrics exposes Prometheus metrics and a health endpoint for
// backtest runs.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradesignals/internal/backtest"
)

// Metrics holds all Prometheus metrics for the signal pipeline.
type Metrics struct {
	reg *prometheus.Registry

	CandlesLoaded       *prometheus.CounterVec   // labels: source
	IndicatorComputeDur *prometheus.HistogramVec // labels: indicator
	SignalsTotal        *prometheus.CounterVec   // labels: strategy, indicator, action
	TradesTotal         *prometheus.CounterVec   // labels: symbol, side
	TradePnL            *prometheus.HistogramVec // labels: symbol
	Equity              *prometheus.GaugeVec     // labels: symbol
	RunsTotal           *prometheus.CounterVec   // labels: status
	RunDur              prometheus.Histogram
}

// NewMetrics creates the metrics on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		CandlesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesignals_candles_loaded_total",
			Help: "Candles loaded from a source",
		}, []string{"source"}),
		IndicatorComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradesignals_indicator_compute_duration_seconds",
			Help:    "Batch indicator compute latency over a full series",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"indicator"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesignals_signals_total",
			Help: "Non-hold signals produced",
		}, []string{"strategy", "indicator", "action"}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesignals_backtest_trades_total",
			Help: "Closed backtest trades",
		}, []string{"symbol", "side"}),
		TradePnL: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradesignals_backtest_trade_return_pct",
			Help:    "Per-trade return in percent",
			Buckets: []float64{-20, -10, -5, -2, -1, 0, 1, 2, 5, 10, 20},
		}, []string{"symbol"}),
		Equity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradesignals_backtest_equity",
			Help: "Final equity of the latest backtest",
		}, []string{"symbol"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesignals_runs_total",
			Help: "Pipeline runs by outcome",
		}, []string{"status"}),
		RunDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradesignals_run_duration_seconds",
			Help:    "End-to-end run latency",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CandlesLoaded,
		m.IndicatorComputeDur,
		m.SignalsTotal,
		m.TradesTotal,
		m.TradePnL,
		m.Equity,
		m.RunsTotal,
		m.RunDur,
	)
	return m
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveIndicator records one indicator computation.
func (m *Metrics) ObserveIndicator(name string, d time.Duration) {
	m.IndicatorComputeDur.WithLabelValues(name).Observe(d.Seconds())
}

// ObserveSignals counts the buys and sells of one strategy run.
func (m *Metrics) ObserveSignals(strategy, indicator string, buys, sells int) {
	m.SignalsTotal.WithLabelValues(strategy, indicator, "BUY").Add(float64(buys))
	m.SignalsTotal.WithLabelValues(strategy, indicator, "SELL").Add(float64(sells))
}

// ObserveTrade records a closed backtest trade.
func (m *Metrics) ObserveTrade(symbol string, t backtest.Trade) {
	m.TradesTotal.WithLabelValues(symbol, string(t.Side)).Inc()
	m.TradePnL.WithLabelValues(symbol).Observe(t.ReturnPct)
}

// ObserveEquity sets the latest equity for symbol.
func (m *Metrics) ObserveEquity(symbol string, equity float64) {
	m.Equity.WithLabelValues(symbol).Set(equity)
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisEnabled   bool
	RedisConnected bool
	SQLiteEnabled  bool
	SQLiteOK       bool
	LastRunAt      time.Time
	LastRunErr     string

	RedisLatencyMs  float64
	SQLiteLatencyMs float64
	LastCheckAt     time.Time
	StartedAt       time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

// SetRun records the outcome of the latest run.
func (h *HealthStatus) SetRun(at time.Time, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastRunAt = at
	h.LastRunErr = ""
	if err != nil {
		h.LastRunErr = err.Error()
	}
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisEnabled = true
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteEnabled = true
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Nil dependencies
// are skipped.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

type healthResponse struct {
	Status          string  `json:"status"`
	Uptime          string  `json:"uptime"`
	RedisConnected  bool    `json:"redis_connected"`
	RedisLatencyMs  float64 `json:"redis_latency_ms"`
	SQLiteOK        bool    `json:"sqlite_ok"`
	SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
	LastRunAt       string  `json:"last_run_at,omitempty"`
	LastRunError    string  `json:"last_run_error,omitempty"`
	LastCheckAt     string  `json:"last_check_at,omitempty"`
}

// ServeHTTP handles the /healthz endpoint. Only enabled dependencies
// affect the status.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	redisDown := h.RedisEnabled && !h.RedisConnected
	sqliteDown := h.SQLiteEnabled && !h.SQLiteOK
	if redisDown || sqliteDown || h.LastRunErr != "" {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if redisDown && sqliteDown {
		overallStatus = "unhealthy"
	}

	resp := healthResponse{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastRunError:    h.LastRunErr,
	}
	if !h.LastRunAt.IsZero() {
		resp.LastRunAt = h.LastRunAt.Format(time.RFC3339)
	}
	if !h.LastCheckAt.IsZero() {
		resp.LastCheckAt = h.LastCheckAt.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(resp)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, m *Metrics, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler returns the server mux.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
