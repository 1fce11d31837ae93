package metrics

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tradesignals/internal/backtest"
)

func scrape(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, string(body)
}

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics()
	m.ObserveIndicator("SMA(30)", 3*time.Millisecond)
	m.ObserveSignals("CrossOverStrategy", "SMA", 4, 3)
	m.ObserveTrade("NIFTY", backtest.Trade{Side: backtest.SideLong, ReturnPct: 2.5})
	m.ObserveEquity("NIFTY", 10250)
	m.CandlesLoaded.WithLabelValues("csv").Add(500)

	srv := NewServer(":0", m, NewHealthStatus())
	code, body := scrape(t, srv.Handler(), "/metrics")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	for _, want := range []string{
		`tradesignals_indicator_compute_duration_seconds_count{indicator="SMA(30)"} 1`,
		`tradesignals_signals_total{action="BUY",indicator="SMA",strategy="CrossOverStrategy"} 4`,
		`tradesignals_signals_total{action="SELL",indicator="SMA",strategy="CrossOverStrategy"} 3`,
		`tradesignals_backtest_trades_total{side="LONG",symbol="NIFTY"} 1`,
		`tradesignals_backtest_equity{symbol="NIFTY"} 10250`,
		`tradesignals_candles_loaded_total{source="csv"} 500`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNewMetrics_Independent(t *testing.T) {
	// Separate registries: constructing twice must not panic on
	// duplicate registration.
	NewMetrics()
	NewMetrics()
}

func TestHealth(t *testing.T) {
	h := NewHealthStatus()
	srv := NewServer(":0", NewMetrics(), h)

	code, body := scrape(t, srv.Handler(), "/healthz")
	if code != http.StatusOK {
		t.Fatalf("fresh status %d: %s", code, body)
	}
	var resp healthResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}

	h.SetRun(time.Now(), errors.New("csv: missing column"))
	code, body = scrape(t, srv.Handler(), "/healthz")
	if code != http.StatusServiceUnavailable || !strings.Contains(body, "missing column") {
		t.Errorf("failed run: %d %s", code, body)
	}

	h.SetRun(time.Now(), nil)
	h.mu.Lock()
	h.RedisEnabled, h.RedisConnected = true, false
	h.SQLiteEnabled, h.SQLiteOK = true, false
	h.mu.Unlock()
	_, body = scrape(t, srv.Handler(), "/healthz")
	if !strings.Contains(body, `"status":"unhealthy"`) {
		t.Errorf("both stores down: %s", body)
	}
}
