package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"tradesignals/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

type bar struct{ h, l, c, v float64 }

func seriesFromBars(bars []bar) model.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := model.Series{Symbol: "TEST", Interval: "1d"}
	for i, b := range bars {
		s.Candles = append(s.Candles, model.Candle{
			TS:   start.Add(time.Duration(i) * 24 * time.Hour),
			Open: b.c, High: b.h, Low: b.l, Close: b.c, Volume: b.v,
		})
	}
	return s
}

func seriesFromCloses(closes ...float64) model.Series {
	bars := make([]bar, len(closes))
	for i, c := range closes {
		bars[i] = bar{h: c + 1, l: math.Max(c-1, 0), c: c, v: 100}
	}
	return seriesFromBars(bars)
}

func newInd(t *testing.T, s model.Series) *Indicator {
	t.Helper()
	ind, err := New(s)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ind
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// assertSeries checks values against want; NaN in want means undefined.
func assertSeries(t *testing.T, label string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length %d, want %d", label, len(got), len(want))
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("%s[%d]: got %.6f, want NaN", label, i, got[i])
			}
			continue
		}
		assertClose(t, label, got[i], want[i], 0.0001)
	}
}

var nan = math.NaN()

// ────────────────────────────────────────────────────────────
// Construction
// ────────────────────────────────────────────────────────────

func TestNew_EmptySeries(t *testing.T) {
	_, err := New(model.Series{Symbol: "EMPTY"})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestNew_UnorderedSeries(t *testing.T) {
	s := seriesFromCloses(1, 2, 3)
	s.Candles[1].TS = s.Candles[0].TS
	if _, err := New(s); !errors.Is(err, model.ErrUnordered) {
		t.Fatalf("expected ErrUnordered, got %v", err)
	}
}

func TestWithData_EmptyInput(t *testing.T) {
	for name, fn := range map[string]func([]float64, int) ([]float64, error){
		"SMA": SMAWithData, "EMA": EMAWithData, "WMA": WMAWithData,
	} {
		if _, err := fn(nil, 3); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("%s: expected ErrEmptyInput, got %v", name, err)
		}
	}
}

func TestInvalidPeriods(t *testing.T) {
	ind := newInd(t, seriesFromCloses(1, 2, 3, 4, 5))
	checks := map[string]func() error{
		"SMA":   func() error { _, err := ind.SMA(0); return err },
		"SMA1":  func() error { _, err := ind.SMA(1); return err },
		"EMA":   func() error { _, err := ind.EMA(-1); return err },
		"WMA":   func() error { _, err := ind.WMA(0); return err },
		"RSI":   func() error { _, err := ind.RSI(0); return err },
		"MTM":   func() error { _, err := ind.MTM(0); return err },
		"ROC":   func() error { _, err := ind.ROC(0); return err },
		"MFI":   func() error { _, err := ind.MFI(0); return err },
		"WILLR": func() error { _, err := ind.WillR(0); return err },
		"DMI":   func() error { _, err := ind.DMI(1); return err },
		"BBANDS": func() error {
			_, _, _, err := ind.BBands(0)
			return err
		},
		"KD": func() error {
			_, _, err := ind.KD(0, 3)
			return err
		},
		"MACD": func() error {
			_, _, _, err := ind.MACD(12, 26, 0)
			return err
		},
	}
	for name, fn := range checks {
		if err := fn(); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%s: expected ErrInvalidParameter, got %v", name, err)
		}
	}
}

func TestInsufficientHistory_IsNaNNotError(t *testing.T) {
	ind := newInd(t, seriesFromCloses(1, 2, 3, 4, 5))
	sma, err := ind.SMA(10)
	if err != nil {
		t.Fatalf("SMA(10) on 5 candles: %v", err)
	}
	rsi, err := ind.RSI(14)
	if err != nil {
		t.Fatalf("RSI(14) on 5 candles: %v", err)
	}
	macd, _, _, err := ind.MACD(12, 26, 9)
	if err != nil {
		t.Fatalf("MACD on 5 candles: %v", err)
	}
	for i := 0; i < 5; i++ {
		if !math.IsNaN(sma[i]) || !math.IsNaN(rsi[i]) || !math.IsNaN(macd[i]) {
			t.Errorf("index %d: expected NaN for short history", i)
		}
	}
}

// ────────────────────────────────────────────────────────────
// Moving averages
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness_Period3(t *testing.T) {
	// (100+102+104)/3 = 102, (102+104+103)/3 = 103, (104+103+105)/3 = 104
	ind := newInd(t, seriesFromCloses(100, 102, 104, 103, 105))
	got, err := ind.SMA(3)
	if err != nil {
		t.Fatal(err)
	}
	assertSeries(t, "SMA(3)", got, []float64{nan, nan, 102, 103, 104})
}

func TestSMAWithData_MatchesTrailingMean(t *testing.T) {
	data := []float64{3, 7, 1, 9, 4, 4, 8, 2, 6, 5, 10, 0.5}
	for p := 2; p <= len(data); p++ {
		got, err := SMAWithData(data, p)
		if err != nil {
			t.Fatalf("p=%d: %v", p, err)
		}
		for i := range data {
			if i < p-1 {
				if !math.IsNaN(got[i]) {
					t.Errorf("p=%d i=%d: expected NaN", p, i)
				}
				continue
			}
			var sum float64
			for _, v := range data[i-p+1 : i+1] {
				sum += v
			}
			assertClose(t, "trailing mean", got[i], sum/float64(p), 1e-9)
		}
	}
}

func TestSMAWithData_SkipsLeadingNaN(t *testing.T) {
	got, err := SMAWithData([]float64{nan, nan, 1, 2, 3, 4}, 2)
	if err != nil {
		t.Fatal(err)
	}
	assertSeries(t, "SMA(2) on NaN-prefixed data", got, []float64{nan, nan, nan, 1.5, 2.5, 3.5})
}

func TestEMA_Correctness_Period3(t *testing.T) {
	// multiplier = 0.5, seed = SMA(100,102,104) = 102
	// 103*0.5 + 102*0.5 = 102.5, 105*0.5 + 102.5*0.5 = 103.75
	ind := newInd(t, seriesFromCloses(100, 102, 104, 103, 105))
	got, err := ind.EMA(3)
	if err != nil {
		t.Fatal(err)
	}
	assertSeries(t, "EMA(3)", got, []float64{nan, nan, 102, 102.5, 103.75})
}

func TestEMAWithData_SkipsLeadingNaN(t *testing.T) {
	got, err := EMAWithData([]float64{nan, 2, 4, 6}, 2)
	if err != nil {
		t.Fatal(err)
	}
	// seed = (2+4)/2 = 3, then (6-3)*2/3 + 3 = 5
	assertSeries(t, "EMA(2)", got, []float64{nan, nan, 3, 5})
}

func TestWMA_Correctness_Period3(t *testing.T) {
	// (1*1+2*2+3*3)/6, (1*2+2*3+3*4)/6, (1*3+2*4+3*5)/6
	ind := newInd(t, seriesFromCloses(1, 2, 3, 4, 5))
	got, err := ind.WMA(3)
	if err != nil {
		t.Fatal(err)
	}
	assertSeries(t, "WMA(3)", got, []float64{nan, nan, 14.0 / 6, 20.0 / 6, 26.0 / 6})
}

func TestBBands_Correctness_Period3(t *testing.T) {
	ind := newInd(t, seriesFromCloses(1, 2, 3, 4, 5))
	upper, middle, lower, err := ind.BBands(3)
	if err != nil {
		t.Fatal(err)
	}
	// population stddev of {1,2,3} = sqrt(2/3) = 0.816497
	dev := 2 * math.Sqrt(2.0/3.0)
	assertSeries(t, "BBANDS middle", middle, []float64{nan, nan, 2, 3, 4})
	assertSeries(t, "BBANDS upper", upper, []float64{nan, nan, 2 + dev, 3 + dev, 4 + dev})
	assertSeries(t, "BBANDS lower", lower, []float64{nan, nan, 2 - dev, 3 - dev, 4 - dev})
}

func TestMACD_SeedsFastEMAOnSlowWindow(t *testing.T) {
	// fast=2 seeded at index 2 with mean(5,2)=3.5; slow=3 seeded with mean(1,5,2).
	ind := newInd(t, seriesFromCloses(1, 5, 2, 8, 3, 9))
	macd, signal, hist, err := ind.MACD(2, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	assertSeries(t, "MACD", macd, []float64{nan, nan, nan, 7.0 / 6, 0, 0.805556})
	assertSeries(t, "MACD signal", signal, []float64{nan, nan, nan, 1, 1.0 / 3, 0.648148})
	assertSeries(t, "MACD hist", hist, []float64{nan, nan, nan, 1.0 / 6, -1.0 / 3, 0.157407})
}

func TestMACD_SwapsReversedPeriods(t *testing.T) {
	ind := newInd(t, seriesFromCloses(1, 5, 2, 8, 3, 9))
	a, _, _, _ := ind.MACD(2, 3, 2)
	b, _, _, _ := ind.MACD(3, 2, 2)
	assertSeries(t, "MACD swapped", b, a)
}

// ────────────────────────────────────────────────────────────
// Oscillators
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period2(t *testing.T) {
	// deltas +1,-1 seed avg 0.5/0.5 → 50
	// +2: gain (0.5+2)/2=1.25 loss 0.25 → 83.33
	// +1: gain (1.25+1)/2=1.125 loss 0.125 → 90
	ind := newInd(t, seriesFromCloses(10, 11, 10, 12, 13))
	got, err := ind.RSI(2)
	if err != nil {
		t.Fatal(err)
	}
	assertSeries(t, "RSI(2)", got, []float64{nan, nan, 50, 83.333333, 90})
}

func TestRSI_FlatSeriesIsZero(t *testing.T) {
	ind := newInd(t, seriesFromCloses(5, 5, 5, 5))
	got, _ := ind.RSI(2)
	assertSeries(t, "RSI flat", got, []float64{nan, nan, 0, 0})
}

func TestRSI_Bounded(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i%4)
	}
	ind := newInd(t, seriesFromCloses(closes...))
	got, _ := ind.RSI(14)
	for i, v := range got[14:] {
		if v < 0 || v > 100 {
			t.Errorf("RSI[%d] = %.4f out of [0,100]", i+14, v)
		}
	}
}

func TestMTM_ROC(t *testing.T) {
	ind := newInd(t, seriesFromCloses(1, 2, 4, 7))
	mtm, err := ind.MTM(2)
	if err != nil {
		t.Fatal(err)
	}
	assertSeries(t, "MTM(2)", mtm, []float64{nan, nan, 3, 5})

	ind = newInd(t, seriesFromCloses(100, 110, 99))
	roc, err := ind.ROC(1)
	if err != nil {
		t.Fatal(err)
	}
	assertSeries(t, "ROC(1)", roc, []float64{nan, 10, -10})

	ind = newInd(t, seriesFromCloses(0, 5))
	roc, _ = ind.ROC(1)
	assertSeries(t, "ROC zero base", roc, []float64{nan, 0})
}

var hlcBars = []bar{
	{h: 10, l: 8, c: 9, v: 100},
	{h: 12, l: 9, c: 11, v: 100},
	{h: 11, l: 7, c: 8, v: 200},
	{h: 14, l: 10, c: 13, v: 100},
}

func TestWillR_Correctness(t *testing.T) {
	ind := newInd(t, seriesFromBars(hlcBars))
	got, err := ind.WillR(2)
	if err != nil {
		t.Fatal(err)
	}
	// (12-11)/(12-8)*-100 = -25, (12-8)/(12-7)*-100 = -80, (14-13)/(14-7)*-100
	assertSeries(t, "WILLR(2)", got, []float64{nan, -25, -80, -100.0 / 7})
	for _, v := range got[1:] {
		if v < -100 || v > 0 {
			t.Errorf("WILLR out of [-100,0]: %.4f", v)
		}
	}
}

func TestKD_Correctness(t *testing.T) {
	ind := newInd(t, seriesFromBars(hlcBars))
	k, d, err := ind.KD(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	// raw K: i1 = (11-8)/(12-8)*100 = 75, i2 = (8-7)/(12-7)*100 = 20, i3 = (13-7)/(14-7)*100
	k3 := 600.0 / 7
	assertSeries(t, "KD K", k, []float64{nan, nan, 20, k3})
	assertSeries(t, "KD D", d, []float64{nan, nan, 47.5, (20 + k3) / 2})
}

func TestMFI_Correctness(t *testing.T) {
	ind := newInd(t, seriesFromBars(hlcBars))
	got, err := ind.MFI(2)
	if err != nil {
		t.Fatal(err)
	}
	// typical prices 9, 32/3, 26/3, 37/3 → flows +3200/3, -5200/3, +3700/3
	assertSeries(t, "MFI(2)", got, []float64{nan, nan, 100 * 3200.0 / 8400, 100 * 3700.0 / 8900})
}

func TestDMI_Correctness(t *testing.T) {
	ind := newInd(t, seriesFromBars(hlcBars))
	got, err := ind.DMI(2)
	if err != nil {
		t.Fatal(err)
	}
	// smoothed +DM/-DM: (1,2) then (3.5,1) → DX = |+DM - -DM| / (+DM + -DM) * 100
	assertSeries(t, "DMI(2)", got, []float64{nan, nan, 100.0 / 3, 2.5 / 4.5 * 100})
}

func TestOutputLengthMatchesInput(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 50 + float64(i%7)
	}
	ind := newInd(t, seriesFromCloses(closes...))
	sma, _ := ind.SMA(DefaultMAPeriod)
	ema, _ := ind.EMA(DefaultMAPeriod)
	wma, _ := ind.WMA(DefaultMAPeriod)
	dmi, _ := ind.DMI(DefaultDMIPeriod)
	mfi, _ := ind.MFI(DefaultMFIPeriod)
	willr, _ := ind.WillR(DefaultWillRPeriod)
	k, d, _ := ind.KD(DefaultKPeriod, DefaultDPeriod)
	for name, out := range map[string][]float64{
		"SMA": sma, "EMA": ema, "WMA": wma, "DMI": dmi, "MFI": mfi, "WILLR": willr, "K": k, "D": d,
	} {
		if len(out) != len(closes) {
			t.Errorf("%s: length %d, want %d", name, len(out), len(closes))
		}
	}
}
