package indicator

import "math"

// DMI returns the directional movement index (DX). +DM, -DM and true range
// are Wilder-smoothed over period bars; the first period entries are NaN.
func (ind *Indicator) DMI(period int) ([]float64, error) {
	if err := checkPeriod("DMI", period, 2); err != nil {
		return nil, err
	}
	high, low, close := ind.high, ind.low, ind.close
	n := len(close)
	out := nans(n)
	if n <= period {
		return out, nil
	}

	p := float64(period)
	prevHigh, prevLow, prevClose := high[0], low[0], close[0]
	step := func(today int) (plus, minus, tr float64) {
		diffP := high[today] - prevHigh
		diffM := prevLow - low[today]
		switch {
		case diffM > 0 && diffP < diffM:
			minus = diffM
		case diffP > 0 && diffP > diffM:
			plus = diffP
		}
		tr = trueRange(high[today], low[today], prevClose)
		prevHigh, prevLow, prevClose = high[today], low[today], close[today]
		return plus, minus, tr
	}

	var plusDM, minusDM, tr float64
	for today := 1; today < period; today++ {
		dp, dm, r := step(today)
		plusDM += dp
		minusDM += dm
		tr += r
	}

	prevDX := 0.0
	for today := period; today < n; today++ {
		dp, dm, r := step(today)
		plusDM = plusDM - plusDM/p + dp
		minusDM = minusDM - minusDM/p + dm
		tr = tr - tr/p + r

		value := prevDX
		if !isZero(tr) {
			plusDI := 100 * (plusDM / tr)
			minusDI := 100 * (minusDM / tr)
			if sum := plusDI + minusDI; !isZero(sum) {
				value = 100 * (math.Abs(minusDI-plusDI) / sum)
			}
		}
		out[today] = value
		prevDX = value
	}
	return out, nil
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if v := math.Abs(high - prevClose); v > tr {
		tr = v
	}
	if v := math.Abs(low - prevClose); v > tr {
		tr = v
	}
	return tr
}
