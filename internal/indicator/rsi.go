package indicator

// RSI returns the Relative Strength Index of close prices using Wilder's
// smoothing. Values lie in [0,100]; the first period entries are NaN.
func (ind *Indicator) RSI(period int) ([]float64, error) {
	if err := checkPeriod("RSI", period, 2); err != nil {
		return nil, err
	}
	data := ind.close
	out := nans(len(data))
	if len(data) <= period {
		return out, nil
	}

	p := float64(period)
	var avgGain, avgLoss float64

	// Accumulation phase: simple average of the first period deltas
	for i := 1; i <= period; i++ {
		delta := data[i] - data[i-1]
		if delta < 0 {
			avgLoss -= delta
		} else {
			avgGain += delta
		}
	}
	avgGain /= p
	avgLoss /= p
	out[period] = rsiValue(avgGain, avgLoss)

	// Wilder's smoothing: avg = (prevAvg * (period-1) + current) / period
	for i := period + 1; i < len(data); i++ {
		delta := data[i] - data[i-1]
		avgGain *= p - 1
		avgLoss *= p - 1
		if delta < 0 {
			avgLoss -= delta
		} else {
			avgGain += delta
		}
		avgGain /= p
		avgLoss /= p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, nil
}

// rsiValue is 100*gain/(gain+loss), or 0 on a flat window.
func rsiValue(gain, loss float64) float64 {
	total := gain + loss
	if isZero(total) {
		return 0
	}
	return 100 * (gain / total)
}
