package indicator

// EMA returns the exponential moving average of close prices.
func (ind *Indicator) EMA(period int) ([]float64, error) {
	return ind.EMAWithData(ind.close, period)
}

// EMAWithData returns the exponential moving average of an arbitrary series.
func (ind *Indicator) EMAWithData(data []float64, period int) ([]float64, error) {
	return EMAWithData(data, period)
}

// EMAWithData returns the EMA with multiplier 2/(period+1). The first value
// is seeded with the SMA of the first period defined inputs.
func EMAWithData(data []float64, period int) ([]float64, error) {
	if err := checkData("EMA", data); err != nil {
		return nil, err
	}
	if err := checkPeriod("EMA", period, 2); err != nil {
		return nil, err
	}
	return ema(data, period), nil
}

func ema(data []float64, period int) []float64 {
	return emaSeeded(data, period, firstValid(data)+period-1)
}

// emaSeeded places the first EMA value at index seed, equal to the mean of
// the period values ending there, then applies the recursive formula.
func emaSeeded(data []float64, period, seed int) []float64 {
	out := nans(len(data))
	if seed >= len(data) || seed-period+1 < 0 {
		return out
	}
	k := 2.0 / float64(period+1)

	var sum float64
	for i := seed - period + 1; i <= seed; i++ {
		sum += data[i]
	}
	prev := sum / float64(period)
	out[seed] = prev

	// EMA = (price - prev) * k + prev
	for i := seed + 1; i < len(data); i++ {
		prev = (data[i]-prev)*k + prev
		out[i] = prev
	}
	return out
}

// MACD returns the MACD line (fast EMA - slow EMA), its signal line (EMA of
// the MACD line) and the histogram. As in the reference library the fast
// EMA is seeded on the window ending where the slow EMA starts, and all
// three outputs begin at index slow+signal-2.
func (ind *Indicator) MACD(fast, slow, signal int) (macd, macdSignal, hist []float64, err error) {
	if err := checkPeriod("MACD fast", fast, 2); err != nil {
		return nil, nil, nil, err
	}
	if err := checkPeriod("MACD slow", slow, 2); err != nil {
		return nil, nil, nil, err
	}
	if err := checkPeriod("MACD signal", signal, 1); err != nil {
		return nil, nil, nil, err
	}
	if slow < fast {
		fast, slow = slow, fast
	}

	n := len(ind.close)
	macd, macdSignal, hist = nans(n), nans(n), nans(n)
	start := slow - 1
	lookback := start + signal - 1
	if lookback >= n {
		return macd, macdSignal, hist, nil
	}

	fastEMA := emaSeeded(ind.close, fast, start)
	slowEMA := emaSeeded(ind.close, slow, start)
	line := nans(n)
	for i := start; i < n; i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := emaSeeded(line, signal, lookback)

	for i := lookback; i < n; i++ {
		macd[i] = line[i]
		macdSignal[i] = sig[i]
		hist[i] = line[i] - sig[i]
	}
	return macd, macdSignal, hist, nil
}
