package indicator

// KD returns the fast stochastic oscillator: %K over kPeriod bars and %D as
// the SMA of %K over dPeriod bars. Both lines start at index kPeriod+dPeriod-2.
func (ind *Indicator) KD(kPeriod, dPeriod int) (k, d []float64, err error) {
	if err := checkPeriod("KD k", kPeriod, 1); err != nil {
		return nil, nil, err
	}
	if err := checkPeriod("KD d", dPeriod, 1); err != nil {
		return nil, nil, err
	}

	n := len(ind.close)
	raw := nans(n)
	for i := kPeriod - 1; i < n; i++ {
		hh := highest(ind.high, i-kPeriod+1, i)
		ll := lowest(ind.low, i-kPeriod+1, i)
		diff := (hh - ll) / 100
		if diff != 0 {
			raw[i] = (ind.close[i] - ll) / diff
		} else {
			raw[i] = 0
		}
	}

	k, d = nans(n), nans(n)
	var smoothed []float64
	if dPeriod == 1 {
		smoothed = raw
	} else {
		smoothed = sma(raw, dPeriod)
	}
	for i := kPeriod + dPeriod - 2; i < n; i++ {
		k[i] = raw[i]
		d[i] = smoothed[i]
	}
	return k, d, nil
}

// WillR returns Williams %R in [-100,0]. A flat window yields 0.
func (ind *Indicator) WillR(period int) ([]float64, error) {
	if err := checkPeriod("WILLR", period, 2); err != nil {
		return nil, err
	}
	n := len(ind.close)
	out := nans(n)
	for i := period - 1; i < n; i++ {
		hh := highest(ind.high, i-period+1, i)
		ll := lowest(ind.low, i-period+1, i)
		diff := (hh - ll) / -100
		if diff != 0 {
			out[i] = (hh - ind.close[i]) / diff
		} else {
			out[i] = 0
		}
	}
	return out, nil
}
