package indicator

// MFI returns the money flow index over typical price (H+L+C)/3 weighted by
// volume. A window whose total flow is below 1 yields 0.
func (ind *Indicator) MFI(period int) ([]float64, error) {
	if err := checkPeriod("MFI", period, 2); err != nil {
		return nil, err
	}
	n := len(ind.close)
	out := nans(n)
	if n <= period {
		return out, nil
	}

	pos := make([]float64, n)
	neg := make([]float64, n)
	prevTP := typicalPrice(ind.high[0], ind.low[0], ind.close[0])
	for i := 1; i < n; i++ {
		tp := typicalPrice(ind.high[i], ind.low[i], ind.close[i])
		flow := tp * ind.volume[i]
		switch {
		case tp > prevTP:
			pos[i] = flow
		case tp < prevTP:
			neg[i] = flow
		}
		prevTP = tp
	}

	var posSum, negSum float64
	for i := 1; i < n; i++ {
		posSum += pos[i]
		negSum += neg[i]
		if i > period {
			posSum -= pos[i-period]
			negSum -= neg[i-period]
		}
		if i >= period {
			total := posSum + negSum
			if total < 1 {
				out[i] = 0
			} else {
				out[i] = 100 * (posSum / total)
			}
		}
	}
	return out, nil
}

func typicalPrice(high, low, close float64) float64 {
	return (high + low + close) / 3
}
