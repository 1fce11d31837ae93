package indicator

import "math"

// SMA returns the simple moving average of close prices.
func (ind *Indicator) SMA(period int) ([]float64, error) {
	return ind.SMAWithData(ind.close, period)
}

// SMAWithData returns the simple moving average of an arbitrary series.
func (ind *Indicator) SMAWithData(data []float64, period int) ([]float64, error) {
	return SMAWithData(data, period)
}

// SMAWithData returns the trailing arithmetic mean over period values.
// The first period-1 defined inputs produce NaN.
func SMAWithData(data []float64, period int) ([]float64, error) {
	if err := checkData("SMA", data); err != nil {
		return nil, err
	}
	if err := checkPeriod("SMA", period, 2); err != nil {
		return nil, err
	}
	return sma(data, period), nil
}

func sma(data []float64, period int) []float64 {
	out := nans(len(data))
	start := firstValid(data)
	var sum float64
	for i := start; i < len(data); i++ {
		sum += data[i]
		if i-start >= period {
			sum -= data[i-period]
		}
		if i-start >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// BBands returns Bollinger Bands over close prices: the middle band is the
// SMA and the outer bands sit two population standard deviations away.
func (ind *Indicator) BBands(period int) (upper, middle, lower []float64, err error) {
	if err := checkPeriod("BBANDS", period, 2); err != nil {
		return nil, nil, nil, err
	}
	n := len(ind.close)
	middle = sma(ind.close, period)
	upper, lower = nans(n), nans(n)
	for i := period - 1; i < n; i++ {
		var sum, sumSq float64
		for _, v := range ind.close[i-period+1 : i+1] {
			sum += v
			sumSq += v * v
		}
		mean := sum / float64(period)
		variance := sumSq/float64(period) - mean*mean
		dev := 0.0
		if variance > 0 {
			dev = math.Sqrt(variance)
		}
		upper[i] = middle[i] + bbandsDeviations*dev
		lower[i] = middle[i] - bbandsDeviations*dev
	}
	return upper, middle, lower, nil
}
