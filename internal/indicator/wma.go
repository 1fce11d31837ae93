package indicator

// WMA returns the linearly weighted moving average of close prices.
func (ind *Indicator) WMA(period int) ([]float64, error) {
	return ind.WMAWithData(ind.close, period)
}

// WMAWithData returns the weighted moving average of an arbitrary series.
func (ind *Indicator) WMAWithData(data []float64, period int) ([]float64, error) {
	return WMAWithData(data, period)
}

// WMAWithData weights the newest value by period and the oldest by 1.
func WMAWithData(data []float64, period int) ([]float64, error) {
	if err := checkData("WMA", data); err != nil {
		return nil, err
	}
	if err := checkPeriod("WMA", period, 2); err != nil {
		return nil, err
	}

	out := nans(len(data))
	divider := float64(period*(period+1)) / 2
	for i := firstValid(data) + period - 1; i < len(data); i++ {
		var sum float64
		for j := 0; j < period; j++ {
			sum += float64(j+1) * data[i-period+1+j]
		}
		out[i] = sum / divider
	}
	return out, nil
}
