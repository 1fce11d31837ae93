package indicator

// MTM returns momentum: close[t] - close[t-period].
func (ind *Indicator) MTM(period int) ([]float64, error) {
	if err := checkPeriod("MTM", period, 1); err != nil {
		return nil, err
	}
	out := nans(len(ind.close))
	for i := period; i < len(ind.close); i++ {
		out[i] = ind.close[i] - ind.close[i-period]
	}
	return out, nil
}

// ROC returns the rate of change in percent: (close[t]/close[t-period]-1)*100.
// A zero base price yields 0.
func (ind *Indicator) ROC(period int) ([]float64, error) {
	if err := checkPeriod("ROC", period, 1); err != nil {
		return nil, err
	}
	out := nans(len(ind.close))
	for i := period; i < len(ind.close); i++ {
		base := ind.close[i-period]
		if base == 0 {
			out[i] = 0
			continue
		}
		out[i] = (ind.close[i]/base - 1) * 100
	}
	return out, nil
}
