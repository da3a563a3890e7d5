package calculator

// Bollinger returns mean ± k standard deviations of closes over period.
func Bollinger(closes []float64, period int, k float64) (upper, middle, lower []float64, err error) {
	if middle, err = RollingMean(closes, period); err != nil {
		return nil, nil, nil, err
	}
	std, err := RollingStd(closes, period)
	if err != nil {
		return nil, nil, nil, err
	}
	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i := range closes {
		band := std[i] * k
		upper[i] = middle[i] + band
		lower[i] = middle[i] - band
	}
	return upper, middle, lower, nil
}
