package calculator

// MovingAverages returns the fast and slow simple moving averages of closes.
func MovingAverages(closes []float64, fast, slow int) (fastMA, slowMA []float64, err error) {
	if fastMA, err = RollingMean(closes, fast); err != nil {
		return nil, nil, err
	}
	if slowMA, err = RollingMean(closes, slow); err != nil {
		return nil, nil, err
	}
	return fastMA, slowMA, nil
}
