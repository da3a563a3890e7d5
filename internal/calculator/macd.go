package calculator

// MACD returns the fast-minus-slow EMA line and its signal EMA.
func MACD(closes []float64, fast, slow, signal int) (line, signalLine []float64, err error) {
	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return nil, nil, err
	}
	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return nil, nil, err
	}
	line = make([]float64, len(closes))
	for i := range line {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	if signalLine, err = EMA(line, signal); err != nil {
		return nil, nil, err
	}
	return line, signalLine, nil
}
