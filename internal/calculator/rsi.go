package calculator

import "math"

// RSI computes the relative strength index from rolling means of gains and
// losses over period bars. The first change is undefined, so the first
// defined value is at index period.
//
// loss == 0 with gain > 0 gives 100; flat windows (gain == loss == 0) give NaN.
func RSI(closes []float64, period int) ([]float64, error) {
	if err := checkWindow(period); err != nil {
		return nil, err
	}
	n := len(closes)
	gains := nanSlice(n)
	losses := nanSlice(n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		gains[i] = math.Max(change, 0)
		losses[i] = math.Max(-change, 0)
	}

	avgGain, err := RollingMean(gains, period)
	if err != nil {
		return nil, err
	}
	avgLoss, err := RollingMean(losses, period)
	if err != nil {
		return nil, err
	}

	out := nanSlice(n)
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
		case l == 0 && g == 0:
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out, nil
}
