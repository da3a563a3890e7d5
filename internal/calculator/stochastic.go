package calculator

import (
	"math"

	"SignalSentinel/internal/model"
)

// Stochastic computes %K over kPeriod and its %D rolling mean over dPeriod.
// A flat range (highest high == lowest low) leaves %K undefined.
func Stochastic(bars []model.OHLCV, kPeriod, dPeriod int) (k, d []float64, err error) {
	s := model.Series{Bars: bars}
	lowest, err := RollingMin(s.Lows(), kPeriod)
	if err != nil {
		return nil, nil, err
	}
	highest, err := RollingMax(s.Highs(), kPeriod)
	if err != nil {
		return nil, nil, err
	}

	k = nanSlice(len(bars))
	for i, b := range bars {
		rng := highest[i] - lowest[i]
		if math.IsNaN(rng) || rng == 0 {
			continue
		}
		k[i] = (b.Close - lowest[i]) / rng * 100
	}
	if d, err = RollingMean(k, dPeriod); err != nil {
		return nil, nil, err
	}
	return k, d, nil
}
