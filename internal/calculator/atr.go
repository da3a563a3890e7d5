package calculator

import (
	"math"

	"SignalSentinel/internal/model"
)

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|). Bar 0 has no
// previous close and is NaN.
func TrueRange(bars []model.OHLCV) []float64 {
	out := nanSlice(len(bars))
	for i := 1; i < len(bars); i++ {
		b, prevClose := bars[i], bars[i-1].Close
		out[i] = math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}
	return out
}

// ATR is the rolling mean of the true range.
func ATR(bars []model.OHLCV, period int) ([]float64, error) {
	return RollingMean(TrueRange(bars), period)
}
