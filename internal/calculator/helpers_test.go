package calculator

import (
	"math"
	"testing"
	"time"

	"SignalSentinel/internal/model"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func assertNaN(t *testing.T, label string, got float64) {
	t.Helper()
	if !math.IsNaN(got) {
		t.Errorf("%s: expected NaN, got %.6f", label, got)
	}
}

// waveSeries builds a deterministic oscillating series of n bars.
func waveSeries(n int) *model.Series {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	prev := 100.0
	for i := 0; i < n; i++ {
		c := 100 + 5*math.Sin(float64(i)/7) + 2*math.Cos(float64(i)/3)
		hi := math.Max(prev, c) + 0.4 + 0.1*math.Abs(math.Sin(float64(i)))
		lo := math.Min(prev, c) - 0.3 - 0.1*math.Abs(math.Cos(float64(i)))
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   prev,
			High:   hi,
			Low:    lo,
			Close:  c,
			Volume: 1000 + float64(i),
		}
		prev = c
	}
	return &model.Series{Asset: "EURUSD", Timeframe: model.TimeframeM1, Bars: bars}
}

func flatSeries(n int, price float64) *model.Series {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		bars[i] = model.OHLCV{Time: start.Add(time.Duration(i) * time.Minute), Open: price, High: price, Low: price, Close: price}
	}
	return &model.Series{Asset: "FLAT", Timeframe: model.TimeframeM1, Bars: bars}
}

func risingSeries(n int) *model.Series {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := 50 + float64(i)
		bars[i] = model.OHLCV{Time: start.Add(time.Duration(i) * time.Minute), Open: c - 0.5, High: c + 0.2, Low: c - 0.7, Close: c}
	}
	return &model.Series{Asset: "UP", Timeframe: model.TimeframeM1, Bars: bars}
}
