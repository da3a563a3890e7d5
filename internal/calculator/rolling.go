package calculator

import (
	"fmt"
	"math"

	"SignalSentinel/internal/model"
)

// Every function here returns a slice aligned with its input. Index i is
// defined once i >= window-1; earlier entries, and any window containing a
// NaN, are NaN.

func checkWindow(window int) error {
	if window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %d", model.ErrInvalidConfig, window)
	}
	return nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// rolling applies reduce to each trailing window of values.
func rolling(values []float64, window int, reduce func(win []float64) float64) ([]float64, error) {
	if err := checkWindow(window); err != nil {
		return nil, err
	}
	out := nanSlice(len(values))
	for i := window - 1; i < len(values); i++ {
		win := values[i-window+1 : i+1]
		if hasNaN(win) {
			continue
		}
		out[i] = reduce(win)
	}
	return out, nil
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// mean sums offsets from the first element so a constant window returns that
// element exactly.
func mean(win []float64) float64 {
	base := win[0]
	sum := 0.0
	for _, v := range win[1:] {
		sum += v - base
	}
	return base + sum/float64(len(win))
}

// RollingMean computes the trailing simple average.
func RollingMean(values []float64, window int) ([]float64, error) {
	return rolling(values, window, mean)
}

// RollingStd computes the trailing sample standard deviation (n-1 divisor).
// A window of 1 yields NaN.
func RollingStd(values []float64, window int) ([]float64, error) {
	return rolling(values, window, func(win []float64) float64 {
		if len(win) < 2 {
			return math.NaN()
		}
		m := mean(win)
		ss := 0.0
		for _, v := range win {
			d := v - m
			ss += d * d
		}
		return math.Sqrt(ss / float64(len(win)-1))
	})
}

// RollingMin computes the trailing minimum.
func RollingMin(values []float64, window int) ([]float64, error) {
	return rolling(values, window, func(win []float64) float64 {
		lo := win[0]
		for _, v := range win[1:] {
			if v < lo {
				lo = v
			}
		}
		return lo
	})
}

// RollingMax computes the trailing maximum.
func RollingMax(values []float64, window int) ([]float64, error) {
	return rolling(values, window, func(win []float64) float64 {
		hi := win[0]
		for _, v := range win[1:] {
			if v > hi {
				hi = v
			}
		}
		return hi
	})
}

// EMA computes the recursive exponential average with alpha = 2/(span+1),
// seeded with the first defined input: ema[0] = values[0].
// Leading NaN inputs stay NaN; a NaN after the seed carries the previous value.
func EMA(values []float64, span int) ([]float64, error) {
	if err := checkWindow(span); err != nil {
		return nil, err
	}
	alpha := 2.0 / float64(span+1)
	out := nanSlice(len(values))
	prev := math.NaN()
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			out[i] = prev
		case math.IsNaN(prev):
			prev = v
			out[i] = v
		default:
			prev += alpha * (v - prev)
			out[i] = prev
		}
	}
	return out, nil
}
