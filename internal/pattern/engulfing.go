// Package pattern classifies two-bar candlestick formations.
package pattern

import "SignalSentinel/internal/model"

// Engulfing classifies cur against its predecessor prev.
func Engulfing(prev, cur model.OHLCV) model.Pattern {
	switch {
	case cur.Close > cur.Open && prev.Close < prev.Open &&
		cur.Close > prev.Open && cur.Open < prev.Close:
		return model.BullishEngulfing
	case cur.Close < cur.Open && prev.Close > prev.Open &&
		cur.Close < prev.Open && cur.Open > prev.Close:
		return model.BearishEngulfing
	default:
		return model.NoPattern
	}
}

// Classify returns one pattern per bar. Bar 0 has no predecessor and is
// always NoPattern.
func Classify(bars []model.OHLCV) []model.Pattern {
	out := make([]model.Pattern, len(bars))
	for i := 1; i < len(bars); i++ {
		out[i] = Engulfing(bars[i-1], bars[i])
	}
	return out
}

// Latest returns the pattern of the last bar, or NoPattern for an empty slice.
func Latest(patterns []model.Pattern) model.Pattern {
	if len(patterns) == 0 {
		return model.NoPattern
	}
	return patterns[len(patterns)-1]
}
