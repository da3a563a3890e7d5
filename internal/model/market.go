package model

import (
	"fmt"
	"math"
	"time"
)

// Timeframe names the bar interval of a series, e.g. "M1" or "H1".
type Timeframe string

const (
	TimeframeM1 Timeframe = "M1"
	TimeframeM5 Timeframe = "M5"
	TimeframeH1 Timeframe = "H1"
	TimeframeD1 Timeframe = "D1"
)

// Duration returns the bar length, or 0 for an unknown timeframe.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TimeframeM1:
		return time.Minute
	case TimeframeM5:
		return 5 * time.Minute
	case TimeframeH1:
		return time.Hour
	case TimeframeD1:
		return 24 * time.Hour
	default:
		return 0
	}
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate reports whether the bar is structurally sound.
func (b OHLCV) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at %s", ErrMalformedBar, b.Time.Format(time.RFC3339))
		}
	}
	if b.High < b.Low {
		return fmt.Errorf("%w: high %.5f below low %.5f at %s", ErrMalformedBar, b.High, b.Low, b.Time.Format(time.RFC3339))
	}
	if b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("%w: open/close outside range at %s", ErrMalformedBar, b.Time.Format(time.RFC3339))
	}
	return nil
}

// Series is the ordered bar history of one asset on one timeframe.
type Series struct {
	Asset     string
	Timeframe Timeframe
	Bars      []OHLCV
}

func (s *Series) Len() int { return len(s.Bars) }

// Validate checks every bar and that timestamps strictly increase. Failures
// wrap ErrMalformedBar, not ErrInvalidConfig: a bad bar is data from one
// asset's feed, so callers drop that asset and keep ranking the rest.
func (s *Series) Validate() error {
	for i, b := range s.Bars {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%s bar %d: %w", s.Asset, i, err)
		}
		if i > 0 && !b.Time.After(s.Bars[i-1].Time) {
			return fmt.Errorf("%s bar %d: %w: timestamp %s not after %s", s.Asset, i, ErrMalformedBar,
				b.Time.Format(time.RFC3339), s.Bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes returns the close column.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Last returns the most recent bar. The series must not be empty.
func (s *Series) Last() OHLCV { return s.Bars[len(s.Bars)-1] }
