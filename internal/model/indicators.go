package model

import "math"

// Pattern is a two-bar candlestick classification.
type Pattern int

const (
	NoPattern Pattern = iota
	BullishEngulfing
	BearishEngulfing
)

func (p Pattern) String() string {
	switch p {
	case BullishEngulfing:
		return "BullishEngulfing"
	case BearishEngulfing:
		return "BearishEngulfing"
	default:
		return "NoPattern"
	}
}

// Direction is +1 for bullish patterns, -1 for bearish ones and 0 otherwise.
func (p Pattern) Direction() int {
	switch p {
	case BullishEngulfing:
		return 1
	case BearishEngulfing:
		return -1
	default:
		return 0
	}
}

// IndicatorFrame holds indicator columns aligned 1:1 with a Series.
// Entries without enough history are NaN.
type IndicatorFrame struct {
	Close            []float64
	MA20             []float64
	MA50             []float64
	RSI14            []float64
	MACD             []float64
	SignalLine       []float64
	ATR14            []float64
	UpperBB          []float64
	LowerBB          []float64
	Stochastic       []float64
	StochasticSignal []float64
	Pattern          []Pattern
}

// IndicatorRecord is one row of an IndicatorFrame.
type IndicatorRecord struct {
	Close            float64
	MA20             float64
	MA50             float64
	RSI14            float64
	MACD             float64
	SignalLine       float64
	ATR14            float64
	UpperBB          float64
	LowerBB          float64
	Stochastic       float64
	StochasticSignal float64
	Pattern          Pattern
}

func (f *IndicatorFrame) Len() int { return len(f.Close) }

// At returns row i.
func (f *IndicatorFrame) At(i int) IndicatorRecord {
	r := IndicatorRecord{
		Close:            f.Close[i],
		MA20:             f.MA20[i],
		MA50:             f.MA50[i],
		RSI14:            f.RSI14[i],
		MACD:             f.MACD[i],
		SignalLine:       f.SignalLine[i],
		ATR14:            f.ATR14[i],
		UpperBB:          f.UpperBB[i],
		LowerBB:          f.LowerBB[i],
		Stochastic:       f.Stochastic[i],
		StochasticSignal: f.StochasticSignal[i],
	}
	if i < len(f.Pattern) {
		r.Pattern = f.Pattern[i]
	}
	return r
}

// Last returns the most recent row. The frame must not be empty.
func (f *IndicatorFrame) Last() IndicatorRecord { return f.At(f.Len() - 1) }

// MeanATR averages the defined ATR values; NaN if there are none.
func (f *IndicatorFrame) MeanATR() float64 {
	sum, n := 0.0, 0
	for _, v := range f.ATR14 {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
