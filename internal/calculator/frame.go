package calculator

import (
	"fmt"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/pattern"
)

// Params holds the indicator windows.
type Params struct {
	FastMA      int
	SlowMA      int
	RSIPeriod   int
	MACDFast    int
	MACDSlow    int
	MACDSignal  int
	ATRPeriod   int
	BollingerN  int
	BollingerK  float64
	StochasticK int
	StochasticD int
}

// DefaultParams are the standard windows: MA20/MA50, RSI14, MACD 12/26/9,
// ATR14, Bollinger 20×2, Stochastic 14/3.
func DefaultParams() Params {
	return Params{
		FastMA:      20,
		SlowMA:      50,
		RSIPeriod:   14,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		ATRPeriod:   14,
		BollingerN:  20,
		BollingerK:  2,
		StochasticK: 14,
		StochasticD: 3,
	}
}

// Validate rejects non-positive windows.
func (p Params) Validate() error {
	windows := map[string]int{
		"fast_ma": p.FastMA, "slow_ma": p.SlowMA, "rsi": p.RSIPeriod,
		"macd_fast": p.MACDFast, "macd_slow": p.MACDSlow, "macd_signal": p.MACDSignal,
		"atr": p.ATRPeriod, "bollinger": p.BollingerN,
		"stochastic_k": p.StochasticK, "stochastic_d": p.StochasticD,
	}
	for name, w := range windows {
		if w <= 0 {
			return fmt.Errorf("%w: %s window must be positive, got %d", model.ErrInvalidConfig, name, w)
		}
	}
	if p.BollingerK <= 0 {
		return fmt.Errorf("%w: bollinger multiplier must be positive", model.ErrInvalidConfig)
	}
	return nil
}

// MaxWindow is the longest lookback, the history needed for every column to
// be defined at the last bar.
func (p Params) MaxWindow() int {
	m := 0
	for _, w := range []int{p.FastMA, p.SlowMA, p.RSIPeriod + 1, p.ATRPeriod + 1, p.BollingerN, p.StochasticK + p.StochasticD - 1} {
		if w > m {
			m = w
		}
	}
	return m
}

// ComputeIndicators derives the standard indicator frame for a series.
func ComputeIndicators(series *model.Series) (*model.IndicatorFrame, error) {
	return ComputeIndicatorsWith(series, DefaultParams())
}

// ComputeIndicatorsWith derives the indicator frame using p. Short series
// produce NaN columns rather than an error; malformed bars and invalid
// windows are errors.
func ComputeIndicatorsWith(series *model.Series, p Params) (*model.IndicatorFrame, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	closes := series.Closes()
	f := &model.IndicatorFrame{Close: closes}
	var err error

	if f.MA20, f.MA50, err = MovingAverages(closes, p.FastMA, p.SlowMA); err != nil {
		return nil, fmt.Errorf("moving averages: %w", err)
	}
	if f.RSI14, err = RSI(closes, p.RSIPeriod); err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	if f.MACD, f.SignalLine, err = MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal); err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	if f.ATR14, err = ATR(series.Bars, p.ATRPeriod); err != nil {
		return nil, fmt.Errorf("atr: %w", err)
	}
	if f.UpperBB, _, f.LowerBB, err = Bollinger(closes, p.BollingerN, p.BollingerK); err != nil {
		return nil, fmt.Errorf("bollinger: %w", err)
	}
	if f.Stochastic, f.StochasticSignal, err = Stochastic(series.Bars, p.StochasticK, p.StochasticD); err != nil {
		return nil, fmt.Errorf("stochastic: %w", err)
	}
	f.Pattern = pattern.Classify(series.Bars)

	return f, nil
}
