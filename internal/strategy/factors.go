package strategy

import (
	"fmt"
	"math"

	"SignalSentinel/internal/model"
)

// Each rule votes +1 (bullish), -1 (bearish) or 0 before weighting. A vote
// whose comparison involves an undefined value is 0.

func defined(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

func sign(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func scoreRSI(r model.IndicatorRecord, c Config) model.RuleScore {
	s := model.RuleScore{Name: "RSI"}
	if !defined(r.RSI14) {
		s.Commentary = "undefined"
		return s
	}
	switch {
	case r.RSI14 < c.RSIOversold:
		s.Score = 1
	case r.RSI14 > c.RSIOverbought:
		s.Score = -1
	}
	s.Score *= c.Weights.RSI
	s.Commentary = fmt.Sprintf("RSI=%.1f", r.RSI14)
	return s
}

func scoreTrend(r model.IndicatorRecord, c Config) model.RuleScore {
	s := model.RuleScore{Name: "MA20/MA50"}
	if !defined(r.MA20, r.MA50) {
		s.Commentary = "undefined"
		return s
	}
	s.Score = sign(r.MA20, r.MA50) * c.Weights.Trend
	s.Commentary = fmt.Sprintf("MA20=%.5f MA50=%.5f", r.MA20, r.MA50)
	return s
}

func scoreMACD(r model.IndicatorRecord, c Config) model.RuleScore {
	s := model.RuleScore{Name: "MACD"}
	if !defined(r.MACD, r.SignalLine) {
		s.Commentary = "undefined"
		return s
	}
	s.Score = sign(r.MACD, r.SignalLine) * c.Weights.MACD
	s.Commentary = fmt.Sprintf("MACD=%.5f signal=%.5f", r.MACD, r.SignalLine)
	return s
}

func scoreBollinger(r model.IndicatorRecord, c Config) model.RuleScore {
	s := model.RuleScore{Name: "Bollinger"}
	if !defined(r.Close, r.UpperBB, r.LowerBB) {
		s.Commentary = "undefined"
		return s
	}
	switch {
	case r.Close < r.LowerBB:
		s.Score = 1
		s.Commentary = "below lower band"
	case r.Close > r.UpperBB:
		s.Score = -1
		s.Commentary = "above upper band"
	default:
		s.Commentary = "inside bands"
	}
	s.Score *= c.Weights.Bollinger
	return s
}

func scoreStochastic(r model.IndicatorRecord, c Config) model.RuleScore {
	s := model.RuleScore{Name: "Stochastic"}
	if !defined(r.Stochastic) {
		s.Commentary = "undefined"
		return s
	}
	switch {
	case r.Stochastic < c.StochOversold:
		s.Score = 1
	case r.Stochastic > c.StochOverbought:
		s.Score = -1
	}
	s.Score *= c.Weights.Stochastic
	s.Commentary = fmt.Sprintf("%%K=%.1f", r.Stochastic)
	return s
}

func scorePattern(p model.Pattern, c Config) model.RuleScore {
	return model.RuleScore{
		Name:       "Pattern",
		Score:      p.Direction() * c.Weights.Pattern,
		Commentary: p.String(),
	}
}

// scoreVolatility penalizes an ATR above its series mean. It never adds.
func scoreVolatility(atr, meanATR float64, c Config) model.RuleScore {
	s := model.RuleScore{Name: "ATR"}
	if !defined(atr, meanATR) {
		s.Commentary = "undefined"
		return s
	}
	if atr > meanATR {
		s.Score = -c.Weights.Volatility
	}
	s.Commentary = fmt.Sprintf("ATR=%.5f mean=%.5f", atr, meanATR)
	return s
}
