package strategy

import (
	"fmt"

	"SignalSentinel/internal/model"
)

// Weights scales each rule's ±1 vote. A zero weight disables the rule.
type Weights struct {
	RSI        int `yaml:"rsi"`
	Trend      int `yaml:"trend"`
	MACD       int `yaml:"macd"`
	Bollinger  int `yaml:"bollinger"`
	Stochastic int `yaml:"stochastic"`
	Pattern    int `yaml:"pattern"`
	Volatility int `yaml:"volatility"`
}

// Config holds the scoring levels and action thresholds.
type Config struct {
	CallThreshold   int     `yaml:"call_threshold"`
	PutThreshold    int     `yaml:"put_threshold"`
	RSIOversold     float64 `yaml:"rsi_oversold"`
	RSIOverbought   float64 `yaml:"rsi_overbought"`
	StochOversold   float64 `yaml:"stochastic_oversold"`
	StochOverbought float64 `yaml:"stochastic_overbought"`
	Weights         Weights `yaml:"weights"`
}

// DefaultConfig returns the standard policy: ±3 thresholds, RSI 30/70,
// stochastic 20/80, every rule weighted 1.
func DefaultConfig() Config {
	return Config{
		CallThreshold:   3,
		PutThreshold:    -3,
		RSIOversold:     30,
		RSIOverbought:   70,
		StochOversold:   20,
		StochOverbought: 80,
		Weights: Weights{
			RSI: 1, Trend: 1, MACD: 1, Bollinger: 1,
			Stochastic: 1, Pattern: 1, Volatility: 1,
		},
	}
}

// Validate checks threshold ordering and weight signs.
func (c Config) Validate() error {
	if c.CallThreshold <= c.PutThreshold {
		return fmt.Errorf("%w: call threshold %d must exceed put threshold %d", model.ErrInvalidConfig, c.CallThreshold, c.PutThreshold)
	}
	if c.RSIOversold >= c.RSIOverbought {
		return fmt.Errorf("%w: rsi oversold %.1f must be below overbought %.1f", model.ErrInvalidConfig, c.RSIOversold, c.RSIOverbought)
	}
	if c.StochOversold >= c.StochOverbought {
		return fmt.Errorf("%w: stochastic oversold %.1f must be below overbought %.1f", model.ErrInvalidConfig, c.StochOversold, c.StochOverbought)
	}
	w := c.Weights
	for _, v := range []int{w.RSI, w.Trend, w.MACD, w.Bollinger, w.Stochastic, w.Pattern, w.Volatility} {
		if v < 0 {
			return fmt.Errorf("%w: rule weights must not be negative", model.ErrInvalidConfig)
		}
	}
	return nil
}
