package collector

import (
	"context"
	"fmt"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
)

// Collector runs the per-asset pipeline: load series, compute indicators,
// classify patterns and score a decision.
type Collector struct {
	Provider  SeriesProvider
	Engine    *strategy.Engine
	Params    calculator.Params
	Timeframe model.Timeframe
	MinBars   int
}

// NewCollector creates a Collector with the standard indicator windows.
// minBars <= 0 requires just enough history for every indicator.
func NewCollector(provider SeriesProvider, engine *strategy.Engine, tf model.Timeframe, minBars int) *Collector {
	params := calculator.DefaultParams()
	if minBars <= 0 {
		minBars = params.MaxWindow()
	}
	return &Collector{
		Provider:  provider,
		Engine:    engine,
		Params:    params,
		Timeframe: tf,
		MinBars:   minBars,
	}
}

// Evaluate produces the decision for one asset.
func (c *Collector) Evaluate(ctx context.Context, asset string) (*model.Decision, error) {
	series, err := c.Provider.LoadSeries(ctx, asset, c.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	if series.Len() < c.MinBars {
		return nil, fmt.Errorf("%w: %d bars, need %d", model.ErrInsufficientHistory, series.Len(), c.MinBars)
	}

	frame, err := calculator.ComputeIndicatorsWith(series, c.Params)
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}
	return c.Engine.Decide(frame, frame.Pattern, series)
}
