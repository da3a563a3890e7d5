package strategy

import (
	"fmt"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/pattern"
)

// Engine turns the latest indicator record into a scored decision.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// MapAction maps a confidence score to an action.
func (c Config) MapAction(confidence int) model.Action {
	switch {
	case confidence >= c.CallThreshold:
		return model.ActionCall
	case confidence <= c.PutThreshold:
		return model.ActionPut
	default:
		return model.ActionNoAction
	}
}

// Decide scores the last record of frame. patterns supplies the latest
// candlestick pattern and series the asset identity; the ATR rule compares
// against the mean ATR of the whole frame.
func (e *Engine) Decide(frame *model.IndicatorFrame, patterns []model.Pattern, series *model.Series) (*model.Decision, error) {
	if frame == nil || frame.Len() == 0 {
		return nil, fmt.Errorf("decide: %w: empty indicator frame", model.ErrInsufficientHistory)
	}
	if series.Len() != frame.Len() {
		return nil, fmt.Errorf("decide: %w: frame has %d rows for %d bars", model.ErrInvalidConfig, frame.Len(), series.Len())
	}

	last := frame.Last()
	rules := []model.RuleScore{
		scoreRSI(last, e.cfg),
		scoreTrend(last, e.cfg),
		scoreMACD(last, e.cfg),
		scoreBollinger(last, e.cfg),
		scoreStochastic(last, e.cfg),
		scorePattern(pattern.Latest(patterns), e.cfg),
		scoreVolatility(last.ATR14, frame.MeanATR(), e.cfg),
	}

	confidence := 0
	for _, r := range rules {
		confidence += r.Score
	}

	bar := series.Last()
	return &model.Decision{
		Asset:      series.Asset,
		Timeframe:  series.Timeframe,
		Action:     e.cfg.MapAction(confidence),
		Confidence: confidence,
		Rules:      rules,
		Price:      bar.Close,
		BarTime:    bar.Time,
	}, nil
}
