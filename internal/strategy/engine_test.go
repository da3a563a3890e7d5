package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

// buildFrame places rec as the last row after len(atrHistory) rows that only
// carry ATR values, so the whole-series ATR mean can be controlled.
func buildFrame(rec model.IndicatorRecord, atrHistory ...float64) (*model.IndicatorFrame, *model.Series) {
	n := len(atrHistory) + 1
	nan := math.NaN()
	f := &model.IndicatorFrame{}
	s := &model.Series{Asset: "EURUSD", Timeframe: model.TimeframeM1}
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		r := model.IndicatorRecord{
			Close: 1, MA20: nan, MA50: nan, RSI14: nan, MACD: nan, SignalLine: nan,
			UpperBB: nan, LowerBB: nan, Stochastic: nan, StochasticSignal: nan,
		}
		if i < n-1 {
			r.ATR14 = atrHistory[i]
		} else {
			r = rec
		}
		f.Close = append(f.Close, r.Close)
		f.MA20 = append(f.MA20, r.MA20)
		f.MA50 = append(f.MA50, r.MA50)
		f.RSI14 = append(f.RSI14, r.RSI14)
		f.MACD = append(f.MACD, r.MACD)
		f.SignalLine = append(f.SignalLine, r.SignalLine)
		f.ATR14 = append(f.ATR14, r.ATR14)
		f.UpperBB = append(f.UpperBB, r.UpperBB)
		f.LowerBB = append(f.LowerBB, r.LowerBB)
		f.Stochastic = append(f.Stochastic, r.Stochastic)
		f.StochasticSignal = append(f.StochasticSignal, r.StochasticSignal)
		f.Pattern = append(f.Pattern, r.Pattern)
		s.Bars = append(s.Bars, model.OHLCV{
			Time: start.Add(time.Duration(i) * time.Minute), Open: r.Close, High: r.Close, Low: r.Close, Close: r.Close,
		})
	}
	return f, s
}

func mustEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestDecide_ScenarioA_Call(t *testing.T) {
	rec := model.IndicatorRecord{
		Close: 1.0950, RSI14: 25, MA20: 1.1010, MA50: 1.1000,
		MACD: 0.0004, SignalLine: 0.0001, UpperBB: 1.1100, LowerBB: 1.1000,
		Stochastic: 15, StochasticSignal: 18, ATR14: 0.0008,
		Pattern: model.BullishEngulfing,
	}
	f, s := buildFrame(rec, 0.0010, 0.0012, 0.0011)
	d, err := mustEngine(t, DefaultConfig()).Decide(f, f.Pattern, s)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Confidence != 6 {
		t.Errorf("expected confidence 6, got %d (%+v)", d.Confidence, d.Rules)
	}
	if d.Action != model.ActionCall {
		t.Errorf("expected CALL, got %s", d.Action)
	}
	if d.Asset != "EURUSD" || d.Price != 1.0950 {
		t.Errorf("unexpected identity fields: %+v", d)
	}
	if len(d.Rules) != 7 {
		t.Errorf("expected 7 rule scores, got %d", len(d.Rules))
	}
}

func TestDecide_ScenarioB_Put(t *testing.T) {
	rec := model.IndicatorRecord{
		Close: 1.1200, RSI14: 75, MA20: 1.1000, MA50: 1.1050,
		MACD: -0.0004, SignalLine: -0.0001, UpperBB: 1.1150, LowerBB: 1.1000,
		Stochastic: 85, StochasticSignal: 82, ATR14: 0.0020,
		Pattern: model.BearishEngulfing,
	}
	f, s := buildFrame(rec, 0.0010, 0.0012, 0.0011)
	d, err := mustEngine(t, DefaultConfig()).Decide(f, f.Pattern, s)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Confidence != -7 {
		t.Errorf("expected confidence -7, got %d (%+v)", d.Confidence, d.Rules)
	}
	if d.Action != model.ActionPut {
		t.Errorf("expected PUT, got %s", d.Action)
	}
}

func TestDecide_ScenarioC_Neutral(t *testing.T) {
	rec := model.IndicatorRecord{
		Close: 1.1000, RSI14: 50, MA20: 1.1000, MA50: 1.1000,
		MACD: 0.0002, SignalLine: 0.0002, UpperBB: 1.1050, LowerBB: 1.0950,
		Stochastic: 50, StochasticSignal: 50, ATR14: 0.5,
		Pattern: model.NoPattern,
	}
	// ATR history averaging exactly to the last value.
	f, s := buildFrame(rec, 0.25, 0.75)
	d, err := mustEngine(t, DefaultConfig()).Decide(f, f.Pattern, s)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Confidence != 0 || d.Action != model.ActionNoAction {
		t.Errorf("expected 0/NO_ACTION, got %d/%s (%+v)", d.Confidence, d.Action, d.Rules)
	}
}

func TestDecide_FlatMarketIsNeutral(t *testing.T) {
	engine := mustEngine(t, DefaultConfig())
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for _, price := range []float64{0.1, 0.7, 1.1, 1.2345, 3.3, 107.31} {
		s := &model.Series{Asset: "FLAT", Timeframe: model.TimeframeM1, Bars: make([]model.OHLCV, 200)}
		for i := range s.Bars {
			s.Bars[i] = model.OHLCV{Time: start.Add(time.Duration(i) * time.Minute), Open: price, High: price, Low: price, Close: price}
		}
		f, err := calculator.ComputeIndicators(s)
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		d, err := engine.Decide(f, f.Pattern, s)
		if err != nil {
			t.Fatalf("decide: %v", err)
		}
		if d.Confidence != 0 || d.Action != model.ActionNoAction {
			t.Errorf("price %v: expected 0/NO_ACTION, got %d/%s (%+v)", price, d.Confidence, d.Action, d.Rules)
		}
		for _, r := range d.Rules {
			if r.Score != 0 {
				t.Errorf("price %v: rule %s voted %d", price, r.Name, r.Score)
			}
		}
	}
}

func TestDecide_UndefinedContributesZero(t *testing.T) {
	nan := math.NaN()
	rec := model.IndicatorRecord{
		Close: 1.1, RSI14: nan, MA20: nan, MA50: 1.0, MACD: nan, SignalLine: 0,
		UpperBB: nan, LowerBB: nan, Stochastic: nan, StochasticSignal: nan, ATR14: nan,
	}
	f, s := buildFrame(rec)
	d, err := mustEngine(t, DefaultConfig()).Decide(f, f.Pattern, s)
	if err != nil {
		t.Fatalf("undefined indicators must not fail: %v", err)
	}
	if d.Confidence != 0 {
		t.Errorf("expected 0, got %d", d.Confidence)
	}
	for _, r := range d.Rules {
		if r.Score != 0 {
			t.Errorf("rule %s contributed %d with undefined inputs", r.Name, r.Score)
		}
	}
}

func TestDecide_VolatilityOnlySubtracts(t *testing.T) {
	neutral := model.IndicatorRecord{
		Close: 1, RSI14: 50, MA20: 1, MA50: 1, MACD: 0, SignalLine: 0,
		UpperBB: 2, LowerBB: 0, Stochastic: 50, StochasticSignal: 50,
	}

	low := neutral
	low.ATR14 = 0.1
	f, s := buildFrame(low, 5, 5, 5)
	d, _ := mustEngine(t, DefaultConfig()).Decide(f, f.Pattern, s)
	if d.Confidence != 0 {
		t.Errorf("low volatility must not add confidence, got %d", d.Confidence)
	}

	high := neutral
	high.ATR14 = 9
	f, s = buildFrame(high, 1, 1, 1)
	d, _ = mustEngine(t, DefaultConfig()).Decide(f, f.Pattern, s)
	if d.Confidence != -1 {
		t.Errorf("high volatility should subtract 1, got %d", d.Confidence)
	}
}

func TestDecide_ConfidenceBounds(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	values := []float64{-1, 10, 50, 90, math.NaN()}
	patterns := []model.Pattern{model.NoPattern, model.BullishEngulfing, model.BearishEngulfing}
	for _, rsi := range values {
		for _, stoch := range values {
			for _, ma := range values {
				for _, p := range patterns {
					rec := model.IndicatorRecord{
						Close: 50, RSI14: rsi, MA20: ma, MA50: 50, MACD: ma, SignalLine: 50,
						UpperBB: stoch, LowerBB: rsi, Stochastic: stoch, ATR14: 1, Pattern: p,
					}
					f, s := buildFrame(rec, 3)
					d, err := e.Decide(f, f.Pattern, s)
					if err != nil {
						t.Fatalf("decide: %v", err)
					}
					withoutATR := d.Confidence - d.Rules[6].Score
					if withoutATR < -6 || withoutATR > 6 {
						t.Fatalf("confidence before ATR out of bounds: %d", withoutATR)
					}
					if atr := d.Rules[6].Score; atr != 0 && atr != -1 {
						t.Fatalf("ATR rule contributed %d", atr)
					}
				}
			}
		}
	}
}

func TestDecide_Weights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.RSI = 2
	cfg.Weights.Pattern = 0
	rec := model.IndicatorRecord{
		Close: 1, RSI14: 20, MA20: 1, MA50: 1, MACD: 0, SignalLine: 0,
		UpperBB: 2, LowerBB: 0, Stochastic: 50, ATR14: 1, Pattern: model.BullishEngulfing,
	}
	f, s := buildFrame(rec, 1)
	d, _ := mustEngine(t, cfg).Decide(f, f.Pattern, s)
	if d.Confidence != 2 {
		t.Errorf("expected weighted confidence 2, got %d", d.Confidence)
	}
}

func TestDecide_Errors(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	if _, err := e.Decide(&model.IndicatorFrame{}, nil, &model.Series{}); !errors.Is(err, model.ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got %v", err)
	}
	f, s := buildFrame(model.IndicatorRecord{Close: 1}, 1, 2)
	s.Bars = s.Bars[1:]
	if _, err := e.Decide(f, f.Pattern, s); !errors.Is(err, model.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig on misaligned frame, got %v", err)
	}
}

func TestMapAction_Boundaries(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		confidence int
		want       model.Action
	}{
		{7, model.ActionCall},
		{3, model.ActionCall},
		{2, model.ActionNoAction},
		{0, model.ActionNoAction},
		{-2, model.ActionNoAction},
		{-3, model.ActionPut},
		{-7, model.ActionPut},
	}
	for _, tt := range tests {
		if got := cfg.MapAction(tt.confidence); got != tt.want {
			t.Errorf("confidence %d: expected %s, got %s", tt.confidence, tt.want, got)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []func(*Config){
		func(c *Config) { c.CallThreshold = -3 },
		func(c *Config) { c.RSIOversold = 80 },
		func(c *Config) { c.StochOverbought = 10 },
		func(c *Config) { c.Weights.MACD = -1 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if _, err := NewEngine(cfg); !errors.Is(err, model.ErrInvalidConfig) {
			t.Errorf("case %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
}
