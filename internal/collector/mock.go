package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"SignalSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Assets []string
	Data   map[string][]model.OHLCV // keyed by symbol; overrides generated bars
	Errs   map[string]error         // keyed by symbol
	Now    func() time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error) {
	if err := m.Errs[symbol]; err != nil {
		return nil, err
	}
	if bars, ok := m.Data[symbol]; ok {
		if count > 0 && len(bars) > count {
			bars = bars[len(bars)-count:]
		}
		return bars, nil
	}
	step := tf.Duration()
	if step == 0 {
		return nil, fmt.Errorf("%w: unknown timeframe %q", model.ErrInvalidConfig, tf)
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return generateMockBars(m.Price, count, step, now()), nil
}

func (m *MockFetcher) ListAssets(_ context.Context) ([]string, error) {
	return append([]string(nil), m.Assets...), nil
}

// generateMockBars produces count oscillating bars ending at the last full
// step before end.
func generateMockBars(basePrice float64, count int, step time.Duration, end time.Time) []model.OHLCV {
	last := end.Truncate(step)
	bars := make([]model.OHLCV, count)
	prev := basePrice
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.01*math.Sin(float64(i)/9) + 0.002*math.Cos(float64(i)/2))
		bars[i] = model.OHLCV{
			Time:   last.Add(-time.Duration(count-1-i) * step),
			Open:   prev,
			High:   math.Max(prev, p) * 1.0005,
			Low:    math.Min(prev, p) * 0.9995,
			Close:  p,
			Volume: 1000,
		}
		prev = p
	}
	return bars
}
