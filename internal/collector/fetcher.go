package collector

import (
	"context"

	"SignalSentinel/internal/model"
)

// Fetcher downloads bars from a remote market data source.
type Fetcher interface {
	// FetchBars returns up to count most recent bars, oldest first.
	FetchBars(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error)
	// ListAssets returns the symbols currently tradable on the source.
	ListAssets(ctx context.Context) ([]string, error)
	Name() string
}

// SeriesProvider supplies the bar history for one asset and timeframe.
type SeriesProvider interface {
	LoadSeries(ctx context.Context, asset string, tf model.Timeframe) (*model.Series, error)
}

// LiveProvider adapts a Fetcher into a SeriesProvider by downloading Bars
// bars on every call.
type LiveProvider struct {
	Fetcher Fetcher
	Bars    int
}

func (p *LiveProvider) LoadSeries(ctx context.Context, asset string, tf model.Timeframe) (*model.Series, error) {
	bars, err := p.Fetcher.FetchBars(ctx, asset, tf, p.Bars)
	if err != nil {
		return nil, err
	}
	return &model.Series{Asset: asset, Timeframe: tf, Bars: bars}, nil
}
