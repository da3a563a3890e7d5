package recorder

import (
	"context"

	"SignalSentinel/internal/model"
)

// Recorder persists flat bar histories and serves them back as series.
type Recorder interface {
	// RecordBars replaces the stored history of asset on tf with bars.
	RecordBars(ctx context.Context, asset string, tf model.Timeframe, bars []model.OHLCV) error
	// LoadSeries returns the stored history in chronological order, or an
	// error wrapping model.ErrMissingSeries.
	LoadSeries(ctx context.Context, asset string, tf model.Timeframe) (*model.Series, error)
	// Assets lists the assets with stored bars on tf, sorted.
	Assets(ctx context.Context, tf model.Timeframe) ([]string, error)
	Close() error
}
