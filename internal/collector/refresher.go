package collector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/recorder"
)

// TimeframeSpec is one timeframe to download and how many bars to request.
type TimeframeSpec struct {
	Timeframe model.Timeframe
	Bars      int
}

// RefreshReport summarizes a refresh run.
type RefreshReport struct {
	Available []string
	Failed    []string
	Duration  time.Duration
}

// Refresher downloads bar histories into the store and publishes the list of
// assets whose data is complete.
type Refresher struct {
	Fetcher    Fetcher
	Store      recorder.Recorder
	Timeframes []TimeframeSpec
	Symbols    []string // fixed universe; empty means Fetcher.ListAssets
	Exclude    []string // assets containing any of these substrings are skipped
	Retention  time.Duration
	AssetsFile string
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

func (r *Refresher) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Refresh runs one pass over the asset universe. Per-asset failures are
// reported, not returned; the error covers listing and cancellation only.
func (r *Refresher) Refresh(ctx context.Context) (*RefreshReport, error) {
	start := r.now()
	assets, err := r.universe(ctx)
	if err != nil {
		return nil, err
	}

	report := &RefreshReport{}
	for _, asset := range assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Printf("[INFO] refreshing %s", asset)
		if err := r.refreshAsset(ctx, asset); err != nil {
			log.Printf("[WARN] skipping %s: %v", asset, err)
			report.Failed = append(report.Failed, asset)
			continue
		}
		report.Available = append(report.Available, asset)
	}

	if r.AssetsFile != "" {
		if err := WriteAssets(r.AssetsFile, report.Available); err != nil {
			return nil, err
		}
	}

	report.Duration = r.now().Sub(start)
	r.Metrics.ObserveRefresh(report.Duration, len(report.Available), len(report.Failed))
	log.Printf("[INFO] refresh done in %s: %d available, %d failed", report.Duration.Round(time.Millisecond), len(report.Available), len(report.Failed))
	if len(report.Failed) > 0 {
		log.Printf("[INFO] assets unavailable due to missing data: %s", strings.Join(report.Failed, ", "))
	}
	return report, nil
}

func (r *Refresher) universe(ctx context.Context) ([]string, error) {
	assets := r.Symbols
	if len(assets) == 0 {
		listed, err := r.Fetcher.ListAssets(ctx)
		if err != nil {
			return nil, fmt.Errorf("list assets from %s: %w", r.Fetcher.Name(), err)
		}
		assets = listed
	}

	seen := make(map[string]bool, len(assets))
	var out []string
	for _, a := range assets {
		if a == "" || seen[a] || r.excluded(a) {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Refresher) excluded(asset string) bool {
	upper := strings.ToUpper(asset)
	for _, ex := range r.Exclude {
		if ex != "" && strings.Contains(upper, strings.ToUpper(ex)) {
			return true
		}
	}
	return false
}

// refreshAsset downloads every timeframe; the asset is available only if all
// of them succeed and a fresh bar can be fetched on the first timeframe.
func (r *Refresher) refreshAsset(ctx context.Context, asset string) error {
	var failures []string
	for _, spec := range r.Timeframes {
		if err := r.refreshTimeframe(ctx, asset, spec); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", spec.Timeframe, err))
		}
	}
	if len(r.Timeframes) > 0 {
		live, err := r.Fetcher.FetchBars(ctx, asset, r.Timeframes[0].Timeframe, 1)
		if err != nil || len(live) == 0 {
			failures = append(failures, fmt.Sprintf("live: %v", err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%s", strings.Join(failures, "; "))
	}
	return nil
}

func (r *Refresher) refreshTimeframe(ctx context.Context, asset string, spec TimeframeSpec) error {
	bars, err := r.Fetcher.FetchBars(ctx, asset, spec.Timeframe, spec.Bars)
	if err != nil {
		return err
	}
	if r.Retention > 0 {
		bars = trimBefore(bars, r.now().Add(-r.Retention))
	}
	if len(bars) == 0 {
		return model.ErrMissingSeries
	}
	return r.Store.RecordBars(ctx, asset, spec.Timeframe, bars)
}

// trimBefore drops bars at or before cutoff. bars must be chronological.
func trimBefore(bars []model.OHLCV, cutoff time.Time) []model.OHLCV {
	i := sort.Search(len(bars), func(i int) bool { return bars[i].Time.After(cutoff) })
	return bars[i:]
}
