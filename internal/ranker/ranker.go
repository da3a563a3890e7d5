package ranker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
)

// Evaluator produces the decision for a single asset.
type Evaluator interface {
	Evaluate(ctx context.Context, asset string) (*model.Decision, error)
}

// Ranker runs an Evaluator across assets and picks the highest confidence.
type Ranker struct {
	Eval    Evaluator
	Workers int
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// New creates a Ranker. workers <= 0 evaluates one asset at a time.
func New(eval Evaluator, workers int, m *metrics.Metrics) *Ranker {
	return &Ranker{Eval: eval, Workers: workers, Metrics: m}
}

type outcome struct {
	decision *model.Decision
	err      error
}

// Rank evaluates every asset and reduces in list order. A later asset only
// replaces the best pick with a strictly greater confidence. Per-asset
// failures are collected in the result; ErrInvalidConfig aborts the pass.
func (r *Ranker) Rank(ctx context.Context, assets []string) (*model.RankResult, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	res := &model.RankResult{RunID: uuid.NewString(), StartedAt: now()}
	log.Printf("[INFO] rank %s: evaluating %d assets", res.ShortID(), len(assets))

	outcomes := make([]outcome, len(assets))
	g, gctx := errgroup.WithContext(ctx)
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, asset := range assets {
		i, asset := i, asset
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			d, err := r.Eval.Evaluate(gctx, asset)
			if errors.Is(err, model.ErrInvalidConfig) {
				return fmt.Errorf("evaluate %s: %w", asset, err)
			}
			outcomes[i] = outcome{decision: d, err: err}
			label := "failed"
			if err == nil {
				label = strings.ToLower(string(d.Action))
			}
			r.Metrics.ObserveEvaluation(label, time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, o := range outcomes {
		if o.err != nil {
			logFailure(assets[i], o.err)
			res.Failures = append(res.Failures, model.AssetFailure{Asset: assets[i], Err: o.err})
			continue
		}
		res.Decisions = append(res.Decisions, *o.decision)
		if res.Best == nil || o.decision.Confidence > res.Best.Confidence {
			res.Best = o.decision
		}
	}

	res.Duration = now().Sub(res.StartedAt)
	if res.Best != nil {
		r.Metrics.ObserveRankPass(res.Duration, res.Best.Confidence, true)
		log.Printf("[INFO] rank %s: best %s %s confidence=%d (%d ok, %d failed)",
			res.ShortID(), res.Best.Asset, res.Best.Action, res.Best.Confidence,
			len(res.Decisions), len(res.Failures))
	} else {
		r.Metrics.ObserveRankPass(res.Duration, 0, false)
		log.Printf("[INFO] rank %s: no confident decision (%d failed)", res.ShortID(), len(res.Failures))
	}
	return res, nil
}

// Options configures the package-level Rank.
type Options struct {
	Timeframe model.Timeframe
	MinBars   int
	Workers   int
	Strategy  strategy.Config
}

// Rank runs a single pass over assets reading history from provider.
// A zero Options.Strategy uses the default thresholds.
func Rank(ctx context.Context, assets []string, provider collector.SeriesProvider, opts Options) (*model.RankResult, error) {
	cfg := opts.Strategy
	if cfg == (strategy.Config{}) {
		cfg = strategy.DefaultConfig()
	}
	engine, err := strategy.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	tf := opts.Timeframe
	if tf == "" {
		tf = model.TimeframeM1
	}
	c := collector.NewCollector(provider, engine, tf, opts.MinBars)
	return New(c, opts.Workers, nil).Rank(ctx, assets)
}

func logFailure(asset string, err error) {
	switch {
	case errors.Is(err, model.ErrMalformedBar):
		log.Printf("[ERROR] %s: %v", asset, err)
	default:
		log.Printf("[WARN] skipping %s: %v", asset, err)
	}
}
