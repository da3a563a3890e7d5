package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/ranker"
	"SignalSentinel/internal/recorder"

	"github.com/robfig/cron/v3"
)

// ErrBusy is returned when a job of the same kind is already running.
var ErrBusy = errors.New("job already running")

// Sender delivers formatted reports. *notifier.TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Ranker     *ranker.Ranker
	Refresher  *collector.Refresher
	Store      recorder.Recorder
	Notifier   Sender // nil disables notifications
	Health     *metrics.HealthStatus
	AssetsFile string
	Ctx        context.Context

	rankMu    sync.Mutex
	refreshMu sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, rk *ranker.Ranker, ref *collector.Refresher, store recorder.Recorder, sender Sender) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(logger))),
		Collector: col,
		Ranker:    rk,
		Refresher: ref,
		Store:     store,
		Notifier:  sender,
		Ctx:       ctx,
	}
}

// RegisterAll registers the refresh and ranking jobs.
func (s *Scheduler) RegisterAll(refreshCron, rankCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(rankCron, s.rankTask); err != nil {
		return fmt.Errorf("register rank task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow downloads bars immediately and sends the summary.
func (s *Scheduler) RunRefreshNow() (*collector.RefreshReport, error) {
	report, err := s.refresh(s.Ctx)
	if err != nil {
		return nil, err
	}
	s.trySend(notifier.FormatRefreshReport(report))
	return report, nil
}

// RunRankNow executes a ranking pass immediately and sends the report.
func (s *Scheduler) RunRankNow() (*model.RankResult, error) {
	res, err := s.rank(s.Ctx)
	if err != nil {
		return nil, err
	}
	s.trySend(notifier.FormatRankReport(res))
	return res, nil
}

func (s *Scheduler) refreshTask() {
	log.Println("[INFO] running refresh task")
	if _, err := s.RunRefreshNow(); err != nil {
		log.Printf("[ERROR] refresh: %v", err)
	}
}

func (s *Scheduler) rankTask() {
	log.Println("[INFO] running rank task")
	if _, err := s.RunRankNow(); err != nil {
		log.Printf("[ERROR] rank: %v", err)
		s.trySend(fmt.Sprintf("❌ Rank pass failed: %v", err))
	}
}

func (s *Scheduler) refresh(ctx context.Context) (*collector.RefreshReport, error) {
	if s.Refresher == nil {
		return nil, errors.New("refresh not configured")
	}
	if !s.refreshMu.TryLock() {
		return nil, fmt.Errorf("refresh: %w", ErrBusy)
	}
	defer s.refreshMu.Unlock()

	report, err := s.Refresher.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	s.Health.SetLastRefresh(time.Now())
	return report, nil
}

func (s *Scheduler) rank(ctx context.Context) (*model.RankResult, error) {
	if !s.rankMu.TryLock() {
		return nil, fmt.Errorf("rank: %w", ErrBusy)
	}
	defer s.rankMu.Unlock()

	assets, err := s.assets(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.Ranker.Rank(ctx, assets)
	if err != nil {
		return nil, err
	}
	s.Health.SetLastRank(time.Now())
	return res, nil
}

// assets reads the published asset list, falling back to whatever the bar
// store holds for the ranking timeframe.
func (s *Scheduler) assets(ctx context.Context) ([]string, error) {
	if s.AssetsFile != "" {
		assets, err := collector.ReadAssets(s.AssetsFile)
		switch {
		case err == nil && len(assets) > 0:
			return assets, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}
	return s.Store.Assets(ctx, s.Collector.Timeframe)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/rank":
		res, err := s.rank(ctx)
		if err != nil {
			return fmt.Sprintf("❌ Rank pass failed: %v", err)
		}
		return notifier.FormatRankReport(res)
	case "/refresh":
		report, err := s.refresh(ctx)
		if err != nil {
			return fmt.Sprintf("❌ Refresh failed: %v", err)
		}
		return notifier.FormatRefreshReport(report)
	case "/assets":
		assets, err := s.assets(ctx)
		if err != nil {
			return fmt.Sprintf("❌ Cannot list assets: %v", err)
		}
		return notifier.FormatAssets(assets)
	case "/decide":
		if len(fields) != 2 {
			return "Usage: /decide ASSET"
		}
		asset := strings.ToUpper(fields[1])
		d, err := s.Collector.Evaluate(ctx, asset)
		if err != nil {
			return fmt.Sprintf("❌ %s: %v", asset, err)
		}
		return notifier.FormatDecision(d)
	default:
		return helpText
	}
}

const helpText = "Available commands:\n• /rank\n• /refresh\n• /assets\n• /decide ASSET"

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
