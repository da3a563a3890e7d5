package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/ranker"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/strategy"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureSender) SendWithRetry(_ context.Context, text string, _ int) error {
	c.mu.Lock()
	c.msgs = append(c.msgs, text)
	c.mu.Unlock()
	return nil
}

func (c *captureSender) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.msgs) == 0 {
		return ""
	}
	return c.msgs[len(c.msgs)-1]
}

func newTestScheduler(t *testing.T) (*Scheduler, *captureSender) {
	t.Helper()
	dir := t.TempDir()
	store, err := recorder.NewCSVRecorder(filepath.Join(dir, "bars"))
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 8, 5, 14, 30, 0, 0, time.UTC)
	ref := &collector.Refresher{
		Fetcher: &collector.MockFetcher{
			Price:  1.1,
			Assets: []string{"EURUSD", "GBPUSD", "EURUSD-OTC"},
			Now:    func() time.Time { return now },
		},
		Store:      store,
		Timeframes: []collector.TimeframeSpec{{Timeframe: model.TimeframeM1, Bars: 200}},
		Exclude:    []string{"OTC"},
		AssetsFile: filepath.Join(dir, "available_assets.txt"),
	}
	engine, err := strategy.NewEngine(strategy.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	col := collector.NewCollector(store, engine, model.TimeframeM1, 0)
	sender := &captureSender{}
	s := NewScheduler(context.Background(), col, ranker.New(col, 2, nil), ref, store, sender)
	s.AssetsFile = ref.AssetsFile
	s.Health = metrics.NewHealthStatus()
	return s, sender
}

func TestRunRefreshThenRank(t *testing.T) {
	s, sender := newTestScheduler(t)

	report, err := s.RunRefreshNow()
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if strings.Join(report.Available, ",") != "EURUSD,GBPUSD" {
		t.Fatalf("unexpected available %v", report.Available)
	}
	if !strings.Contains(sender.last(), "2 available, 0 failed") {
		t.Errorf("unexpected refresh message:\n%s", sender.last())
	}

	res, err := s.RunRankNow()
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if res.Best == nil || len(res.Decisions) != 2 {
		t.Fatalf("expected two decisions and a best pick, got %+v", res)
	}
	// identical mock data, so the first listed asset wins the tie
	if res.Best.Asset != "EURUSD" {
		t.Errorf("expected EURUSD, got %s", res.Best.Asset)
	}
	if !strings.Contains(sender.last(), "Best pick") {
		t.Errorf("unexpected rank message:\n%s", sender.last())
	}
	if s.Health.LastRank.IsZero() || s.Health.LastRefresh.IsZero() {
		t.Error("health timestamps not updated")
	}
}

func TestRankWithoutAssetList(t *testing.T) {
	s, _ := newTestScheduler(t)
	res, err := s.RunRankNow()
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if res.Best != nil {
		t.Errorf("expected no confident decision on an empty store, got %+v", res.Best)
	}
}

func TestRankBusy(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.rankMu.Lock()
	defer s.rankMu.Unlock()
	if out := s.HandleCommand(context.Background(), "/rank"); !strings.Contains(out, "already running") {
		t.Errorf("expected busy reply, got %q", out)
	}
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()
	if _, err := s.RunRefreshNow(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	tests := []struct {
		cmd  string
		want string
	}{
		{"/assets", "EURUSD, GBPUSD"},
		{"/decide eurusd", "<b>EURUSD</b>"},
		{"/decide", "Usage: /decide ASSET"},
		{"/decide AUDCAD", "missing series"},
		{"/rank", "run "},
		{"/refresh", "Data refresh"},
		{"hello", "Available commands"},
		{"", "Available commands"},
	}
	for _, tt := range tests {
		if got := s.HandleCommand(ctx, tt.cmd); !strings.Contains(got, tt.want) {
			t.Errorf("%q: expected %q in reply, got:\n%s", tt.cmd, tt.want, got)
		}
	}
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t)
	if err := s.RegisterAll("0 */15 * * * *", "30 * * * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := len(s.Cron.Entries()); got != 2 {
		t.Errorf("expected 2 entries, got %d", got)
	}
	if err := s.RegisterAll("not a cron", "30 * * * * *"); err == nil {
		t.Error("expected error for invalid spec")
	}
}
