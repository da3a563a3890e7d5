package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/model"
)

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = url
	n.Backoff = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := newTestNotifier(srv.URL).Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["chat_id"] != "42" || got["text"] != "hello" || got["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	if err := n.SendWithRetry(context.Background(), "x", 3); err != nil {
		t.Fatalf("send: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}

	calls.Store(-100)
	err := n.SendWithRetry(context.Background(), "x", 1)
	if err == nil || !strings.Contains(err.Error(), "all 2 retries exhausted") {
		t.Errorf("expected exhausted error, got %v", err)
	}
}

func TestStartPolling(t *testing.T) {
	var (
		mu      sync.Mutex
		replies []string
		polls   atomic.Int32
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if polls.Add(1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /assets ","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/rank","chat":{"id":99}}}
				]}`))
				return
			}
			if got := r.URL.Query().Get("offset"); got != "9" {
				t.Errorf("expected offset 9, got %s", got)
			}
			cancel()
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var p map[string]string
			json.NewDecoder(r.Body).Decode(&p)
			mu.Lock()
			replies = append(replies, p["text"])
			mu.Unlock()
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	var handled []string
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv.URL).StartPolling(ctx, func(_ context.Context, cmd string) string {
			handled = append(handled, cmd)
			return "reply to " + cmd
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	if len(handled) != 1 || handled[0] != "/assets" {
		t.Errorf("unexpected handled commands %v", handled)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(replies) != 1 || replies[0] != "reply to /assets" {
		t.Errorf("unexpected replies %v", replies)
	}
}

func sampleDecision(asset string, action model.Action, conf int) model.Decision {
	return model.Decision{
		Asset:      asset,
		Timeframe:  model.TimeframeM1,
		Action:     action,
		Confidence: conf,
		Price:      1.08765,
		BarTime:    time.Date(2024, 8, 5, 14, 30, 0, 0, time.UTC),
		Rules: []model.RuleScore{
			{Name: "RSI", Score: 1, Commentary: "RSI=25.0"},
			{Name: "Pattern", Score: 0, Commentary: "<none>"},
		},
	}
}

func TestFormatDecision(t *testing.T) {
	d := sampleDecision("EURUSD", model.ActionCall, 4)
	out := FormatDecision(&d)
	for _, want := range []string{"🟢 <b>EURUSD</b> CALL", "+4", "1.08765", "2024-08-05 14:30", "RSI: +1 (RSI=25.0)", "&lt;none&gt;"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatRankReport(t *testing.T) {
	best := sampleDecision("EURUSD", model.ActionCall, 4)
	res := &model.RankResult{
		RunID:     "0123456789abcdef",
		Best:      &best,
		Decisions: []model.Decision{best, sampleDecision("GBPUSD", model.ActionPut, -3)},
		Failures:  []model.AssetFailure{{Asset: "AUDCAD", Err: model.ErrMissingSeries}},
		StartedAt: time.Date(2024, 8, 5, 14, 31, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}
	out := FormatRankReport(res)
	for _, want := range []string{"run 01234567", "Best pick", "🔴 GBPUSD PUT -3", "Skipped 1", "AUDCAD: missing series", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	empty := FormatRankReport(&model.RankResult{RunID: "r"})
	if !strings.Contains(empty, "No confident decision.") {
		t.Errorf("expected no-decision text, got:\n%s", empty)
	}
}

func TestFormatRefreshAndAssets(t *testing.T) {
	out := FormatRefreshReport(&collector.RefreshReport{Available: []string{"A"}, Failed: []string{"B", "C"}, Duration: 3 * time.Second})
	if !strings.Contains(out, "1 available, 2 failed") || !strings.Contains(out, "Unavailable: B, C") {
		t.Errorf("unexpected refresh report:\n%s", out)
	}
	if FormatAssets(nil) != "No assets available yet." {
		t.Error("unexpected empty asset text")
	}
	if !strings.Contains(FormatAssets([]string{"EURUSD", "GBPUSD"}), "(2)") {
		t.Error("expected asset count")
	}
}

func TestFormatRankReport_FitsTelegramLimit(t *testing.T) {
	best := sampleDecision("EURUSD", model.ActionCall, 4)
	res := &model.RankResult{RunID: "run", Best: &best, Duration: time.Second}
	for i := 0; i < 80; i++ {
		res.Decisions = append(res.Decisions, sampleDecision(fmt.Sprintf("ASSET%02d", i), model.ActionNoAction, 1))
	}
	longErr := fmt.Errorf("load series: %w: %s", model.ErrMissingSeries, strings.Repeat("x", 200))
	for i := 0; i < 40; i++ {
		res.Failures = append(res.Failures, model.AssetFailure{Asset: fmt.Sprintf("FAIL%02d", i), Err: longErr})
	}

	out := FormatRankReport(res)
	if n := utf8.RuneCountInString(out); n > MaxMessageRunes {
		t.Fatalf("report has %d runes, limit %d", n, MaxMessageRunes)
	}
	for _, want := range []string{"… and 40 more", "… and 25 more", "Skipped 40", "ASSET39"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Contains(out, "ASSET40") || strings.Contains(out, "FAIL15") {
		t.Error("entries beyond the listing limit should be summarized")
	}
}

func TestClampLines(t *testing.T) {
	s := strings.Repeat("<b>line</b>\n", 10)
	out := clampLines(s, 40)
	if utf8.RuneCountInString(out) > 40 {
		t.Fatalf("clamped text too long: %q", out)
	}
	if !strings.HasSuffix(out, "\n…") || strings.Count(out, "<b>") != strings.Count(out, "</b>") {
		t.Errorf("expected whole lines and a marker, got %q", out)
	}
	if clampLines("short", 40) != "short" {
		t.Error("short text should be unchanged")
	}
}
