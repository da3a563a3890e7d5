package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/model"
)

// MaxMessageRunes is Telegram's sendMessage text limit.
const MaxMessageRunes = 4096

const (
	maxListedDecisions = 40
	maxListedFailures  = 15
	maxErrorRunes      = 80
)

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// clampLines drops whole trailing lines until s fits in n runes, so HTML tags
// opened on a line are never cut.
func clampLines(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	const marker = "\n…"
	lines := strings.Split(s, "\n")
	for len(lines) > 1 {
		lines = lines[:len(lines)-1]
		out := strings.Join(lines, "\n") + marker
		if utf8.RuneCountInString(out) <= n {
			return out
		}
	}
	return truncate(s, n)
}

func actionIcon(a model.Action) string {
	switch a {
	case model.ActionCall:
		return "🟢"
	case model.ActionPut:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatDecision renders a single asset decision with its rule breakdown.
func FormatDecision(d *model.Decision) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>%s</b> %s | confidence %+d\n", actionIcon(d.Action), html.EscapeString(d.Asset), d.Action, d.Confidence))
	b.WriteString(fmt.Sprintf("Price: %.5f (%s bar %s UTC)\n\n", d.Price, d.Timeframe, d.BarTime.UTC().Format("2006-01-02 15:04")))

	b.WriteString("📈 <b>Rules:</b>\n")
	for _, r := range d.Rules {
		b.WriteString(fmt.Sprintf("  %s: %+d (%s)\n", html.EscapeString(r.Name), r.Score, html.EscapeString(r.Commentary)))
	}
	return b.String()
}

// FormatRankReport renders the best pick of a ranking pass followed by a
// one-line summary per asset.
func FormatRankReport(res *model.RankResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>SignalSentinel rank</b> | %s UTC | run %s\n\n",
		res.StartedAt.UTC().Format("2006-01-02 15:04"), res.ShortID()))

	if res.Best == nil {
		b.WriteString("No confident decision.\n")
	} else {
		b.WriteString("🏆 <b>Best pick</b>\n")
		b.WriteString(FormatDecision(res.Best))
	}

	if len(res.Decisions) > 0 {
		b.WriteString("\n<b>All assets:</b>\n")
		for i, d := range res.Decisions {
			if i == maxListedDecisions {
				b.WriteString(fmt.Sprintf("  … and %d more\n", len(res.Decisions)-i))
				break
			}
			b.WriteString(fmt.Sprintf("  %s %s %s %+d\n", actionIcon(d.Action), html.EscapeString(d.Asset), d.Action, d.Confidence))
		}
	}
	if len(res.Failures) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ Skipped %d:\n", len(res.Failures)))
		for i, f := range res.Failures {
			if i == maxListedFailures {
				b.WriteString(fmt.Sprintf("  … and %d more\n", len(res.Failures)-i))
				break
			}
			b.WriteString(fmt.Sprintf("  %s: %s\n", html.EscapeString(f.Asset), html.EscapeString(truncate(f.Err.Error(), maxErrorRunes))))
		}
	}
	b.WriteString(fmt.Sprintf("\n⏱ %s", res.Duration.Round(time.Millisecond)))
	return clampLines(b.String(), MaxMessageRunes)
}

// FormatRefreshReport summarizes a bar download run.
func FormatRefreshReport(r *collector.RefreshReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔄 <b>Data refresh</b> | %d available, %d failed in %s\n",
		len(r.Available), len(r.Failed), r.Duration.Round(time.Second)))
	if len(r.Failed) > 0 {
		b.WriteString("Unavailable: " + html.EscapeString(strings.Join(r.Failed, ", ")) + "\n")
	}
	return b.String()
}

// FormatAssets lists the assets currently available for ranking.
func FormatAssets(assets []string) string {
	if len(assets) == 0 {
		return "No assets available yet."
	}
	return clampLines(fmt.Sprintf("📦 <b>Available assets (%d)</b>\n%s", len(assets), html.EscapeString(strings.Join(assets, ", "))), MaxMessageRunes)
}
