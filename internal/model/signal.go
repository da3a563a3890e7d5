package model

import "time"

// Action is the trade signal derived from a confidence score.
type Action string

const (
	ActionCall     Action = "CALL"
	ActionPut      Action = "PUT"
	ActionNoAction Action = "NO_ACTION"
)

// RuleScore is one rule's contribution to the confidence score.
type RuleScore struct {
	Name       string
	Score      int
	Commentary string
}

// Decision is the engine output for one asset.
type Decision struct {
	Asset      string
	Timeframe  Timeframe
	Action     Action
	Confidence int
	Rules      []RuleScore
	Price      float64
	BarTime    time.Time
}

// AssetFailure records an asset skipped during a ranking pass.
type AssetFailure struct {
	Asset string
	Err   error
}

// RankResult is the outcome of a ranking pass. Best is nil when no asset
// produced a decision.
type RankResult struct {
	RunID     string
	Best      *Decision
	Decisions []Decision
	Failures  []AssetFailure
	StartedAt time.Time
	Duration  time.Duration
}

// ShortID is the leading part of RunID used in logs and reports.
func (r *RankResult) ShortID() string {
	if len(r.RunID) > 8 {
		return r.RunID[:8]
	}
	return r.RunID
}
