package domain

import "time"

// KellyTrade is one closed trade's outcome, kept in a bounded lookback
// window for the Kelly sizer's win/loss statistics.
type KellyTrade struct {
	PnL      float64   `json:"pnl"`
	Size     float64   `json:"size"`
	PairCost float64   `json:"pair_cost"`
	ClosedAt time.Time `json:"timestamp"`
}

// KellyStats is the sizing recommendation produced from a lookback window
// of recent trade outcomes.
type KellyStats struct {
	WinRate          float64
	AvgWin           float64
	AvgLoss          float64
	Edge             float64
	RawKelly         float64
	AdjustedKelly    float64
	RecommendedSize  float64
	SampleSize       int
	ComputedAt       time.Time
}
