// Package kelly sizes positions using a conservative fractional-Kelly
// criterion derived from a rolling window of recent trade outcomes.
package kelly

import (
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

// Config tunes the sizer's lookback and conservatism.
type Config struct {
	LookbackTrades      int
	MinSamples          int
	ConservativeFraction float64
	MinEdge             float64
	MaxMultiplier       float64
}

// DefaultConfig matches the tuning used across the bot.
func DefaultConfig() Config {
	return Config{
		LookbackTrades:       50,
		MinSamples:           10,
		ConservativeFraction: 0.25,
		MinEdge:              0.02,
		MaxMultiplier:        2.0,
	}
}

// Sizer computes position-size multipliers from trade history.
type Sizer struct {
	cfg Config
}

// New builds a Sizer with cfg.
func New(cfg Config) *Sizer {
	return &Sizer{cfg: cfg}
}

// Compute derives KellyStats from the most recent trades (already expected
// to be ordered oldest-first; only the last LookbackTrades are used). With
// fewer than MinSamples trades, it returns a neutral recommendation of 1.0.
func (s *Sizer) Compute(trades []domain.KellyTrade) domain.KellyStats {
	window := trades
	if len(window) > s.cfg.LookbackTrades {
		window = window[len(window)-s.cfg.LookbackTrades:]
	}

	if len(window) < s.cfg.MinSamples {
		return domain.KellyStats{
			RecommendedSize: 1.0,
			SampleSize:      len(window),
			ComputedAt:      time.Now(),
		}
	}

	var wins, losses int
	var sumWin, sumLoss float64
	for _, t := range window {
		if t.PnL > 0 {
			wins++
			sumWin += t.PnL
		} else if t.PnL < 0 {
			losses++
			sumLoss += -t.PnL
		}
	}

	n := float64(len(window))
	winRate := float64(wins) / n
	lossRate := float64(losses) / n

	avgWin := 0.0
	if wins > 0 {
		avgWin = sumWin / float64(wins)
	}
	avgLoss := 0.0
	if losses > 0 {
		avgLoss = sumLoss / float64(losses)
	}

	edge := winRate*avgWin - lossRate*avgLoss

	var rawKelly float64
	if avgLoss > 0 && avgWin > 0 {
		b := avgWin / avgLoss
		rawKelly = (winRate*b - lossRate) / b
	}

	adjustedKelly := rawKelly * s.cfg.ConservativeFraction

	var recommended float64
	switch {
	case edge < s.cfg.MinEdge:
		recommended = 1.0
	case rawKelly <= 0:
		recommended = 0.5
	default:
		recommended = 1 + adjustedKelly
		if recommended > s.cfg.MaxMultiplier {
			recommended = s.cfg.MaxMultiplier
		}
	}

	return domain.KellyStats{
		WinRate:         winRate,
		AvgWin:          avgWin,
		AvgLoss:         avgLoss,
		Edge:            edge,
		RawKelly:        rawKelly,
		AdjustedKelly:   adjustedKelly,
		RecommendedSize: recommended,
		SampleSize:      len(window),
		ComputedAt:      time.Now(),
	}
}
