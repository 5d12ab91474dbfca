// Package snapshotscore scores a domain.Snapshot in [1..5] and recommends
// trade/watch/skip, as advisory input for the accumulation engine: a
// weighted sum over spread, volume, liquidity, balance, duration,
// volatility and order-book imbalance.
package snapshotscore

import (
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

// Config tunes the weighted scoring model and its rejection thresholds.
type Config struct {
	WeightSpread    float64
	WeightVolume    float64
	WeightLiquidity float64
	WeightBalance   float64
	WeightDuration  float64
	WeightVolatility float64
	WeightOBI       float64

	MinTopOfBookNotional float64
	DepthPenalty         float64

	FeeRate          float64
	MinVolumeForFull float64 // volume24h at/above which the volume sub-score saturates
	MaxUsefulHours   float64 // remaining duration at/above which the duration sub-score saturates
}

// DefaultConfig is the production weighting.
func DefaultConfig() Config {
	return Config{
		WeightSpread:          30,
		WeightVolume:          20,
		WeightLiquidity:       20,
		WeightBalance:         10,
		WeightDuration:        10,
		WeightVolatility:      5,
		WeightOBI:             5,
		MinTopOfBookNotional:  50,
		DepthPenalty:          15,
		FeeRate:               0.02,
		MinVolumeForFull:      50000,
		MaxUsefulHours:        72,
	}
}

// Analyzer scores snapshots against Config.
type Analyzer struct {
	cfg Config
	// volatility is an optional external volatility index keyed by market
	// id, refreshed by the caller; markets missing from the map (or a nil
	// map) get the neutral volatility subscore of 50.
	volatility map[string]float64
}

// New builds an Analyzer with cfg; a nil volatility map disables that term.
func New(cfg Config, volatility map[string]float64) *Analyzer {
	return &Analyzer{cfg: cfg, volatility: volatility}
}

// Score evaluates snap and returns its ScoredSnapshot. now is injected for
// determinism in tests.
func (a *Analyzer) Score(snap domain.Snapshot, obi float64, now time.Time) domain.ScoredSnapshot {
	yesAsk := snap.YesBook.BestAsk()
	noAsk := snap.NoBook.BestAsk()
	if yesAsk == 0 || noAsk == 0 {
		return domain.ScoredSnapshot{Snapshot: snap, Score: 1, Action: domain.ActionSkip, Reason: "missing quote on one or both legs"}
	}

	pairCost := yesAsk + noAsk
	expectedProfit := 1.0 - pairCost - a.cfg.FeeRate
	if expectedProfit <= 0 {
		return domain.ScoredSnapshot{Snapshot: snap, Score: 1, Action: domain.ActionSkip, Reason: "non-positive expected profit after fees"}
	}

	spreadScore := a.spreadSubscore(snap.EffectiveSpread())
	volumeScore := a.volumeSubscore(snap.Volume24h)
	liquidityScore := a.liquiditySubscore(snap)
	balanceScore := snap.MarketBalance() * 100
	durationScore := a.durationSubscore(snap.TimeToResolution(now))
	volatilityScore := a.volatilitySubscore(snap.MarketID)
	obiScore := a.obiSubscore(obi)

	totalWeight := a.cfg.WeightSpread + a.cfg.WeightVolume + a.cfg.WeightLiquidity +
		a.cfg.WeightBalance + a.cfg.WeightDuration + a.cfg.WeightVolatility + a.cfg.WeightOBI
	if totalWeight == 0 {
		totalWeight = 1
	}

	weighted := spreadScore*a.cfg.WeightSpread +
		volumeScore*a.cfg.WeightVolume +
		liquidityScore*a.cfg.WeightLiquidity +
		balanceScore*a.cfg.WeightBalance +
		durationScore*a.cfg.WeightDuration +
		volatilityScore*a.cfg.WeightVolatility +
		obiScore*a.cfg.WeightOBI
	weighted /= totalWeight

	notional := a.topOfBookNotional(snap)
	reason := ""
	if notional < a.cfg.MinTopOfBookNotional {
		weighted -= a.cfg.DepthPenalty
		reason = "top-of-book depth below minimum, penalized"
	}
	if weighted < 0 {
		weighted = 0
	}
	if weighted > 100 {
		weighted = 100
	}

	score := scoreFromPercent(weighted)
	return domain.ScoredSnapshot{
		Snapshot: snap,
		Score:    score,
		Action:   domain.ActionForScore(score),
		Reason:   reason,
	}
}

// scoreFromPercent maps a 0-100 weighted score to the 1..5 scale.
func scoreFromPercent(pct float64) int {
	switch {
	case pct >= 80:
		return 5
	case pct >= 65:
		return 4
	case pct >= 45:
		return 3
	case pct >= 25:
		return 2
	default:
		return 1
	}
}

// spreadSubscore rewards tighter effective spreads; 0 spread scores 100,
// decaying linearly to 0 at a 10c spread.
func (a *Analyzer) spreadSubscore(effectiveSpread float64) float64 {
	const maxUseful = 0.10
	if effectiveSpread <= 0 {
		return 100
	}
	if effectiveSpread >= maxUseful {
		return 0
	}
	return 100 * (1 - effectiveSpread/maxUseful)
}

func (a *Analyzer) volumeSubscore(volume24h float64) float64 {
	if a.cfg.MinVolumeForFull <= 0 {
		return 100
	}
	pct := 100 * volume24h / a.cfg.MinVolumeForFull
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (a *Analyzer) liquiditySubscore(snap domain.Snapshot) float64 {
	notional := a.topOfBookNotional(snap)
	if a.cfg.MinTopOfBookNotional <= 0 {
		return 100
	}
	pct := 100 * notional / (a.cfg.MinTopOfBookNotional * 4)
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (a *Analyzer) topOfBookNotional(snap domain.Snapshot) float64 {
	yesBid, yesBidSize := bestBidSize(snap.YesBook)
	noBid, noBidSize := bestBidSize(snap.NoBook)
	return yesBid*yesBidSize + noBid*noBidSize
}

func bestBidSize(ob domain.OrderBook) (price, size float64) {
	if len(ob.Bids) == 0 {
		return 0, 0
	}
	return ob.Bids[0].Price, ob.Bids[0].Size
}

func (a *Analyzer) durationSubscore(remaining time.Duration) float64 {
	if a.cfg.MaxUsefulHours <= 0 {
		return 100
	}
	hours := remaining.Hours()
	if hours <= 0 {
		return 0
	}
	pct := 100 * hours / a.cfg.MaxUsefulHours
	if pct > 100 {
		pct = 100
	}
	return pct
}

// volatilitySubscore rewards lower external volatility; absent data
// contributes a neutral midpoint.
func (a *Analyzer) volatilitySubscore(marketID string) float64 {
	if a.volatility == nil {
		return 50
	}
	v, ok := a.volatility[marketID]
	if !ok {
		return 50
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return 100 * (1 - v)
}

// obiSubscore converts an order book imbalance in [-1,1] to a 0-100 term:
// a balanced book (obi near 0) scores highest, since extreme imbalance
// signals directional risk for a hedged accumulation strategy.
func (a *Analyzer) obiSubscore(obi float64) float64 {
	if obi < -1 {
		obi = -1
	}
	if obi > 1 {
		obi = 1
	}
	abs := obi
	if abs < 0 {
		abs = -abs
	}
	return 100 * (1 - abs)
}
