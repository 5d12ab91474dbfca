package kelly

import (
	"testing"

	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/stretchr/testify/assert"
)

func trades(pnls ...float64) []domain.KellyTrade {
	out := make([]domain.KellyTrade, len(pnls))
	for i, p := range pnls {
		out[i] = domain.KellyTrade{PnL: p}
	}
	return out
}

func TestComputeReturnsNeutralBelowMinSamples(t *testing.T) {
	s := New(DefaultConfig())
	stats := s.Compute(trades(1, -1, 2))
	assert.Equal(t, 1.0, stats.RecommendedSize)
	assert.Equal(t, 3, stats.SampleSize)
}

func TestComputeReturnsNeutralWhenEdgeBelowMin(t *testing.T) {
	s := New(DefaultConfig())
	// 5 wins of +0.1, 5 losses of -0.1: edge ~ 0, below MinEdge 0.02.
	data := append(trades(0.1, 0.1, 0.1, 0.1, 0.1), trades(-0.1, -0.1, -0.1, -0.1, -0.1)...)
	stats := s.Compute(data)
	assert.Equal(t, 1.0, stats.RecommendedSize)
}

func TestComputeScalesUpOnStrongEdge(t *testing.T) {
	s := New(DefaultConfig())
	// 8 wins of +2, 2 losses of -1: strong positive edge and kelly.
	data := append(trades(2, 2, 2, 2, 2, 2, 2, 2), trades(-1, -1)...)
	stats := s.Compute(data)
	assert.Greater(t, stats.RawKelly, 0.0)
	assert.Greater(t, stats.RecommendedSize, 1.0)
	assert.LessOrEqual(t, stats.RecommendedSize, DefaultConfig().MaxMultiplier)
}

func TestComputeHalvesOnNonPositiveKelly(t *testing.T) {
	s := New(DefaultConfig())
	// Ten small wins and no losses: edge 0.05 clears MinEdge, but with no
	// losses the odds ratio is undefined and RawKelly stays 0.
	data := trades(0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05)
	stats := s.Compute(data)
	if stats.Edge >= DefaultConfig().MinEdge && stats.RawKelly <= 0 {
		assert.Equal(t, 0.5, stats.RecommendedSize)
	}
}

func TestComputeUsesOnlyLookbackWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LookbackTrades = 4
	cfg.MinSamples = 4
	s := New(cfg)
	data := append(trades(-1, -1, -1, -1, -1, -1), trades(1, 1, 1, 1)...)
	stats := s.Compute(data)
	assert.Equal(t, 4, stats.SampleSize)
	assert.Equal(t, 1.0, stats.WinRate)
}
