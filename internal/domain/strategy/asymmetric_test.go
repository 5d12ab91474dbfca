package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asymBook(bid, ask float64) domain.OrderBook {
	return domain.OrderBook{
		Bids: []domain.BookEntry{{Price: bid, Size: 100}},
		Asks: []domain.BookEntry{{Price: ask, Size: 100}},
	}
}

func TestAsymmetric_Name(t *testing.T) {
	s := NewAsymmetric(AsymmetricConfig{OrderSize: 20})
	assert.Equal(t, domain.StrategyAsymmetric, s.Name())
}

func TestAsymmetric_ShortHorizonCheapLegQualifies(t *testing.T) {
	s := NewAsymmetric(AsymmetricConfig{OrderSize: 20, FeeRate: 0.02})

	market := domain.Market{
		ConditionID: "0xshort",
		EndDate:     time.Now().Add(2 * time.Hour),
	}
	// Pierna NO a 0.10: payout 10x si gana
	opp, err := s.Analyze(context.Background(), market, asymBook(0.88, 0.90), asymBook(0.08, 0.10))

	require.NoError(t, err)
	assert.Equal(t, domain.CategoryBronze, opp.Category)
	assert.Greater(t, opp.CombinedScore, 0.0)
}

func TestAsymmetric_RejectsLongHorizon(t *testing.T) {
	s := NewAsymmetric(AsymmetricConfig{OrderSize: 20, FeeRate: 0.02, MaxHorizon: 6 * time.Hour})

	market := domain.Market{
		ConditionID: "0xlong",
		EndDate:     time.Now().Add(72 * time.Hour),
	}
	opp, err := s.Analyze(context.Background(), market, asymBook(0.88, 0.90), asymBook(0.08, 0.10))

	require.NoError(t, err)
	assert.Equal(t, domain.CategoryAvoid, opp.Category)
}

func TestAsymmetric_RejectsBalancedMarket(t *testing.T) {
	s := NewAsymmetric(AsymmetricConfig{OrderSize: 20, FeeRate: 0.02, MinPayoutRatio: 4})

	market := domain.Market{
		ConditionID: "0xeven",
		EndDate:     time.Now().Add(2 * time.Hour),
	}
	// Ambas piernas cerca de 0.50: payout ~2x, bajo el mínimo de 4x
	opp, err := s.Analyze(context.Background(), market, asymBook(0.48, 0.50), asymBook(0.48, 0.50))

	require.NoError(t, err)
	assert.Equal(t, domain.CategoryAvoid, opp.Category)
}

func TestAsymmetric_EmptyBookErrors(t *testing.T) {
	s := NewAsymmetric(AsymmetricConfig{OrderSize: 20})
	_, err := s.Analyze(context.Background(), domain.Market{}, domain.OrderBook{}, domain.OrderBook{})
	assert.Error(t, err)
}
