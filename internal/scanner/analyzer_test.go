package scanner

import (
	"context"
	"testing"

	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBook(tokenID string, bid, ask, size float64) domain.OrderBook {
	return domain.OrderBook{
		TokenID: tokenID,
		Bids:    []domain.BookEntry{{Price: bid, Size: size}},
		Asks:    []domain.BookEntry{{Price: ask, Size: size}},
	}
}

func TestAnalyzer_Analyze_PairAbovePayout(t *testing.T) {
	market := domain.Market{ConditionID: "0xtest"}
	yesBook := makeBook("yes", 0.70, 0.72, 200)
	noBook := makeBook("no", 0.27, 0.29, 180)

	a := NewAnalyzer(100, 0.02, 0.98)
	opp, err := a.Analyze(context.Background(), market, yesBook, noBook)

	require.NoError(t, err)
	// sum = 0.72 + 0.29 = 1.01 → spread total +0.01, sin gap
	assert.InDelta(t, 1.01, opp.SumBestAsk, 0.001)
	assert.InDelta(t, 0.01, opp.SpreadTotal, 0.001)
	assert.False(t, opp.HasArbitrage)
	assert.False(t, opp.BelowPairCap)
	assert.Equal(t, domain.CategoryAvoid, opp.Category)

	assert.Equal(t, 0.72, opp.YesAsk)
	assert.Equal(t, 0.29, opp.NoAsk)
	assert.Greater(t, opp.EntryCostPerPair, 0.0, "entrar al par sobre $1 cuesta dinero")
	assert.Greater(t, opp.Competition, 0.0)
}

func TestAnalyzer_Analyze_EmptyBook(t *testing.T) {
	market := domain.Market{ConditionID: "0xtest"}
	a := NewAnalyzer(100, 0.02, 0.98)
	_, err := a.Analyze(context.Background(), market, domain.OrderBook{}, domain.OrderBook{})
	assert.Error(t, err)
}

func TestAnalyzer_Analyze_AccumulableBelowCap(t *testing.T) {
	market := domain.Market{ConditionID: "0xacc"}
	// sum = 0.975 < cap 0.98, pero con fee 3% el gap neto queda negativo:
	// 1 - 0.975 - 0.975×0.03 = -0.00425 → acumulable, no lockeable ya.
	yesBook := makeBook("yes", 0.47, 0.49, 100)
	noBook := makeBook("no", 0.465, 0.485, 100)

	a := NewAnalyzer(100, 0.03, 0.98)
	opp, err := a.Analyze(context.Background(), market, yesBook, noBook)

	require.NoError(t, err)
	assert.True(t, opp.BelowPairCap)
	assert.False(t, opp.HasArbitrage)
	assert.Equal(t, domain.CategorySilver, opp.Category)
}

func TestAnalyzer_Analyze_ArbitrageDetected(t *testing.T) {
	market := domain.Market{ConditionID: "0xarb"}
	// YES ask=0.49, NO ask=0.49 → sum=0.98, fee 0.1% → gap neto positivo
	yesBook := makeBook("yes", 0.48, 0.49, 100)
	noBook := makeBook("no", 0.48, 0.49, 100)

	a := NewAnalyzer(100, 0.001, 0.99)
	opp, err := a.Analyze(context.Background(), market, yesBook, noBook)

	require.NoError(t, err)
	assert.True(t, opp.HasArbitrage, "debe detectar lock inmediato con YES+NO+fees < 1.0")
	assert.Greater(t, opp.ArbitrageGap, 0.0)
	assert.Equal(t, domain.CategoryGold, opp.Category)
	assert.Less(t, opp.EntryCostUSDC, 0.0, "tomar el par entero es ganancia")
	assert.Greater(t, opp.CombinedScore, 0.0)
}

func TestAnalyzer_Analyze_UsesMakerBaseFee(t *testing.T) {
	market := domain.Market{
		ConditionID:  "0xfee",
		MakerBaseFee: 0.005, // 0.5% del mercado
	}
	// sum = 0.98: con fee 0.5% el gap neto es 1-0.98-0.0049 > 0;
	// con el default 2% sería 1-0.98-0.0196 < 0.
	yesBook := makeBook("yes", 0.48, 0.49, 100)
	noBook := makeBook("no", 0.48, 0.49, 100)

	a := NewAnalyzer(100, 0.02, 0.99)
	opp, err := a.Analyze(context.Background(), market, yesBook, noBook)

	require.NoError(t, err)
	assert.True(t, opp.HasArbitrage, "debe usar el fee real del mercado, no el default")
}

func TestFilter_Apply_ByPairCap(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.MaxPairCost = 0.98
	f := NewFilter(cfg)

	passing := domain.Opportunity{SumBestAsk: 0.95, Category: domain.CategorySilver}
	failing := domain.Opportunity{SumBestAsk: 0.99, Category: domain.CategoryBronze}

	result := f.Apply([]domain.Opportunity{passing, failing})
	require.Len(t, result, 1)
	assert.Equal(t, 0.95, result[0].SumBestAsk)
}

func TestFilter_Apply_ByResolutionTime(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.MinHoursToResolution = 48
	f := NewFilter(cfg)

	// Sin EndDate (zero value) el filtro NO descarta el mercado.
	noEndDate := domain.Opportunity{SumBestAsk: 0.95, Category: domain.CategorySilver}
	result := f.Apply([]domain.Opportunity{noEndDate})
	assert.Len(t, result, 1, "sin EndDate definido, no debe filtrarse")
}

func TestFilter_Apply_Basic(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.MaxCompetition = 10_000
	cfg.OnlyFillsProfit = true
	f := NewFilter(cfg)

	passing := domain.Opportunity{
		SumBestAsk: 0.95, SpreadTotal: -0.05, Competition: 1000,
		EntryCostUSDC: -2.0, Category: domain.CategoryGold,
	}
	tooContested := domain.Opportunity{
		SumBestAsk: 0.95, SpreadTotal: -0.05, Competition: 50_000,
		EntryCostUSDC: -2.0, Category: domain.CategoryGold,
	}
	costsMoney := domain.Opportunity{
		SumBestAsk: 0.97, SpreadTotal: -0.03, Competition: 1000,
		EntryCostUSDC: 1.5, Category: domain.CategorySilver,
	}

	result := f.Apply([]domain.Opportunity{passing, tooContested, costsMoney})
	require.Len(t, result, 1)
	assert.Equal(t, passing.Competition, result[0].Competition)
}
