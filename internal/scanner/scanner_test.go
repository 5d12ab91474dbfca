package scanner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/alejandrodnm/pairlock/internal/ports"
	"github.com/alejandrodnm/pairlock/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockMarketProvider struct {
	markets []domain.Market
	err     error
}

func (m *mockMarketProvider) FetchSamplingMarkets(_ context.Context) ([]domain.Market, error) {
	return m.markets, m.err
}

type mockBookProvider struct {
	books map[string]domain.OrderBook
	err   error
}

func (m *mockBookProvider) FetchOrderBooks(_ context.Context, _ []string) (map[string]domain.OrderBook, error) {
	return m.books, m.err
}

type mockNotifier struct {
	notified []domain.Opportunity
	err      error
}

func (m *mockNotifier) Notify(_ context.Context, opps []domain.Opportunity) error {
	m.notified = opps
	return m.err
}

type mockStorage struct {
	saved []domain.Opportunity
	err   error
}

func (m *mockStorage) SaveScan(_ context.Context, opps []domain.Opportunity) error {
	m.saved = opps
	return m.err
}

func (m *mockStorage) GetHistory(_ context.Context, _, _ time.Time) ([]domain.Opportunity, error) {
	return nil, nil
}

func (m *mockStorage) Close() error { return nil }

// --- helpers ---

func makeMarket(condID, yesID, noID string) domain.Market {
	return domain.Market{
		ConditionID: condID,
		Active:      true,
		Tokens: [2]domain.Token{
			{TokenID: yesID, Outcome: "Yes", Price: 0.49},
			{TokenID: noID, Outcome: "No", Price: 0.49},
		},
	}
}

// makeBooks construye books donde el par YES+NO cuesta yesAsk+noAsk.
func makeBooks(yesID, noID string, yesAsk, noAsk float64) map[string]domain.OrderBook {
	return map[string]domain.OrderBook{
		yesID: {
			TokenID: yesID,
			Bids:    []domain.BookEntry{{Price: yesAsk - 0.02, Size: 150}},
			Asks:    []domain.BookEntry{{Price: yesAsk, Size: 200}},
		},
		noID: {
			TokenID: noID,
			Bids:    []domain.BookEntry{{Price: noAsk - 0.02, Size: 100}},
			Asks:    []domain.BookEntry{{Price: noAsk, Size: 180}},
		},
	}
}

func newTestScanner(mp ports.MarketProvider, bp ports.BookProvider, n ports.Notifier, s ports.Storage) *scanner.Scanner {
	cfg := scanner.DefaultConfig()
	cfg.FeeRate = 0.001
	cfg.MaxPairCost = 0.98
	cfg.Filter.MaxPairCost = 0.98
	cfg.Filter.MaxSpreadTotal = 0 // sin límite de spread en tests
	return scanner.New(cfg, mp, bp, s, n)
}

// --- tests ---

func TestScanner_RunOnce_AccumulableCandidate(t *testing.T) {
	market := makeMarket("0xabc", "yes1", "no1")
	books := makeBooks("yes1", "no1", 0.48, 0.49) // sum = 0.97 < cap 0.98

	mp := &mockMarketProvider{markets: []domain.Market{market}}
	bp := &mockBookProvider{books: books}
	notifier := &mockNotifier{}
	storage := &mockStorage{}

	s := newTestScanner(mp, bp, notifier, storage)
	opps, err := s.RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, "0xabc", opp.Market.ConditionID)
	assert.InDelta(t, 0.97, opp.SumBestAsk, 0.001)
	assert.True(t, opp.BelowPairCap)
	assert.True(t, opp.HasArbitrage, "0.97 + fees sigue bajo $1")
	assert.Equal(t, domain.CategoryGold, opp.Category)
}

func TestScanner_RunOnce_FiltersPairAboveCap(t *testing.T) {
	// 0.52 + 0.51 = 1.03 > 1.0 → sin vía de acumulación
	market := makeMarket("0xdef", "yes2", "no2")
	books := makeBooks("yes2", "no2", 0.52, 0.51)

	mp := &mockMarketProvider{markets: []domain.Market{market}}
	bp := &mockBookProvider{books: books}
	notifier := &mockNotifier{}

	s := newTestScanner(mp, bp, notifier, nil)
	opps, err := s.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Empty(t, opps, "debe filtrar mercado con pair cost sobre el cap")
}

func TestScanner_RunOnce_MarketProviderError(t *testing.T) {
	mp := &mockMarketProvider{err: errors.New("API down")}
	bp := &mockBookProvider{}
	notifier := &mockNotifier{}

	s := newTestScanner(mp, bp, notifier, nil)
	_, err := s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestScanner_RunOnce_BookProviderError(t *testing.T) {
	market := makeMarket("0xabc", "yes1", "no1")
	mp := &mockMarketProvider{markets: []domain.Market{market}}
	bp := &mockBookProvider{err: errors.New("books unavailable")}
	notifier := &mockNotifier{}

	s := newTestScanner(mp, bp, notifier, nil)
	_, err := s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestScanner_RunOnce_RankedByCombinedScore(t *testing.T) {
	// El mercado con el gap más ancho debe ir primero.
	m1 := makeMarket("0xnarrow", "yN", "nN")
	m2 := makeMarket("0xwide", "yW", "nW")

	books := makeBooks("yN", "nN", 0.49, 0.48)            // sum 0.97
	for k, v := range makeBooks("yW", "nW", 0.46, 0.47) { // sum 0.93
		books[k] = v
	}

	mp := &mockMarketProvider{markets: []domain.Market{m1, m2}}
	bp := &mockBookProvider{books: books}
	notifier := &mockNotifier{}

	s := newTestScanner(mp, bp, notifier, nil)
	opps, err := s.RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, opps, 2)
	assert.GreaterOrEqual(t, opps[0].CombinedScore, opps[1].CombinedScore,
		"debe estar ordenado por CombinedScore desc")
	assert.Equal(t, "0xwide", opps[0].Market.ConditionID,
		"el gap más ancho debe rankear primero")
}

func TestScanner_OnOpportunityCallbackFires(t *testing.T) {
	market := makeMarket("0xabc", "yes1", "no1")
	books := makeBooks("yes1", "no1", 0.48, 0.49)

	mp := &mockMarketProvider{markets: []domain.Market{market}}
	bp := &mockBookProvider{books: books}
	notifier := &mockNotifier{}

	s := newTestScanner(mp, bp, notifier, nil)

	var seen []string
	s.SetOnOpportunity(func(_ context.Context, opp domain.Opportunity) {
		seen = append(seen, opp.Market.ConditionID)
	})

	_, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0xabc"}, seen)
}
