package accumulation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/alejandrodnm/pairlock/internal/engine/breaker"
	"github.com/alejandrodnm/pairlock/internal/engine/executor"
	"github.com/alejandrodnm/pairlock/internal/engine/orderqueue"
	"github.com/alejandrodnm/pairlock/internal/engine/ratelimiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBooks struct {
	asks      map[string]float64
	bids      map[string]float64
	imbalance map[string]float64
	history   map[string][]float64
}

func newFakeBooks() *fakeBooks {
	return &fakeBooks{
		asks:      make(map[string]float64),
		bids:      make(map[string]float64),
		imbalance: make(map[string]float64),
		history:   make(map[string][]float64),
	}
}

func (f *fakeBooks) BestAsk(tokenID string) (float64, float64) { return f.asks[tokenID], 100 }
func (f *fakeBooks) BestBid(tokenID string) (float64, float64) { return f.bids[tokenID], 100 }
func (f *fakeBooks) Imbalance(tokenID string, n int) float64   { return f.imbalance[tokenID] }
func (f *fakeBooks) PriceHistory(tokenID string) []float64      { return f.history[tokenID] }

type fakeExchange struct {
	placeErr error
	placed   []domain.PlaceOrderRequest
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error) {
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		return domain.PlacedOrder{}, f.placeErr
	}
	return domain.PlacedOrder{CLOBOrderID: "ord-1", Status: string(domain.LiveStatusOpen)}, nil
}
func (f *fakeExchange) CancelOrder(ctx context.Context, id string) error { return nil }
func (f *fakeExchange) GetOrder(ctx context.Context, id string) (domain.LiveOrder, error) {
	return domain.LiveOrder{CLOBOrderID: id, Status: domain.LiveStatusOpen}, nil
}
func (f *fakeExchange) CancelAll(ctx context.Context) error                     { return nil }
func (f *fakeExchange) GetOpenOrders(ctx context.Context) ([]domain.LiveOrder, error) { return nil, nil }
func (f *fakeExchange) GetBalance(ctx context.Context) (float64, error)         { return 1000, nil }
func (f *fakeExchange) IsNegRisk(ctx context.Context, tokenID string) (bool, error) { return false, nil }
func (f *fakeExchange) TokenBalance(ctx context.Context, tokenID string) (float64, error) { return 0, nil }

func newTestExecutor(exchange *fakeExchange) *executor.Executor {
	limiter := ratelimiter.NewAdaptive(100, 100, ratelimiter.AdaptiveConfig{MinRate: 1, MaxRate: 100, BackoffFactor: 0.5, RecoveryFactor: 1.1, RecoveryThreshold: 5})
	br := breaker.New("test", breaker.DefaultConfig())
	queue := orderqueue.New(3)
	return executor.New(executor.DefaultConfig(), exchange, limiter, br, queue, nil)
}

func newTestEngine(books *fakeBooks, exec *executor.Executor) *Engine {
	return New(DefaultConfig(), books, exec, nil, nil, nil)
}

func TestEvaluate_NoTradeWithoutQuotes(t *testing.T) {
	books := newFakeBooks()
	exec := newTestExecutor(&fakeExchange{})
	e := newTestEngine(books, exec)

	e.Evaluate(context.Background(), "m1", "Q?", "yes-tok", "no-tok", false)

	snap := e.Snapshot()
	assert.Equal(t, 0.0, snap["m1"].QtyYes)
}

func TestEvaluate_SubmitsWhenPairCostBelowCap(t *testing.T) {
	books := newFakeBooks()
	books.asks["yes-tok"] = 0.45
	books.asks["no-tok"] = 0.45

	exchange := &fakeExchange{}
	exec := newTestExecutor(exchange)
	e := newTestEngine(books, exec)

	e.Evaluate(context.Background(), "m1", "Q?", "yes-tok", "no-tok", false)

	snap := e.Snapshot()
	pos := snap["m1"]
	assert.True(t, pos.PendingQtyYes > 0 || pos.PendingQtyNo > 0)
}

func TestEvaluate_SkipsWhenPairCostAtOrAboveCap(t *testing.T) {
	books := newFakeBooks()
	books.asks["yes-tok"] = 0.5
	books.asks["no-tok"] = 0.5

	exec := newTestExecutor(&fakeExchange{})
	e := newTestEngine(books, exec)

	e.Evaluate(context.Background(), "m1", "Q?", "yes-tok", "no-tok", false)

	snap := e.Snapshot()
	assert.Equal(t, 0.0, snap["m1"].PendingQtyYes)
	assert.Equal(t, 0.0, snap["m1"].PendingQtyNo)
}

func TestKillSwitch_LiquidatesAgedUnlockedPosition(t *testing.T) {
	books := newFakeBooks()
	books.bids["yes-tok"] = 0.4

	exchange := &fakeExchange{}
	exec := newTestExecutor(exchange)
	e := newTestEngine(books, exec)

	e.mu.Lock()
	e.positions["m1"] = &domain.AccumulationPosition{
		MarketID:   "m1",
		YesTokenID: "yes-tok",
		NoTokenID:  "no-tok",
		QtyYes:     10,
		CostYes:    4,
		CreatedAt:  time.Now().Add(-30 * time.Minute),
	}
	e.mu.Unlock()

	e.Evaluate(context.Background(), "m1", "Q?", "yes-tok", "no-tok", false)

	snap := e.Snapshot()
	_, exists := snap["m1"]
	assert.False(t, exists)
	assert.Len(t, exchange.placed, 1)
	assert.Equal(t, "SELL", exchange.placed[0].Side)
}

func TestReconcile_SellsExcessLeg(t *testing.T) {
	books := newFakeBooks()
	books.bids["no-tok"] = 0.5

	exchange := &fakeExchange{}
	exec := newTestExecutor(exchange)
	e := newTestEngine(books, exec)

	e.mu.Lock()
	e.positions["m1"] = &domain.AccumulationPosition{
		MarketID:   "m1",
		YesTokenID: "yes-tok",
		NoTokenID:  "no-tok",
		QtyYes:     5,
		QtyNo:      10,
	}
	e.mu.Unlock()

	e.Reconcile(context.Background())

	require.Len(t, exchange.placed, 1)
	assert.Equal(t, "no-tok", exchange.placed[0].TokenID)
	assert.InDelta(t, 5.0, exchange.placed[0].Size, 0.001)
}

type fakeMerger struct {
	mu     sync.Mutex
	merged []string
	result domain.MergeResult
	err    error
}

func (f *fakeMerger) MergePositions(ctx context.Context, conditionID string, amount float64, negRisk bool) (domain.MergeResult, error) {
	f.mu.Lock()
	f.merged = append(f.merged, conditionID)
	f.mu.Unlock()
	r := f.result
	r.ConditionID = conditionID
	r.Success = f.err == nil && r.Error == ""
	if r.USDCReceived == 0 {
		r.USDCReceived = amount
	}
	return r, f.err
}

func (f *fakeMerger) EstimateGasCostUSD(ctx context.Context) (float64, error) { return 0.01, nil }
func (f *fakeMerger) EnsureApprovals(ctx context.Context) error               { return nil }

type closedTrade struct {
	market              string
	pnl, fees, slippage float64
}

type fakeCapital struct {
	deny      bool
	allocated map[string]float64
	released  []closedTrade
}

func (f *fakeCapital) AllocateMarket(marketID string, amount float64) bool {
	if f.deny {
		return false
	}
	if f.allocated == nil {
		f.allocated = make(map[string]float64)
	}
	f.allocated[marketID] = amount
	return true
}

func (f *fakeCapital) ReleaseMarket(marketID string, pnl, fees, slippage float64) {
	f.released = append(f.released, closedTrade{marketID, pnl, fees, slippage})
}

func TestRedeem_SkipsNegRiskPositions(t *testing.T) {
	books := newFakeBooks()
	exec := newTestExecutor(&fakeExchange{})
	merger := &fakeMerger{}
	e := New(DefaultConfig(), books, exec, nil, nil, merger)

	e.mu.Lock()
	e.positions["neg"] = &domain.AccumulationPosition{
		MarketID: "neg", QtyYes: 10, CostYes: 4.8, QtyNo: 10, CostNo: 4.9,
		Locked: true, NegRisk: true,
	}
	e.positions["std"] = &domain.AccumulationPosition{
		MarketID: "std", QtyYes: 10, CostYes: 4.8, QtyNo: 10, CostNo: 4.9,
		Locked: true,
	}
	e.mu.Unlock()

	e.Redeem(context.Background())

	assert.Equal(t, []string{"std"}, merger.merged,
		"el mercado NegRisk nunca debe llegar al merge normal")

	snap := e.Snapshot()
	_, negStillThere := snap["neg"]
	assert.True(t, negStillThere, "la posición NegRisk queda pendiente de un camino de redención propio")
	_, stdGone := snap["std"]
	assert.False(t, stdGone)
}

func TestRedeem_RealizesPnLOnSuccessfulMerge(t *testing.T) {
	books := newFakeBooks()
	exec := newTestExecutor(&fakeExchange{})
	merger := &fakeMerger{result: domain.MergeResult{GasCostUSD: 0.25}}
	capGate := &fakeCapital{}

	e := New(DefaultConfig(), books, exec, nil, nil, merger)
	e.SetCapital(capGate)
	var closes []closedTrade
	e.SetOnPositionClosed(func(marketID string, pnl, fees, slippage float64) {
		closes = append(closes, closedTrade{marketID, pnl, fees, slippage})
	})

	e.mu.Lock()
	e.positions["m1"] = &domain.AccumulationPosition{
		MarketID: "m1", QtyYes: 100, CostYes: 48, QtyNo: 100, CostNo: 49,
		Locked: true,
	}
	e.mu.Unlock()

	e.Redeem(context.Background())

	// merge de 100 pares a $1: proceeds 100, coste 97, gas 0.25 → pnl 2.75
	require.Len(t, capGate.released, 1)
	assert.InDelta(t, 2.75, capGate.released[0].pnl, 1e-9)
	assert.InDelta(t, 0.25, capGate.released[0].fees, 1e-9)

	require.Len(t, closes, 1)
	assert.Equal(t, "m1", closes[0].market)
	assert.InDelta(t, 2.75, closes[0].pnl, 1e-9)

	history := e.KellyHistory()
	require.Len(t, history, 1)
	assert.InDelta(t, 2.75, history[0].PnL, 1e-9)

	_, exists := e.Snapshot()["m1"]
	assert.False(t, exists)
}

func TestEvaluate_DeniedWithoutCapitalHeadroom(t *testing.T) {
	books := newFakeBooks()
	books.asks["yes-tok"] = 0.45
	books.asks["no-tok"] = 0.45

	exchange := &fakeExchange{}
	exec := newTestExecutor(exchange)
	e := newTestEngine(books, exec)
	e.SetCapital(&fakeCapital{deny: true})

	e.Evaluate(context.Background(), "m1", "Q?", "yes-tok", "no-tok", false)

	assert.Empty(t, e.Snapshot(), "sin capital no se abre posición")
	assert.Empty(t, exchange.placed)
}

func TestEvaluate_RecordsNegRiskOnNewPosition(t *testing.T) {
	books := newFakeBooks()
	books.asks["yes-tok"] = 0.45
	books.asks["no-tok"] = 0.45

	exec := newTestExecutor(&fakeExchange{})
	e := newTestEngine(books, exec)

	e.Evaluate(context.Background(), "m1", "Q?", "yes-tok", "no-tok", true)

	snap := e.Snapshot()
	pos, exists := snap["m1"]
	require.True(t, exists)
	assert.True(t, pos.NegRisk)
}

func TestOnFill_UpdatesPositionAndChecksLock(t *testing.T) {
	books := newFakeBooks()
	exec := newTestExecutor(&fakeExchange{})
	e := newTestEngine(books, exec)

	e.mu.Lock()
	e.positions["m1"] = &domain.AccumulationPosition{MarketID: "m1"}
	e.mu.Unlock()

	e.OnFill("m1", "YES", 20, 0.45)
	e.OnFill("m1", "NO", 20, 0.45)

	snap := e.Snapshot()
	pos := snap["m1"]
	assert.Equal(t, 20.0, pos.QtyYes)
	assert.True(t, pos.Locked)
}
