// Package accumulation implements the strategy core: for each
// candidate market it decides whether to buy YES, NO, both, or nothing,
// tracking per-market AccumulationPosition state until the hedged pair
// locks in a risk-free payout.
package accumulation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/alejandrodnm/pairlock/internal/engine/executor"
	"github.com/alejandrodnm/pairlock/internal/engine/kelly"
	"github.com/alejandrodnm/pairlock/internal/ports"
)

// Config tunes admission, candidate evaluation, filters, and maintenance
// cadence.
type Config struct {
	MaxPairCost            float64
	MinImprovement         float64
	KillSwitchMinutes      float64
	OrderSizeUSD           float64
	// MarketBudgetUSD is the capital reserved against the ledger when a new
	// position opens, released with realized P&L when it closes.
	MarketBudgetUSD        float64
	RSIOverbought          float64
	RSIOversold            float64
	OBIThreshold           float64
	BalanceRatioThreshold  float64
	ReconcileInterval      time.Duration
	ReconcileBalanceShares float64
	MaxPairCostSlippage    float64
	ScoreMultiplierDefault float64
}

// DefaultConfig is the production tuning.
func DefaultConfig() Config {
	return Config{
		MaxPairCost:            0.98,
		MinImprovement:         0.01,
		KillSwitchMinutes:      20,
		OrderSizeUSD:           20,
		MarketBudgetUSD:        200,
		RSIOverbought:          70,
		RSIOversold:            30,
		OBIThreshold:           0.3,
		BalanceRatioThreshold:  1.5,
		ReconcileInterval:      time.Minute,
		ReconcileBalanceShares: 2,
		MaxPairCostSlippage:    0.99,
		ScoreMultiplierDefault: 1.0,
	}
}

// Books supplies live best bid/ask for a token, backed by domain.LocalBook
// in production.
type Books interface {
	BestAsk(tokenID string) (price, size float64)
	BestBid(tokenID string) (price, size float64)
	Imbalance(tokenID string, n int) float64
	PriceHistory(tokenID string) []float64
}

// Capital reserves per-market capital when a position opens and releases it
// (with realized pnl/fees/slippage) when it closes. A nil Capital disables
// the gate.
type Capital interface {
	AllocateMarket(marketID string, amount float64) bool
	ReleaseMarket(marketID string, pnl, fees, slippage float64)
}

// OnPositionClosed observes every realized outcome: pnl after all sells and
// redemptions, plus the fees and slippage the close incurred.
type OnPositionClosed func(marketID string, pnl, fees, slippage float64)

// Engine owns the set of active AccumulationPositions and runs the
// admission/candidate/filter/size/submit procedure on every tick.
type Engine struct {
	cfg      Config
	books    Books
	exec     *executor.Executor
	kelly    *kelly.Sizer
	oracle   ports.MomentumOracle
	merger   ports.MergeExecutor
	capital  Capital
	onClosed OnPositionClosed

	mu        sync.Mutex
	positions map[string]*domain.AccumulationPosition

	kellyHistory []domain.KellyTrade
}

// New builds an Engine. oracle and merger may be nil to disable the
// momentum veto and redemption task respectively.
func New(cfg Config, books Books, exec *executor.Executor, sizer *kelly.Sizer, oracle ports.MomentumOracle, merger ports.MergeExecutor) *Engine {
	if cfg.MarketBudgetUSD <= 0 {
		cfg.MarketBudgetUSD = cfg.OrderSizeUSD * 10
	}
	return &Engine{
		cfg:       cfg,
		books:     books,
		exec:      exec,
		kelly:     sizer,
		oracle:    oracle,
		merger:    merger,
		positions: make(map[string]*domain.AccumulationPosition),
	}
}

// SetCapital wires the per-market capital gate; call before the engine
// starts evaluating.
func (e *Engine) SetCapital(c Capital) {
	e.capital = c
}

// SetOnPositionClosed registers the realized-outcome observer (daily loss,
// metrics); call before the engine starts evaluating.
func (e *Engine) SetOnPositionClosed(fn OnPositionClosed) {
	e.onClosed = fn
}

// Restore seeds the engine's in-memory positions from persisted state.
func (e *Engine) Restore(positions map[string]*domain.AccumulationPosition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if positions != nil {
		e.positions = positions
	}
}

// Snapshot returns a shallow copy of all tracked positions, for
// persistence.
func (e *Engine) Snapshot() map[string]domain.AccumulationPosition {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]domain.AccumulationPosition, len(e.positions))
	for id, p := range e.positions {
		out[id] = *p
	}
	return out
}

// Evaluate runs the full per-tick procedure for one market: kill switch,
// admission, candidate evaluation, filters, balance preference, sizing,
// and order submission. negRisk is recorded on the position (it decides the
// redemption path) and forwarded to the executor so legs carry the correct
// neg-risk flag.
func (e *Engine) Evaluate(ctx context.Context, marketID, question, yesTokenID, noTokenID string, negRisk bool) {
	e.mu.Lock()
	pos, exists := e.positions[marketID]
	if exists {
		pos.NegRisk = negRisk
	}
	e.mu.Unlock()

	if exists {
		if e.killSwitch(ctx, pos) {
			return
		}
		if pos.Locked {
			return
		}
	}

	yesAsk, _ := e.books.BestAsk(yesTokenID)
	noAsk, _ := e.books.BestAsk(noTokenID)
	if yesAsk <= 0 || noAsk <= 0 {
		return
	}
	pairCost := yesAsk + noAsk
	if pairCost >= e.cfg.MaxPairCost {
		return
	}

	// Candidate math runs against the live position, or a throwaway empty
	// one for markets we don't hold yet; nothing is tracked or allocated
	// until a leg actually survives the filters.
	eval := pos
	if eval == nil {
		eval = &domain.AccumulationPosition{
			MarketID:   marketID,
			Question:   question,
			YesTokenID: yesTokenID,
			NoTokenID:  noTokenID,
			NegRisk:    negRisk,
		}
	}

	side, improvement := e.bestCandidate(eval, yesAsk, noAsk)
	if side == "" {
		return
	}

	side = e.applyFilters(eval, side, yesTokenID, noTokenID)
	if side == "" {
		return
	}

	if !exists {
		if e.capital != nil && !e.capital.AllocateMarket(marketID, e.cfg.MarketBudgetUSD) {
			slog.Debug("accumulation admission denied, no capital headroom", "market", marketID)
			return
		}
		eval.CreatedAt = time.Now()
		eval.UpdatedAt = time.Now()
		e.mu.Lock()
		e.positions[marketID] = eval
		e.mu.Unlock()
		pos = eval
	}

	slog.Debug("accumulation candidate selected",
		"market", marketID, "side", side, "improvement", improvement)
	e.submit(ctx, pos, side, yesAsk, noAsk, negRisk)
	pos.MaybeLock(e.cfg.MaxPairCost)
}

// killSwitch liquidates a position at market and drops it if it has aged
// past KillSwitchMinutes without locking.
func (e *Engine) killSwitch(ctx context.Context, pos *domain.AccumulationPosition) bool {
	if pos.Locked {
		return false
	}
	if pos.Age() < time.Duration(e.cfg.KillSwitchMinutes*float64(time.Minute)) {
		return false
	}
	if pos.QtyYes <= 0 && pos.QtyNo <= 0 {
		return false
	}
	slog.Warn("accumulation kill switch triggered", "market", pos.MarketID, "age", pos.Age())
	var proceeds float64
	if pos.QtyYes > 0 {
		proceeds += e.marketSell(ctx, pos, "YES", pos.QtyYes, "kill_switch")
	}
	if pos.QtyNo > 0 {
		proceeds += e.marketSell(ctx, pos, "NO", pos.QtyNo, "kill_switch")
	}
	e.closePosition(pos, proceeds, 0, 0)
	return true
}

// bestCandidate computes the improvement_leg for each side and returns the
// one whose hypothetical pair cost both improves by more than
// MinImprovement and stays under MaxPairCost; returns "" if neither
// qualifies.
func (e *Engine) bestCandidate(pos *domain.AccumulationPosition, yesAsk, noAsk float64) (side string, improvement float64) {
	current := pos.PairCost()

	hypoYes := e.hypotheticalPairCost(pos, "YES", yesAsk, noAsk)
	hypoNo := e.hypotheticalPairCost(pos, "NO", yesAsk, noAsk)

	improveYes := current - hypoYes
	improveNo := current - hypoNo

	yesOK := improveYes > e.cfg.MinImprovement && hypoYes < e.cfg.MaxPairCost
	noOK := improveNo > e.cfg.MinImprovement && hypoNo < e.cfg.MaxPairCost

	switch {
	case yesOK && noOK:
		if improveYes >= improveNo {
			return "YES", improveYes
		}
		return "NO", improveNo
	case yesOK:
		return "YES", improveYes
	case noOK:
		return "NO", improveNo
	default:
		return "", 0
	}
}

// hypotheticalPairCost projects the pair cost after buying one order of
// side at its ask. An empty opposite leg is priced at its current ask: the
// engine would have to buy it there to complete the pair, so that is the
// honest cost of the candidate.
func (e *Engine) hypotheticalPairCost(pos *domain.AccumulationPosition, side string, yesAsk, noAsk float64) float64 {
	switch side {
	case "YES":
		qty := pos.QtyYes + e.cfg.OrderSizeUSD/yesAsk
		cost := pos.CostYes + e.cfg.OrderSizeUSD
		avgYes := cost / qty
		avgNo := pos.AvgPriceNo()
		if pos.QtyNo <= 0 {
			avgNo = noAsk
		}
		return avgYes + avgNo
	case "NO":
		qty := pos.QtyNo + e.cfg.OrderSizeUSD/noAsk
		cost := pos.CostNo + e.cfg.OrderSizeUSD
		avgNo := cost / qty
		avgYes := pos.AvgPriceYes()
		if pos.QtyYes <= 0 {
			avgYes = yesAsk
		}
		return avgYes + avgNo
	}
	return 2.0
}

// applyFilters vetoes side based on RSI trend, order book imbalance, and
// an external momentum oracle, then resolves balance preference if both
// legs still stand. Returns "" if the candidate is fully vetoed.
func (e *Engine) applyFilters(pos *domain.AccumulationPosition, side, yesTokenID, noTokenID string) string {
	tokenForSide := yesTokenID
	if side == "NO" {
		tokenForSide = noTokenID
	}

	if prices := e.books.PriceHistory(tokenForSide); len(prices) > 0 {
		rsi, ok := domain.RSI(prices, 14)
		if ok {
			if side == "NO" && rsi > e.cfg.RSIOverbought {
				return ""
			}
			if side == "YES" && rsi < e.cfg.RSIOversold {
				return ""
			}
		}
	}

	obi := e.books.Imbalance(tokenForSide, 5)
	if obi > e.cfg.OBIThreshold && side == "NO" {
		return ""
	}
	if obi < -e.cfg.OBIThreshold && side == "YES" {
		return ""
	}

	if e.oracle != nil {
		signal, err := e.oracle.Momentum(context.Background(), tokenForSide)
		if err == nil {
			switch signal {
			case "BUY":
				return "YES"
			case "SELL":
				return "NO"
			}
		}
	}

	return e.balancePreference(pos, side)
}

// balancePreference steers side selection by current YES/NO balance when
// the inventory has drifted past the configured ratio.
func (e *Engine) balancePreference(pos *domain.AccumulationPosition, side string) string {
	ratio := (pos.QtyYes + 1) / (pos.QtyNo + 1)
	if ratio > e.cfg.BalanceRatioThreshold {
		return "NO"
	}
	if 1/ratio > e.cfg.BalanceRatioThreshold {
		return "YES"
	}
	return side
}

// submit reserves pending inventory and places a single-leg buy through
// the Executor's queue, scaled by the Kelly sizer when trade history is
// available. The executor's admission gate runs first: paused, disabled,
// throttled, or over-exposed executors reject the order before any pending
// inventory is reserved.
func (e *Engine) submit(ctx context.Context, pos *domain.AccumulationPosition, side string, yesAsk, noAsk float64, negRisk bool) {
	if ok, reason := e.exec.CanTrade(pos.MarketID); !ok {
		slog.Debug("accumulation order withheld", "market", pos.MarketID, "reason", reason)
		return
	}
	price := yesAsk
	tokenID := pos.YesTokenID
	if side == "NO" {
		price = noAsk
		tokenID = pos.NoTokenID
	}

	multiplier := e.cfg.ScoreMultiplierDefault
	if e.kelly != nil {
		stats := e.kelly.Compute(e.kellyHistory)
		multiplier = stats.RecommendedSize
	}

	sizeUSD := e.cfg.OrderSizeUSD * multiplier
	qty := sizeUSD / price

	pos.ReservePending(side, qty, price)

	err := e.exec.QueueOrder(domain.PlaceOrderRequest{
		TokenID:     tokenID,
		ConditionID: pos.MarketID,
		Price:       price,
		Size:        qty,
		Side:        "BUY",
		NegRisk:     negRisk,
	}, domain.PriorityNormal, price, pos.TotalCost())
	if err != nil {
		pos.ReleasePending(side, qty, qty*price)
		slog.Error("accumulation order submission failed", "market", pos.MarketID, "side", side, "err", err)
	}
}

// OnFill is the Fill Manager callback that moves a confirmed fill from
// pending into the position's real quantity/cost, then re-checks the lock
// condition.
func (e *Engine) OnFill(marketID, side string, qty, avgPrice float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.positions[marketID]
	if !ok {
		return
	}
	pos.ApplyFill(side, qty, avgPrice)
	pos.MaybeLock(e.cfg.MaxPairCost)
}

// Reconcile runs the once-per-minute maintenance task: for every active
// position with no in-flight pending, it sells the excess leg if the
// YES/NO balance has drifted beyond ReconcileBalanceShares.
func (e *Engine) Reconcile(ctx context.Context) {
	e.mu.Lock()
	targets := make([]*domain.AccumulationPosition, 0, len(e.positions))
	for _, p := range e.positions {
		if p.PendingQtyYes > 0 || p.PendingQtyNo > 0 {
			continue
		}
		targets = append(targets, p)
	}
	e.mu.Unlock()

	for _, pos := range targets {
		balance := pos.Balance()
		if balance > e.cfg.ReconcileBalanceShares {
			pos.SoldProceeds += e.marketSell(ctx, pos, "YES", balance, "reconciliation")
		} else if -balance > e.cfg.ReconcileBalanceShares {
			pos.SoldProceeds += e.marketSell(ctx, pos, "NO", -balance, "reconciliation")
		}
	}
}

// marketSell crosses qty shares of one leg at the best bid and returns the
// USDC proceeds, or 0 if the sell could not be placed.
func (e *Engine) marketSell(ctx context.Context, pos *domain.AccumulationPosition, side string, qty float64, reason string) float64 {
	tokenID := pos.YesTokenID
	bid, _ := e.books.BestBid(pos.YesTokenID)
	if side == "NO" {
		tokenID = pos.NoTokenID
		bid, _ = e.books.BestBid(pos.NoTokenID)
	}
	if bid <= 0 {
		slog.Error("cannot market-sell, no bid available", "market", pos.MarketID, "side", side, "reason", reason)
		return 0
	}
	_, err := e.exec.PlaceOrder(ctx, domain.PlaceOrderRequest{
		TokenID:     tokenID,
		ConditionID: pos.MarketID,
		Price:       bid,
		Size:        qty,
		Side:        "SELL",
	})
	if err != nil {
		slog.Error("market-sell failed", "market", pos.MarketID, "side", side, "reason", reason, "err", err)
		return 0
	}
	if side == "YES" {
		pos.QtyYes -= qty
	} else {
		pos.QtyNo -= qty
	}
	pos.UpdatedAt = time.Now()
	return qty * bid
}

// Redeem issues best-effort parallel redemption calls for every locked
// position via the on-chain settlement adapter. Each position carries the
// NegRisk flag observed when it was evaluated; NegRisk markets are skipped
// (and logged) pending adapter support for the NegRisk parent-collection
// path, never pushed through the normal merge path. A successful merge
// realizes the position's P&L.
func (e *Engine) Redeem(ctx context.Context) {
	if e.merger == nil {
		return
	}
	e.mu.Lock()
	var locked []*domain.AccumulationPosition
	for _, p := range e.positions {
		if p.Locked {
			locked = append(locked, p)
		}
	}
	e.mu.Unlock()

	var wg sync.WaitGroup
	for _, pos := range locked {
		if pos.NegRisk {
			slog.Info("skipping redemption for neg-risk market", "market", pos.MarketID)
			continue
		}
		wg.Add(1)
		go func(p *domain.AccumulationPosition) {
			defer wg.Done()
			amount := p.HedgedQty()
			result, err := e.merger.MergePositions(ctx, p.MarketID, amount, false)
			if err != nil || !result.Success {
				slog.Warn("redemption failed, will retry next cycle", "market", p.MarketID, "err", err)
				return
			}
			proceeds := result.USDCReceived
			if proceeds == 0 {
				proceeds = amount // 1:1 merge
			}
			e.closePosition(p, proceeds, result.GasCostUSD, 0)
		}(pos)
	}
	wg.Wait()
}

// closePosition removes a position from the active set and realizes its
// outcome: pnl = proceeds + earlier partial-sell proceeds - total cost.
// The Kelly history, the capital ledger, the executor's exposure table, and
// the close observer all see the same number.
func (e *Engine) closePosition(pos *domain.AccumulationPosition, proceeds, fees, slippage float64) {
	e.mu.Lock()
	delete(e.positions, pos.MarketID)
	e.mu.Unlock()

	pnl := proceeds + pos.SoldProceeds - pos.TotalCost() - fees
	e.RecordTrade(pnl)
	if e.capital != nil {
		e.capital.ReleaseMarket(pos.MarketID, pnl, fees, slippage)
	}
	if e.exec != nil {
		e.exec.ReleaseMarketExposure(pos.MarketID)
	}
	if e.onClosed != nil {
		e.onClosed(pos.MarketID, pnl, fees, slippage)
	}
	slog.Info("position closed", "market", pos.MarketID, "pnl", pnl, "fees", fees)
}

// RecordTrade appends a completed trade's P&L to the Kelly history ring,
// bounded to the sizer's lookback window.
func (e *Engine) RecordTrade(pnl float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kellyHistory = append(e.kellyHistory, domain.KellyTrade{PnL: pnl, ClosedAt: time.Now()})
	const maxHistory = 500
	if len(e.kellyHistory) > maxHistory {
		e.kellyHistory = e.kellyHistory[len(e.kellyHistory)-maxHistory:]
	}
}

// KellyHistory returns a copy of the recorded trade P&L ring, for
// persistence between restarts.
func (e *Engine) KellyHistory() []domain.KellyTrade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.KellyTrade, len(e.kellyHistory))
	copy(out, e.kellyHistory)
	return out
}

// RestoreKellyHistory seeds the Kelly trade ring from persisted state.
func (e *Engine) RestoreKellyHistory(trades []domain.KellyTrade) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kellyHistory = trades
}

// SetAdmissionParams overrides the pair-cost admission thresholds at
// runtime, the hook the auto-optimizer drives.
func (e *Engine) SetAdmissionParams(maxPairCost, minImprovement float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.MaxPairCost = maxPairCost
	e.cfg.MinImprovement = minImprovement
}

// TokenSide reports whether tokenID is the YES or NO leg of marketID's
// tracked position, used by the executor's fill-to-position mapping.
// Returns "" if the market or token is unknown.
func (e *Engine) TokenSide(marketID, tokenID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.positions[marketID]
	if !ok {
		return ""
	}
	switch tokenID {
	case pos.YesTokenID:
		return "YES"
	case pos.NoTokenID:
		return "NO"
	default:
		return ""
	}
}
