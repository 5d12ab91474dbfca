package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/pairlock/config"
	"github.com/alejandrodnm/pairlock/internal/adapters/onchain"
	"github.com/alejandrodnm/pairlock/internal/adapters/polymarket"
	"github.com/alejandrodnm/pairlock/internal/adapters/storage"
	"github.com/alejandrodnm/pairlock/internal/adapters/storage/jsonstate"
	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/alejandrodnm/pairlock/internal/engine/accumulation"
	"github.com/alejandrodnm/pairlock/internal/engine/breaker"
	"github.com/alejandrodnm/pairlock/internal/engine/capital"
	"github.com/alejandrodnm/pairlock/internal/engine/dailyloss"
	"github.com/alejandrodnm/pairlock/internal/engine/executor"
	"github.com/alejandrodnm/pairlock/internal/engine/fillmanager"
	"github.com/alejandrodnm/pairlock/internal/engine/kelly"
	"github.com/alejandrodnm/pairlock/internal/engine/lifecycle"
	"github.com/alejandrodnm/pairlock/internal/engine/optimizer"
	"github.com/alejandrodnm/pairlock/internal/engine/orderqueue"
	"github.com/alejandrodnm/pairlock/internal/engine/ratelimiter"
	"github.com/alejandrodnm/pairlock/internal/engine/snapshotscore"
	"github.com/alejandrodnm/pairlock/internal/ports"
)

// runAccumulate is the composition root for the binary accumulation engine:
// it builds the full executor/capital/dailyloss/kelly/optimizer stack,
// restores persisted state, and drives the scan -> analyze -> evaluate ->
// reconcile -> redeem loop until ctx is cancelled.
func runAccumulate(ctx context.Context, cfg *config.Config, client *polymarket.Client, journal *storage.SQLiteStorage, dryRun bool) {
	acfg := cfg.Accumulation

	state, err := jsonstate.Open(acfg.StateDir)
	if err != nil {
		slog.Error("accumulate: failed to open state store", "err", err)
		os.Exit(1)
	}
	if err := journal.ApplyJournalSchema(ctx); err != nil {
		slog.Error("accumulate: failed to apply journal schema", "err", err)
		os.Exit(1)
	}

	exchange, merger := buildExchangeAdapters(ctx, cfg, dryRun)
	if merger != nil {
		merger = &journalingMerger{next: merger, journal: journal}
	}

	books := domain.NewBookRegistry()

	limiter := ratelimiter.NewCLOBAdaptive()
	br := breaker.New("accumulate", breaker.DefaultConfig())
	queue := orderqueue.New(4)

	fills := &fillTracker{}

	// eng is referenced by the Fill Manager's onFill closure below, but can
	// only be constructed once the Executor (which the engine needs) exists;
	// the Executor in turn needs the Fill Manager. Declaring the pointer
	// here and assigning it after breaks the cycle: the closure only runs
	// once fillMgr.Run starts polling, well after eng is assigned.
	var eng *accumulation.Engine

	fillMgr := fillmanager.New(
		func(ctx context.Context, orderIDs []string) (map[string]fillmanager.OrderStatus, error) {
			return fetchOrderStatuses(ctx, exchange, orderIDs)
		},
		2*time.Second,
		func(orderID string, deltaQty, avgPrice float64) {
			if marketID, side, ok := fills.lookup(orderID); ok {
				eng.OnFill(marketID, side, deltaQty, avgPrice)
				if err := journal.RecordFill(context.Background(), domain.LiveFill{
					OrderID:   orderID,
					Price:     avgPrice,
					Size:      deltaQty,
					Timestamp: time.Now(),
				}); err != nil {
					slog.Warn("accumulate: journal fill failed", "err", err)
				}
			}
		},
		func(orderID, terminalState string, filledSize float64) {
			fills.untrack(orderID)
			status := domain.LiveStatusFilled
			switch terminalState {
			case "cancelled", "canceled":
				status = domain.LiveStatusCancelled
			case "expired":
				status = domain.LiveStatusExpired
			}
			if err := journal.UpdateOrderStatus(context.Background(), orderID, status); err != nil {
				slog.Warn("accumulate: journal order status failed", "err", err)
			}
			slog.Debug("accumulate: order reached terminal state", "order", orderID, "state", terminalState, "filled", filledSize)
		},
	)

	ledger, err := state.LoadCapital(ctx)
	if err != nil {
		slog.Warn("accumulate: failed to load capital ledger, starting fresh", "err", err)
	}
	if ledger == nil {
		ledger = domain.NewCapitalLedger(acfg.OrderSizeUSD * 20)
	}
	capMgr := capital.New(ledger, capital.Config{
		AccumulationShare: acfg.AccumulationSharePct / 100,
		AsymmetricShare:   acfg.AsymmetricSharePct / 100,
	})

	dailyCurrent, dailyHistory, _ := state.LoadDailyStats(ctx)
	lossMgr := dailyloss.New(dailyloss.Config{
		MaxDailyLossUSD: acfg.MaxDailyLossUSD,
		MaxDailyLossPct: acfg.MaxDailyLossPct,
		ResetHourUTC:    acfg.ResetHourUTC,
	}, ledger.TotalCapital, time.Now())
	if dailyCurrent != nil {
		lossMgr.Restore(dailyCurrent, dailyHistory)
	}

	execCfg := executor.DefaultConfig()
	execCfg.MaxOrderSizeUSD = acfg.OrderSizeUSD * 10
	execCfg.MaxSlippagePct = acfg.MaxSlippagePct
	execCfg.MaxConsecutiveFailures = acfg.MaxConsecutiveFailures
	execCfg.PauseDuration = time.Duration(acfg.PauseDurationSeconds) * time.Second
	execCfg.CapitalPerTrade = acfg.OrderSizeUSD
	execCfg.MaxTotalExposureUSD = ledger.TotalCapital
	exec := executor.New(execCfg, exchange, limiter, br, queue, fillMgr)

	sizer := kelly.New(kelly.DefaultConfig())

	engCfg := accumulation.DefaultConfig()
	engCfg.MaxPairCost = acfg.MaxPairCost
	engCfg.MinImprovement = acfg.MinImprovement
	engCfg.KillSwitchMinutes = acfg.KillSwitchMinutes
	engCfg.OrderSizeUSD = acfg.OrderSizeUSD
	engCfg.MarketBudgetUSD = acfg.OrderSizeUSD * 10
	engCfg.RSIOverbought = acfg.RSIOverbought
	engCfg.RSIOversold = acfg.RSIOversold
	engCfg.OBIThreshold = acfg.OBIThreshold
	engCfg.BalanceRatioThreshold = acfg.BalanceRatioThreshold

	var oracle ports.MomentumOracle // none wired; the veto is simply inert
	eng = accumulation.New(engCfg, books, exec, sizer, oracle, merger)
	eng.SetCapital(&accumulationCapital{ledger: ledger, mgr: capMgr})

	if trades, err := state.LoadKelly(ctx); err == nil {
		eng.RestoreKellyHistory(trades)
	}
	if positions, err := state.LoadPositions(ctx); err == nil {
		eng.Restore(positions)
	}

	opt := optimizer.New(optimizer.FullAuto, optimizer.Params{
		MaxPairCost:    acfg.MaxPairCost,
		MinImprovement: acfg.MinImprovement,
	}, time.Minute, recomputeAdmissionParams(books, eng), func(p optimizer.Params) {
		slog.Info("accumulate: optimizer adjusted admission params", "max_pair_cost", p.MaxPairCost, "min_improvement", p.MinImprovement)
		eng.SetAdmissionParams(p.MaxPairCost, p.MinImprovement)
	})

	metrics := lifecycle.NewMetrics()

	// Every realized close flows into the daily loss budget, the metrics
	// counters, and a fresh capital snapshot on disk.
	eng.SetOnPositionClosed(func(marketID string, pnl, fees, slippage float64) {
		lossMgr.RecordTrade(pnl)
		metrics.Inc("positions_closed", 1)
		metrics.Inc("realized_pnl", pnl)
		if pnl >= 0 {
			metrics.Inc("wins", 1)
		} else {
			metrics.Inc("losses", 1)
		}
		if err := state.SaveCapital(context.Background(), ledger); err != nil {
			slog.Warn("accumulate: capital snapshot failed", "err", err)
		}
	})

	health := lifecycle.NewHealthChecker()
	health.Register("exchange_balance", func(ctx context.Context) lifecycle.HealthStatus {
		if _, err := exec.GetBalance(ctx); err != nil {
			return lifecycle.HealthStatus{Name: "exchange_balance", Healthy: false, Detail: err.Error()}
		}
		return lifecycle.HealthStatus{Name: "exchange_balance", Healthy: true}
	})

	shutdown := lifecycle.NewGracefulShutdown(func(ctx context.Context) error {
		return state.SaveMetrics(ctx, metrics.Snapshot())
	})
	shutdown.Register("persist_positions", func(ctx context.Context) error {
		snap := eng.Snapshot()
		out := make(map[string]*domain.AccumulationPosition, len(snap))
		for id, p := range snap {
			p := p
			out[id] = &p
		}
		return state.SavePositions(ctx, out)
	})
	shutdown.Register("persist_capital", func(ctx context.Context) error {
		return state.SaveCapital(ctx, ledger)
	})
	shutdown.Register("persist_daily_stats", func(ctx context.Context) error {
		current, history := lossMgr.Snapshot()
		return state.SaveDailyStats(ctx, &current, history)
	})
	shutdown.Register("persist_kelly_history", func(ctx context.Context) error {
		return state.SaveKelly(ctx, eng.KellyHistory())
	})

	analyzer := snapshotscore.New(snapshotscore.DefaultConfig(), nil)

	go queue.Run(ctx, func(ctx context.Context, o domain.QueuedOrder) error {
		order, err := exec.PlaceOrder(ctx, domain.PlaceOrderRequest{
			TokenID:     o.TokenID,
			ConditionID: o.MarketID,
			Price:       o.Price,
			Size:        o.Size,
			Side:        "BUY",
		})
		if err != nil {
			return err
		}
		fills.record(order.CLOBOrderID, o.MarketID, eng.TokenSide(o.MarketID, o.TokenID))
		fillMgr.Track(order.CLOBOrderID)
		if err := journal.RecordOrder(ctx, domain.LiveOrder{
			CLOBOrderID: order.CLOBOrderID,
			ConditionID: o.MarketID,
			TokenID:     o.TokenID,
			Side:        eng.TokenSide(o.MarketID, o.TokenID),
			BidPrice:    o.Price,
			Size:        o.Size,
			PlacedAt:    time.Now(),
			Status:      domain.LiveStatusOpen,
		}); err != nil {
			slog.Warn("accumulate: journal order failed", "err", err)
		}
		metrics.Inc("orders_placed", 1)
		return nil
	})
	go fillMgr.Run(ctx)
	go opt.Run(ctx)
	go runFeedDispatcher(ctx, cfg.API.FeedURL, eng, books)

	interval := cfg.ScanInterval()
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	reconcileTicker := time.NewTicker(time.Minute)
	defer reconcileTicker.Stop()
	healthTicker := time.NewTicker(5 * time.Minute)
	defer healthTicker.Stop()

	slog.Info("accumulate: engine started", "dry_run", dryRun, "interval", interval, "state_dir", acfg.StateDir)

	runAccumulateCycle(ctx, client, exchange, books, analyzer, capMgr, eng, acfg)

	for {
		select {
		case <-ctx.Done():
			slog.Info("accumulate: shutting down")
			for _, err := range shutdown.Shutdown(context.Background()) {
				slog.Error("accumulate: shutdown step failed", "err", err)
			}
			return
		case <-ticker.C:
			if lossMgr.Blocked() {
				slog.Warn("accumulate: daily loss limit reached, skipping cycle")
				continue
			}
			runAccumulateCycle(ctx, client, exchange, books, analyzer, capMgr, eng, acfg)
		case <-reconcileTicker.C:
			lossMgr.MaybeReset(time.Now(), ledger.TotalCapital)
			eng.Reconcile(ctx)
			eng.Redeem(ctx)
		case <-healthTicker.C:
			for _, status := range health.RunAll(ctx) {
				if !status.Healthy {
					slog.Warn("accumulate: health check failing", "check", status.Name, "detail", status.Detail)
				}
			}
		}
	}
}

// runAccumulateCycle fetches the market catalog and fresh order books,
// feeds them into the book registry, scores each candidate, and
// evaluates each admissible market through the engine.
func runAccumulateCycle(ctx context.Context, client *polymarket.Client, exchange ports.OrderExecutor, books *domain.BookRegistry, analyzer *snapshotscore.Analyzer, capMgr *capital.Manager, eng *accumulation.Engine, acfg config.AccumulationConfig) {
	markets, err := client.FetchSamplingMarkets(ctx)
	if err != nil {
		slog.Error("accumulate: fetch markets failed", "err", err)
		return
	}

	tokenIDs := make([]string, 0, len(markets)*2)
	for _, m := range markets {
		if m.Closed || m.Tokens[0].TokenID == "" || m.Tokens[1].TokenID == "" {
			continue
		}
		tokenIDs = append(tokenIDs, m.Tokens[0].TokenID, m.Tokens[1].TokenID)
	}
	if len(tokenIDs) == 0 {
		return
	}

	bookMap, err := client.FetchOrderBooks(ctx, tokenIDs)
	if err != nil {
		slog.Error("accumulate: fetch order books failed", "err", err)
		return
	}
	for tokenID, ob := range bookMap {
		books.ApplySnapshot(tokenID, ob.Bids, ob.Asks)
	}

	if !capMgr.CanDeploy(domain.StrategyAccumulation, acfg.OrderSizeUSD) {
		slog.Debug("accumulate: capital manager denies further deployment this cycle")
		return
	}

	for _, m := range markets {
		if m.Closed || m.Tokens[0].TokenID == "" || m.Tokens[1].TokenID == "" {
			continue
		}
		yes, no := m.Tokens[0], m.Tokens[1]
		if yes.Outcome == "No" {
			yes, no = no, yes
		}

		snap := domain.Snapshot{
			MarketID:  m.ConditionID,
			TakenAt:   time.Now(),
			YesBook:   bookMap[yes.TokenID],
			NoBook:    bookMap[no.TokenID],
			Volume24h: m.Volume24h,
			EndDate:   m.EndDate,
		}
		obi := books.Imbalance(yes.TokenID, 5)
		scored := analyzer.Score(snap, obi, time.Now())
		if scored.Action == domain.ActionSkip {
			continue
		}

		negRisk, err := exchange.IsNegRisk(ctx, yes.TokenID)
		if err != nil {
			negRisk = false
		}
		eng.Evaluate(ctx, m.ConditionID, m.Question, yes.TokenID, no.TokenID, negRisk)
	}
}

// recomputeAdmissionParams builds the optimizer's Recompute function:
// wide spreads loosen max_pair_cost (patient bids have more room), high
// short-horizon volatility tightens it, and min_improvement gets stricter
// as the average tracked pair cost approaches the cap.
func recomputeAdmissionParams(books *domain.BookRegistry, eng *accumulation.Engine) optimizer.Recompute {
	return func(ctx context.Context, current optimizer.Params) (optimizer.Params, error) {
		avgSpread, avgVol := books.AggregateStats()
		if avgSpread == 0 && avgVol == 0 {
			return current, nil
		}

		target := 0.98 + clamp(avgSpread, 0, 0.02) - clamp(avgVol*2, 0, 0.02)
		target = clamp(target, 0.95, 0.99)

		// Average pair cost of two-legged positions, to decide how strict
		// the improvement gate should be near the cap.
		var pairSum float64
		var pairN int
		for _, p := range eng.Snapshot() {
			if c := p.PairCost(); c < 2.0 {
				pairSum += c
				pairN++
			}
		}
		minImprovement := 0.0
		if pairN > 0 {
			avgPair := pairSum / float64(pairN)
			proximity := clamp((avgPair-(target-0.05))/0.05, 0, 1)
			minImprovement = proximity * 0.01
		}

		return optimizer.Params{MaxPairCost: target, MinImprovement: minImprovement}, nil
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// fillTracker maps an in-flight CLOB order id back to the market/side it
// belongs to, so the Fill Manager's orderID-only callback can be routed
// into the Accumulation Engine's per-market position state.
type fillTracker struct {
	mu sync.Mutex
	m  map[string][2]string // orderID -> [marketID, side]
}

func (f *fillTracker) record(orderID, marketID, side string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		f.m = make(map[string][2]string)
	}
	f.m[orderID] = [2]string{marketID, side}
}

func (f *fillTracker) lookup(orderID string) (marketID, side string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.m[orderID]
	if !ok {
		return "", "", false
	}
	return v[0], v[1], true
}

func (f *fillTracker) untrack(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, orderID)
}

// fetchOrderStatuses adapts ports.OrderExecutor.GetOrder into the Fill
// Manager's batch status-lookup shape. Transient per-order errors drop that
// order from the result; the Fill Manager retries it next tick.
func fetchOrderStatuses(ctx context.Context, exchange ports.OrderExecutor, orderIDs []string) (map[string]fillmanager.OrderStatus, error) {
	out := make(map[string]fillmanager.OrderStatus, len(orderIDs))
	for _, id := range orderIDs {
		o, err := exchange.GetOrder(ctx, id)
		if err != nil {
			slog.Debug("accumulate: order status fetch failed, will retry", "order", id, "err", err)
			continue
		}
		terminal := o.Status == domain.LiveStatusFilled || o.Status == domain.LiveStatusCancelled || o.Status == domain.LiveStatusExpired
		out[id] = fillmanager.OrderStatus{
			OrderID:    id,
			FilledSize: o.FilledSize,
			AvgPrice:   o.FilledPrice,
			Terminal:   terminal,
			State:      string(o.Status),
		}
	}
	return out, nil
}

// runFeedDispatcher keeps a WebSocket market-channel subscription alive for
// the tokens of every active position, writing snapshots and deltas through
// the book registry. The subscription set is re-evaluated periodically; when
// it changes, the old connection is dropped and a fresh one (with a fresh
// snapshot per token) replaces it.
func runFeedDispatcher(ctx context.Context, feedURL string, eng *accumulation.Engine, books *domain.BookRegistry) {
	var (
		subCancel context.CancelFunc
		current   string
	)
	defer func() {
		if subCancel != nil {
			subCancel()
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		tokens := activePositionTokens(eng)
		key := strings.Join(tokens, ",")
		if len(tokens) > 0 && key != current {
			if subCancel != nil {
				subCancel()
			}
			subCtx, cancel := context.WithCancel(ctx)
			subCancel = cancel
			current = key

			feed := polymarket.NewFeed(feedURL)
			updates, err := feed.Subscribe(subCtx, tokens)
			if err != nil {
				slog.Warn("accumulate: feed subscribe failed", "err", err)
				current = ""
			} else {
				go dispatchBookUpdates(subCtx, updates, books)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// activePositionTokens collects the YES/NO token ids of all tracked
// positions, sorted for a stable subscription key.
func activePositionTokens(eng *accumulation.Engine) []string {
	snap := eng.Snapshot()
	tokens := make([]string, 0, len(snap)*2)
	for _, p := range snap {
		if p.YesTokenID != "" {
			tokens = append(tokens, p.YesTokenID)
		}
		if p.NoTokenID != "" {
			tokens = append(tokens, p.NoTokenID)
		}
	}
	sort.Strings(tokens)
	return tokens
}

// dispatchBookUpdates is the single writer for the book registry's
// feed-driven mutations.
func dispatchBookUpdates(ctx context.Context, updates <-chan ports.BookUpdate, books *domain.BookRegistry) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			switch u.Kind {
			case ports.BookSnapshot:
				books.ApplySnapshot(u.TokenID, toBookEntries(u.Bids), toBookEntries(u.Asks))
			case ports.BookDelta:
				books.ApplyDelta(u.TokenID, u.Side, u.Price, u.Size)
			}
		}
	}
}

func toBookEntries(levels []ports.PriceLevel) []domain.BookEntry {
	out := make([]domain.BookEntry, 0, len(levels))
	for _, l := range levels {
		out = append(out, domain.BookEntry{Price: l.Price, Size: l.Size})
	}
	return out
}

// accumulationCapital binds the engine's capital gate to the accumulation
// strategy's slice of the shared ledger: admission first checks the
// per-strategy split, then reserves against the per-market allocation table.
type accumulationCapital struct {
	ledger *domain.CapitalLedger
	mgr    *capital.Manager
}

func (c *accumulationCapital) AllocateMarket(marketID string, amount float64) bool {
	if !c.mgr.CanDeploy(domain.StrategyAccumulation, amount) {
		return false
	}
	return c.ledger.AllocateMarket(domain.StrategyAccumulation, marketID, amount)
}

func (c *accumulationCapital) ReleaseMarket(marketID string, pnl, fees, slippage float64) {
	c.ledger.ReleaseMarket(domain.StrategyAccumulation, marketID, pnl, fees, slippage)
}

// journalingMerger records every merge attempt's outcome in the trade
// journal on its way through to the real on-chain executor.
type journalingMerger struct {
	next    ports.MergeExecutor
	journal *storage.SQLiteStorage
}

func (m *journalingMerger) MergePositions(ctx context.Context, conditionID string, amount float64, negRisk bool) (domain.MergeResult, error) {
	result, err := m.next.MergePositions(ctx, conditionID, amount, negRisk)
	if result.ConditionID != "" || result.TxHash != "" {
		if jerr := m.journal.RecordMerge(ctx, result); jerr != nil {
			slog.Warn("accumulate: journal merge failed", "err", jerr)
		}
	}
	return result, err
}

func (m *journalingMerger) EstimateGasCostUSD(ctx context.Context) (float64, error) {
	return m.next.EstimateGasCostUSD(ctx)
}

func (m *journalingMerger) EnsureApprovals(ctx context.Context) error {
	return m.next.EnsureApprovals(ctx)
}

// buildExchangeAdapters wires the real CLOB trading client and on-chain
// merge executor when a wallet key is configured, or a logging dry-run
// stand-in otherwise.
func buildExchangeAdapters(ctx context.Context, cfg *config.Config, forceDryRun bool) (ports.OrderExecutor, ports.MergeExecutor) {
	privateKey := os.Getenv("POLY_PRIVATE_KEY")
	if forceDryRun || privateKey == "" {
		slog.Warn("accumulate: running without a funded wallet, orders are logged but never submitted")
		return &dryExecutor{}, nil
	}

	rpcURL := os.Getenv("POLYGON_RPC_URL")
	if rpcURL == "" {
		rpcURL = "https://polygon-rpc.com"
	}

	authClient, err := polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.GammaBase, privateKey)
	if err != nil {
		slog.Error("accumulate: failed to create auth client", "err", err)
		os.Exit(1)
	}
	if err := authClient.EnsureCreds(ctx); err != nil {
		slog.Error("accumulate: failed to derive API credentials", "err", err)
		os.Exit(1)
	}
	tradingClient, err := polymarket.NewTradingClient(authClient, rpcURL)
	if err != nil {
		slog.Error("accumulate: failed to create trading client", "err", err)
		os.Exit(1)
	}
	mergeClient, err := onchain.NewMergeClient(rpcURL, privateKey)
	if err != nil {
		slog.Error("accumulate: failed to create merge client", "err", err)
		os.Exit(1)
	}
	if err := mergeClient.EnsureApprovals(ctx); err != nil {
		slog.Error("accumulate: failed to ensure on-chain approvals", "err", err)
		os.Exit(1)
	}
	return tradingClient, mergeClient
}

// dryExecutor satisfies ports.OrderExecutor without ever touching the real
// exchange, used when no wallet key is configured (-accumulate-dry-run, or
// -accumulate with POLY_PRIVATE_KEY unset).
type dryExecutor struct {
	mu      sync.Mutex
	counter int
}

func (d *dryExecutor) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error) {
	d.mu.Lock()
	d.counter++
	n := d.counter
	d.mu.Unlock()
	slog.Info("accumulate[dry-run]: would place order", "side", req.Side, "token", req.TokenID, "price", req.Price, "size", req.Size)
	return domain.PlacedOrder{
		CLOBOrderID: fmt.Sprintf("dry-%d-%s", n, time.Now().Format("150405.000000000")),
		Status:      string(domain.LiveStatusFilled),
		TakenAmount: req.Size,
	}, nil
}
func (d *dryExecutor) CancelOrder(ctx context.Context, clobOrderID string) error { return nil }
func (d *dryExecutor) GetOrder(ctx context.Context, clobOrderID string) (domain.LiveOrder, error) {
	// Dry-run orders fill instantly, so any lookup reports a full fill.
	return domain.LiveOrder{CLOBOrderID: clobOrderID, Status: domain.LiveStatusFilled}, nil
}
func (d *dryExecutor) CancelAll(ctx context.Context) error                      { return nil }
func (d *dryExecutor) GetOpenOrders(ctx context.Context) ([]domain.LiveOrder, error) {
	return nil, nil
}
func (d *dryExecutor) GetBalance(ctx context.Context) (float64, error) { return 1000, nil }
func (d *dryExecutor) IsNegRisk(ctx context.Context, tokenID string) (bool, error) {
	return false, nil
}
func (d *dryExecutor) TokenBalance(ctx context.Context, tokenID string) (float64, error) {
	return 0, nil
}
