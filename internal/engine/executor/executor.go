// Package executor accepts strategy decisions, validates them against
// order-size/position/slippage policy, serializes submission per market,
// and submits bilateral (YES+NO) or single-leg orders against the exchange,
// coordinating the order queue and fill manager.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/alejandrodnm/pairlock/internal/engine/breaker"
	"github.com/alejandrodnm/pairlock/internal/engine/fillmanager"
	"github.com/alejandrodnm/pairlock/internal/engine/orderqueue"
	"github.com/alejandrodnm/pairlock/internal/engine/ratelimiter"
	"github.com/alejandrodnm/pairlock/internal/ports"
)

// Config tunes order validation and bilateral-execution policy.
type Config struct {
	MinOrderSizeUSD        float64
	MaxOrderSizeUSD        float64
	MaxPositionPerMarket   float64
	MaxSlippagePct         float64
	MaxConsecutiveFailures int
	PauseDuration          time.Duration
	WaitForFillsTimeout    time.Duration
	MinTradeInterval       time.Duration
	MaxOpenPositions       int

	// CapitalPerTrade is the notional a single new trade is assumed to add;
	// CanTrade denies admission when adding it would push the executor's
	// outstanding exposure past MaxTotalExposureUSD. 0 disables the cap.
	CapitalPerTrade     float64
	MaxTotalExposureUSD float64
}

// DefaultConfig is the production tuning.
func DefaultConfig() Config {
	return Config{
		MinOrderSizeUSD:        1.0,
		MaxOrderSizeUSD:        500.0,
		MaxPositionPerMarket:   1000.0,
		MaxSlippagePct:         0.02,
		MaxConsecutiveFailures: 5,
		PauseDuration:          60 * time.Second,
		WaitForFillsTimeout:    5 * time.Second,
		MinTradeInterval:       0,
		MaxOpenPositions:       0, // 0 = unbounded
		CapitalPerTrade:        20,
		MaxTotalExposureUSD:    0, // 0 = unbounded
	}
}

// TradeResult reports the outcome of a bilateral execution.
type TradeResult struct {
	Success   bool
	IsPartial bool
	YesOrder  *domain.PlacedOrder
	NoOrder   *domain.PlacedOrder
	Error     string
}

// Opportunity is the minimal input ExecuteOpportunity needs: a market and
// each leg's current best ask, used for the slippage/eligibility check and
// per-side sizing.
type Opportunity struct {
	MarketID    string
	YesTokenID  string
	NoTokenID   string
	PriceYes    float64
	PriceNo     float64
	NegRisk     bool
}

// Executor coordinates order validation, per-market serialization, bilateral
// submission, and handoff to the Order Queue / Fill Manager.
type Executor struct {
	cfg Config

	exchange ports.OrderExecutor
	limiter  *ratelimiter.AdaptiveLimiter
	br       *breaker.Breaker
	queue    *orderqueue.Queue
	fills    *fillmanager.Manager

	mu          sync.Mutex
	marketLocks map[string]*sync.Mutex
	lastTradeAt map[string]time.Time
	// exposure tracks outstanding notional per market, added when orders
	// are admitted and released when the strategy closes the position.
	exposure map[string]float64

	ready            bool
	autoTrading      bool
	consecutiveFails int
	pausedUntil      time.Time
}

// New builds an Executor wired to the exchange adapter, a rate limiter,
// circuit breaker, order queue, and fill manager.
func New(cfg Config, exchange ports.OrderExecutor, limiter *ratelimiter.AdaptiveLimiter, br *breaker.Breaker, queue *orderqueue.Queue, fills *fillmanager.Manager) *Executor {
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = DefaultConfig().MaxConsecutiveFailures
	}
	if cfg.PauseDuration <= 0 {
		cfg.PauseDuration = DefaultConfig().PauseDuration
	}
	if cfg.WaitForFillsTimeout <= 0 {
		cfg.WaitForFillsTimeout = DefaultConfig().WaitForFillsTimeout
	}
	return &Executor{
		cfg:         cfg,
		exchange:    exchange,
		limiter:     limiter,
		br:          br,
		queue:       queue,
		fills:       fills,
		marketLocks: make(map[string]*sync.Mutex),
		lastTradeAt: make(map[string]time.Time),
		exposure:    make(map[string]float64),
		ready:       true,
		autoTrading: true,
	}
}

// SetAutoTrading enables or disables new trade submission without affecting
// in-flight orders.
func (e *Executor) SetAutoTrading(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoTrading = on
}

// CanTrade reports whether a new trade may be submitted right now, and a
// reason when it may not.
func (e *Executor) CanTrade(marketID string) (bool, string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return false, "executor not ready"
	}
	if !e.autoTrading {
		return false, "auto-trading disabled"
	}
	if time.Now().Before(e.pausedUntil) {
		return false, "paused after consecutive failures"
	}
	if e.cfg.MinTradeInterval > 0 {
		if last, ok := e.lastTradeAt[marketID]; ok && time.Since(last) < e.cfg.MinTradeInterval {
			return false, "minimum inter-trade interval not elapsed"
		}
	}
	if e.cfg.MaxOpenPositions > 0 && len(e.exposure) >= e.cfg.MaxOpenPositions {
		if _, open := e.exposure[marketID]; !open {
			return false, "open-position limit reached"
		}
	}
	if e.cfg.MaxTotalExposureUSD > 0 {
		var total float64
		for _, usd := range e.exposure {
			total += usd
		}
		if total+e.cfg.CapitalPerTrade > e.cfg.MaxTotalExposureUSD {
			return false, "total-exposure cap reached"
		}
	}
	return true, ""
}

// addExposure must run under e.mu; it accumulates admitted notional for
// marketID.
func (e *Executor) addExposure(marketID string, usd float64) {
	e.exposure[marketID] += usd
}

// ReleaseMarketExposure drops a market's outstanding exposure once its
// position is closed (merged, liquidated, or abandoned).
func (e *Executor) ReleaseMarketExposure(marketID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.exposure, marketID)
}

// lockFor returns the mutex serializing operations on marketID, creating it
// on first use.
func (e *Executor) lockFor(marketID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.marketLocks[marketID]
	if !ok {
		l = &sync.Mutex{}
		e.marketLocks[marketID] = l
	}
	return l
}

// ValidateOrder checks the order validation policy against one leg:
// price in (0,1), positive size, notional and per-market position caps,
// and slippage against the reference mid.
func (e *Executor) ValidateOrder(req domain.PlaceOrderRequest, referenceMid, existingPositionUSD float64) error {
	if req.Price <= 0 || req.Price >= 1 {
		return domain.NewKindError(domain.ErrKindValidation, "executor.validate", fmt.Errorf("price %.4f out of (0,1)", req.Price))
	}
	if req.Size <= 0 {
		return domain.NewKindError(domain.ErrKindValidation, "executor.validate", fmt.Errorf("size must be positive"))
	}
	notional := req.Price * req.Size
	if notional < e.cfg.MinOrderSizeUSD || notional > e.cfg.MaxOrderSizeUSD {
		return domain.NewKindError(domain.ErrKindValidation, "executor.validate", fmt.Errorf("notional $%.2f outside [%.2f, %.2f]", notional, e.cfg.MinOrderSizeUSD, e.cfg.MaxOrderSizeUSD))
	}
	if existingPositionUSD+notional > e.cfg.MaxPositionPerMarket {
		return domain.NewKindError(domain.ErrKindValidation, "executor.validate", fmt.Errorf("position would exceed max_position_per_market %.2f", e.cfg.MaxPositionPerMarket))
	}
	if referenceMid > 0 {
		slippage := abs(req.Price-referenceMid) / referenceMid
		if slippage > e.cfg.MaxSlippagePct {
			return domain.NewKindError(domain.ErrKindValidation, "executor.validate", fmt.Errorf("slippage %.4f exceeds max_slippage_pct %.4f", slippage, e.cfg.MaxSlippagePct))
		}
	}
	return nil
}

// QueueOrder validates req and enqueues it on the Order Queue at the given
// priority; submission, retry, and dispatch are handled asynchronously by
// the queue's processor loop.
func (e *Executor) QueueOrder(req domain.PlaceOrderRequest, priority domain.OrderPriority, referenceMid, existingPositionUSD float64) error {
	if err := e.ValidateOrder(req, referenceMid, existingPositionUSD); err != nil {
		return err
	}
	err := e.queue.Enqueue(domain.QueuedOrder{
		ID:         uuid.NewString(),
		MarketID:   req.ConditionID,
		TokenID:    req.TokenID,
		Side:       req.Side,
		Price:      req.Price,
		Size:       req.Size,
		Priority:   priority,
		EnqueuedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	if req.Side == "BUY" {
		e.mu.Lock()
		e.addExposure(req.ConditionID, req.Price*req.Size)
		e.mu.Unlock()
	}
	return nil
}

// PlaceOrder submits req directly against the exchange, guarded by the rate
// limiter and circuit breaker, bypassing the queue. Used for bilateral
// legs, which need synchronous partial-failure handling.
func (e *Executor) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error) {
	allowed, err := e.br.Allow()
	if !allowed {
		return domain.PlacedOrder{}, err
	}
	if err := e.limiter.Wait(ctx); err != nil {
		e.br.RecordFailure()
		return domain.PlacedOrder{}, domain.NewKindError(domain.ErrKindTransient, "executor.place", err)
	}

	order, err := e.exchange.PlaceOrder(ctx, req)
	if err != nil {
		e.br.RecordFailure()
		e.limiter.OnRejected()
		return domain.PlacedOrder{}, domain.NewKindError(domain.ErrKindTransient, "executor.place", err)
	}
	e.br.RecordSuccess()
	e.limiter.OnSuccess()
	return order, nil
}

// CancelOrder cancels a single order by its CLOB order id.
func (e *Executor) CancelOrder(ctx context.Context, clobOrderID string) error {
	return e.exchange.CancelOrder(ctx, clobOrderID)
}

// CancelAll cancels every open order for this wallet.
func (e *Executor) CancelAll(ctx context.Context) error {
	return e.exchange.CancelAll(ctx)
}

// GetBalance returns the available USDC.e balance.
func (e *Executor) GetBalance(ctx context.Context) (float64, error) {
	return e.exchange.GetBalance(ctx)
}

// ExecuteOpportunity submits both legs of a bilateral accumulation buy
// concurrently. If exactly one leg succeeds, the other is cancelled to
// avoid directional exposure.
func (e *Executor) ExecuteOpportunity(ctx context.Context, opp Opportunity, capitalPerTrade, scoreMultiplier float64, maxPairCostSlippageCheck float64) TradeResult {
	lock := e.lockFor(opp.MarketID)
	lock.Lock()
	defer lock.Unlock()

	if opp.PriceYes+opp.PriceNo > maxPairCostSlippageCheck {
		return TradeResult{Success: false, Error: "pair cost exceeds slippage-check threshold"}
	}

	sizeUSD := capitalPerTrade * scoreMultiplier / (opp.PriceYes + opp.PriceNo) / 2
	yesSize := sizeUSD / opp.PriceYes
	noSize := sizeUSD / opp.PriceNo

	type legResult struct {
		order domain.PlacedOrder
		err   error
	}
	yesCh := make(chan legResult, 1)
	noCh := make(chan legResult, 1)

	go func() {
		o, err := e.PlaceOrder(ctx, domain.PlaceOrderRequest{
			TokenID: opp.YesTokenID, ConditionID: opp.MarketID, Price: opp.PriceYes, Size: yesSize, Side: "BUY", NegRisk: opp.NegRisk,
		})
		yesCh <- legResult{o, err}
	}()
	go func() {
		o, err := e.PlaceOrder(ctx, domain.PlaceOrderRequest{
			TokenID: opp.NoTokenID, ConditionID: opp.MarketID, Price: opp.PriceNo, Size: noSize, Side: "BUY", NegRisk: opp.NegRisk,
		})
		noCh <- legResult{o, err}
	}()

	yesRes := <-yesCh
	noRes := <-noCh

	e.mu.Lock()
	e.lastTradeAt[opp.MarketID] = time.Now()
	e.mu.Unlock()

	switch {
	case yesRes.err == nil && noRes.err == nil:
		e.recordOutcome(true)
		e.mu.Lock()
		e.addExposure(opp.MarketID, sizeUSD*2)
		e.mu.Unlock()
		if e.fills != nil {
			e.fills.Track(yesRes.order.CLOBOrderID)
			e.fills.Track(noRes.order.CLOBOrderID)
		}
		yo, no := yesRes.order, noRes.order
		return TradeResult{Success: true, YesOrder: &yo, NoOrder: &no}

	case yesRes.err == nil && noRes.err != nil:
		e.recordOutcome(false)
		cancelErr := e.CancelOrder(ctx, yesRes.order.CLOBOrderID)
		if cancelErr != nil {
			return TradeResult{Success: false, IsPartial: true, Error: fmt.Sprintf("NO leg failed (%v); YES leg cancel ALSO failed (%v): uncovered position risk", noRes.err, cancelErr)}
		}
		return TradeResult{Success: false, IsPartial: true, Error: fmt.Sprintf("NO leg failed: %v", noRes.err)}

	case yesRes.err != nil && noRes.err == nil:
		e.recordOutcome(false)
		cancelErr := e.CancelOrder(ctx, noRes.order.CLOBOrderID)
		if cancelErr != nil {
			return TradeResult{Success: false, IsPartial: true, Error: fmt.Sprintf("YES leg failed (%v); NO leg cancel ALSO failed (%v): uncovered position risk", yesRes.err, cancelErr)}
		}
		return TradeResult{Success: false, IsPartial: true, Error: fmt.Sprintf("YES leg failed: %v", yesRes.err)}

	default:
		e.recordOutcome(false)
		return TradeResult{Success: false, Error: fmt.Sprintf("both legs failed: YES=%v NO=%v", yesRes.err, noRes.err)}
	}
}

// recordOutcome updates the consecutive-failure counter and pauses the
// executor once the threshold is reached.
func (e *Executor) recordOutcome(success bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if success {
		e.consecutiveFails = 0
		return
	}
	e.consecutiveFails++
	if e.consecutiveFails >= e.cfg.MaxConsecutiveFailures {
		e.pausedUntil = time.Now().Add(e.cfg.PauseDuration)
		e.consecutiveFails = 0
	}
}

// WaitForFills polls each leg's status for up to cfg.WaitForFillsTimeout as
// a courtesy update; correctness does not depend on this returning promptly
// because the Fill Manager converges regardless.
func (e *Executor) WaitForFills(ctx context.Context, orderIDs []string) map[string]domain.LiveOrder {
	deadline := time.Now().Add(e.cfg.WaitForFillsTimeout)
	result := make(map[string]domain.LiveOrder, len(orderIDs))
	for time.Now().Before(deadline) {
		orders, err := e.exchange.GetOpenOrders(ctx)
		if err != nil {
			time.Sleep(200 * time.Millisecond)
			continue
		}
		byID := make(map[string]domain.LiveOrder, len(orders))
		for _, o := range orders {
			byID[o.CLOBOrderID] = o
		}
		allDone := true
		for _, id := range orderIDs {
			if o, ok := byID[id]; ok {
				result[id] = o
				if o.Status != domain.LiveStatusFilled && o.Status != domain.LiveStatusCancelled && o.Status != domain.LiveStatusExpired {
					allDone = false
				}
			} else {
				allDone = false
			}
		}
		if allDone {
			break
		}
		select {
		case <-ctx.Done():
			return result
		case <-time.After(200 * time.Millisecond):
		}
	}
	return result
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
