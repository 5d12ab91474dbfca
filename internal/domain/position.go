package domain

import "time"

// AccumulationPosition tracks one market's progress toward a locked,
// risk-free pair of YES+NO inventory. A market has at most one active
// position at a time; the Accumulation Engine is its sole owner.
type AccumulationPosition struct {
	MarketID   string `json:"market_id"`
	Question   string `json:"question"`
	YesTokenID string `json:"token_yes_id"`
	NoTokenID  string `json:"token_no_id"`

	QtyYes  float64 `json:"qty_yes"`
	CostYes float64 `json:"cost_yes"`
	QtyNo   float64 `json:"qty_no"`
	CostNo  float64 `json:"cost_no"`

	PendingQtyYes  float64 `json:"pending_qty_yes"`
	PendingCostYes float64 `json:"pending_cost_yes"`
	PendingQtyNo   float64 `json:"pending_qty_no"`
	PendingCostNo  float64 `json:"pending_cost_no"`

	// SoldProceeds acumula USDC de ventas parciales (reconciliación) antes
	// del cierre, para que el P&L realizado al cerrar lo incluya.
	SoldProceeds float64 `json:"sold_proceeds"`

	// NegRisk marca mercados del adaptador NegRisk: la redención los salta
	// porque el merge normal no sirve para ellos.
	NegRisk bool `json:"neg_risk"`

	Locked    bool      `json:"is_locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvgPriceYes returns cost_yes/qty_yes, or 0 if qty_yes is 0.
func (p *AccumulationPosition) AvgPriceYes() float64 {
	if p.QtyYes <= 0 {
		return 0
	}
	return p.CostYes / p.QtyYes
}

// AvgPriceNo returns cost_no/qty_no, or 0 if qty_no is 0.
func (p *AccumulationPosition) AvgPriceNo() float64 {
	if p.QtyNo <= 0 {
		return 0
	}
	return p.CostNo / p.QtyNo
}

// PairCost is avg_price(yes) + avg_price(no) once both legs are non-zero;
// otherwise it is the sentinel 2.0 ("not tradable yet").
func (p *AccumulationPosition) PairCost() float64 {
	if p.QtyYes <= 0 || p.QtyNo <= 0 {
		return 2.0
	}
	return p.AvgPriceYes() + p.AvgPriceNo()
}

// HedgedQty is the portion of the position balanced across both outcomes.
func (p *AccumulationPosition) HedgedQty() float64 {
	return minFloat(p.QtyYes, p.QtyNo)
}

// TotalCost is the dollar cost of both legs combined.
func (p *AccumulationPosition) TotalCost() float64 {
	return p.CostYes + p.CostNo
}

// LockedProfit is the guaranteed payout above cost once locked, else 0.
func (p *AccumulationPosition) LockedProfit() float64 {
	if !p.Locked {
		return 0
	}
	return p.HedgedQty() - p.TotalCost()
}

// Balance is qty_yes - qty_no, used by the reconciliation task.
func (p *AccumulationPosition) Balance() float64 {
	return p.QtyYes - p.QtyNo
}

// Age is how long the position has existed.
func (p *AccumulationPosition) Age() time.Duration {
	return time.Since(p.CreatedAt)
}

// ApplyFill records a confirmed fill on one leg: moves the filled amount out
// of pending (clamped at 0) and into the real quantity/cost.
func (p *AccumulationPosition) ApplyFill(side string, qty, avgPrice float64) {
	cost := qty * avgPrice
	switch side {
	case "YES":
		p.QtyYes += qty
		p.CostYes += cost
		p.PendingQtyYes = maxFloat(0, p.PendingQtyYes-qty)
		p.PendingCostYes = maxFloat(0, p.PendingCostYes-cost)
	case "NO":
		p.QtyNo += qty
		p.CostNo += cost
		p.PendingQtyNo = maxFloat(0, p.PendingQtyNo-qty)
		p.PendingCostNo = maxFloat(0, p.PendingCostNo-cost)
	}
	p.UpdatedAt = time.Now()
}

// ReservePending increments the pending fields immediately on submission,
// before confirmation, so the engine never double-orders while an order is
// in flight.
func (p *AccumulationPosition) ReservePending(side string, qty, price float64) {
	cost := qty * price
	switch side {
	case "YES":
		p.PendingQtyYes += qty
		p.PendingCostYes += cost
	case "NO":
		p.PendingQtyNo += qty
		p.PendingCostNo += cost
	}
	p.UpdatedAt = time.Now()
}

// ReleasePending decrements pending by an unfilled remainder reported by a
// terminal (non-fill) order-end event, clamped at 0.
func (p *AccumulationPosition) ReleasePending(side string, remainingQty, remainingCost float64) {
	switch side {
	case "YES":
		p.PendingQtyYes = maxFloat(0, p.PendingQtyYes-remainingQty)
		p.PendingCostYes = maxFloat(0, p.PendingCostYes-remainingCost)
	case "NO":
		p.PendingQtyNo = maxFloat(0, p.PendingQtyNo-remainingQty)
		p.PendingCostNo = maxFloat(0, p.PendingCostNo-remainingCost)
	}
	p.UpdatedAt = time.Now()
}

// MaybeLock applies the lock check: once pair_cost is below the cap and the
// hedged quantity exceeds total cost, the position is locked permanently.
func (p *AccumulationPosition) MaybeLock(maxPairCost float64) {
	if p.Locked {
		return
	}
	if p.QtyYes <= 0 || p.QtyNo <= 0 {
		return
	}
	if p.PairCost() < maxPairCost && p.HedgedQty() > p.TotalCost() {
		p.Locked = true
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
