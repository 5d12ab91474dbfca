// Package fillmanager polls the exchange for the status of tracked orders
// and turns changes into fill-delta and terminal-order-end callbacks.
package fillmanager

import (
	"context"
	"sync"
	"time"
)

const defaultPollInterval = 2 * time.Second

// OrderStatus is the exchange's present view of one tracked order.
type OrderStatus struct {
	OrderID    string
	FilledSize float64
	AvgPrice   float64
	Terminal   bool   // true once the order can no longer receive fills
	State      string // open | filled | cancelled | rejected | expired
}

// StatusFetcher retrieves the current status of a batch of tracked order
// IDs in one round trip.
type StatusFetcher func(ctx context.Context, orderIDs []string) (map[string]OrderStatus, error)

// OnFill is invoked whenever an order's filled size increases, with the
// incremental (not cumulative) quantity and the fill's average price.
type OnFill func(orderID string, deltaQty, avgPrice float64)

// OnOrderEnd is invoked once when a tracked order reaches a terminal state,
// after which it is no longer polled.
type OnOrderEnd func(orderID string, state string, filledSize float64)

// Manager tracks a set of live order IDs and reconciles them against the
// exchange on a fixed poll interval.
type Manager struct {
	mu           sync.Mutex
	tracked      map[string]float64 // orderID -> last known filled size
	fetcher      StatusFetcher
	pollInterval time.Duration
	onFill       OnFill
	onOrderEnd   OnOrderEnd
}

// New builds a fill manager polling via fetcher every pollInterval (0 uses
// the default of 2s).
func New(fetcher StatusFetcher, pollInterval time.Duration, onFill OnFill, onOrderEnd OnOrderEnd) *Manager {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Manager{
		tracked:      make(map[string]float64),
		fetcher:      fetcher,
		pollInterval: pollInterval,
		onFill:       onFill,
		onOrderEnd:   onOrderEnd,
	}
}

// Track begins polling orderID, starting from zero filled size.
func (m *Manager) Track(orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tracked[orderID]; !ok {
		m.tracked[orderID] = 0
	}
}

// Untrack stops polling orderID without emitting a terminal callback; use
// this for cancellations the caller already knows about.
func (m *Manager) Untrack(orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tracked, orderID)
}

// TrackedCount returns how many orders are presently tracked.
func (m *Manager) TrackedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracked)
}

// Run polls until ctx is cancelled, reconciling fills and terminal events
// on every tick.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Manager) poll(ctx context.Context) {
	ids := m.snapshotIDs()
	if len(ids) == 0 {
		return
	}

	statuses, err := m.fetcher(ctx, ids)
	if err != nil {
		return
	}

	for _, id := range ids {
		status, ok := statuses[id]
		if !ok {
			continue
		}
		m.reconcileOne(id, status)
	}
}

func (m *Manager) snapshotIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.tracked))
	for id := range m.tracked {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) reconcileOne(id string, status OrderStatus) {
	m.mu.Lock()
	last, ok := m.tracked[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delta := status.FilledSize - last
	if delta > 0 {
		m.tracked[id] = status.FilledSize
	}
	terminal := status.Terminal
	if terminal {
		delete(m.tracked, id)
	}
	m.mu.Unlock()

	if delta > 0 && m.onFill != nil {
		m.onFill(id, delta, status.AvgPrice)
	}
	if terminal && m.onOrderEnd != nil {
		m.onOrderEnd(id, status.State, status.FilledSize)
	}
}
