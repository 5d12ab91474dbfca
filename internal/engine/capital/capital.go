// Package capital manages how total trading capital is split between the
// accumulation and asymmetric strategies and exposes deploy/release
// bookkeeping on top of domain.CapitalLedger.
package capital

import (
	"sync"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

// Config fixes the target share of total capital each strategy may draw
// on; the remainder stays in reserve as a drawdown buffer.
type Config struct {
	AccumulationShare float64
	AsymmetricShare   float64
}

// DefaultConfig dedicates the large majority of capital to the
// pair-cost accumulation strategy, leaving the asymmetric variant a
// smaller sleeve and a reserve buffer.
func DefaultConfig() Config {
	return Config{AccumulationShare: 0.7, AsymmetricShare: 0.2}
}

// Manager enforces per-strategy allocation caps on top of a shared ledger.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	ledger *domain.CapitalLedger
}

// New builds a manager over ledger with the given allocation shares.
func New(ledger *domain.CapitalLedger, cfg Config) *Manager {
	return &Manager{ledger: ledger, cfg: cfg}
}

// capForStrategy must be called with m.mu held.
func (m *Manager) capForStrategy(s domain.StrategyName) float64 {
	switch s {
	case domain.StrategyAccumulation:
		return m.ledger.TotalCapital * m.cfg.AccumulationShare
	case domain.StrategyAsymmetric:
		return m.ledger.TotalCapital * m.cfg.AsymmetricShare
	default:
		return 0
	}
}

// CanDeploy reports whether amount can be deployed for strategy s without
// exceeding both its per-strategy cap and the ledger's overall available
// capital.
func (m *Manager) CanDeploy(s domain.StrategyName, amount float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount <= 0 {
		return true
	}
	if m.ledger.DeployedFor(s)+amount > m.capForStrategy(s) {
		return false
	}
	return amount <= m.ledger.Available()
}

// Deploy moves amount from available into strategy s's bucket; returns
// false without mutating state if the deploy would exceed either cap.
func (m *Manager) Deploy(s domain.StrategyName, amount float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount <= 0 {
		return true
	}
	if m.ledger.DeployedFor(s)+amount > m.capForStrategy(s) {
		return false
	}
	return m.ledger.Deploy(s, amount)
}

// Release returns amount from strategy s back to available capital.
func (m *Manager) Release(s domain.StrategyName, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger.Release(s, amount)
}

// Available returns capital not currently deployed by any strategy.
func (m *Manager) Available() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Available()
}

// Headroom returns how much more strategy s may deploy before hitting its
// per-strategy cap.
func (m *Manager) Headroom(s domain.StrategyName) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.capForStrategy(s) - m.ledger.DeployedFor(s)
	if h < 0 {
		return 0
	}
	avail := m.ledger.Available()
	if h > avail {
		return avail
	}
	return h
}
