// Package dailyloss tracks realized P&L against a daily loss budget and
// throttles position sizing as the budget is consumed.
package dailyloss

import (
	"sync"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

const (
	reducedThreshold = 0.5
	warningThreshold = 0.7
	blockedThreshold = 1.0
	archiveDays      = 30
)

// Config tunes the daily loss budget and the UTC hour trading resets.
type Config struct {
	MaxDailyLossUSD float64
	MaxDailyLossPct float64
	ResetHourUTC    int
}

// Manager owns the current day's DailyStats and a bounded archive of past
// days, resetting automatically when the UTC clock crosses ResetHourUTC
// into a new date.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	current *domain.DailyStats
	archive []domain.DailyStats
}

// New starts a manager for the given starting capital, dated to now.
func New(cfg Config, startCapital float64, now time.Time) *Manager {
	return &Manager{
		cfg:     cfg,
		current: newStats(now, startCapital),
	}
}

func newStats(now time.Time, capital float64) *domain.DailyStats {
	return &domain.DailyStats{
		Date:         now.UTC().Format("2006-01-02"),
		StartCapital: capital,
		Status:       domain.LossNormal,
		UpdatedAt:    now,
	}
}

// Restore replaces the current stats and archive, used when loading
// persisted state at startup.
func (m *Manager) Restore(current *domain.DailyStats, archive []domain.DailyStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current != nil {
		m.current = current
	}
	m.archive = archive
}

// MaybeReset archives the current day and starts a fresh one if now has
// crossed into a new UTC trading day at or after ResetHourUTC.
func (m *Manager) MaybeReset(now time.Time, capital float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	today := now.UTC().Format("2006-01-02")
	if today == m.current.Date {
		return
	}
	if now.UTC().Hour() < m.cfg.ResetHourUTC {
		return
	}

	m.archive = append(m.archive, *m.current)
	if len(m.archive) > archiveDays {
		m.archive = m.archive[len(m.archive)-archiveDays:]
	}
	m.current = newStats(now, capital)
}

// RecordTrade folds a realized P&L amount into today's stats and
// recomputes the traffic-light status.
func (m *Manager) RecordTrade(pnl float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.RecordTrade(pnl)
	m.recomputeStatus()
}

// RecordMerge increments the day's merge counter without affecting P&L
// (the P&L is recorded separately via RecordTrade once the merge's profit
// is realized).
func (m *Manager) RecordMerge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.MergeCount++
	m.current.UpdatedAt = time.Now()
}

func (m *Manager) recomputeStatus() {
	limit := m.effectiveLimit()
	ratio := m.current.LossRatio(limit)
	switch {
	case ratio >= blockedThreshold:
		m.current.Status = domain.LossBlocked
	case ratio >= warningThreshold:
		m.current.Status = domain.LossWarning
	case ratio >= reducedThreshold:
		m.current.Status = domain.LossReduced
	default:
		m.current.Status = domain.LossNormal
	}
}

// effectiveLimit must be called with m.mu held.
func (m *Manager) effectiveLimit() float64 {
	pctLimit := m.cfg.MaxDailyLossPct * m.current.StartCapital
	if m.cfg.MaxDailyLossUSD <= 0 {
		return pctLimit
	}
	if pctLimit <= 0 {
		return m.cfg.MaxDailyLossUSD
	}
	if m.cfg.MaxDailyLossUSD < pctLimit {
		return m.cfg.MaxDailyLossUSD
	}
	return pctLimit
}

// Status returns the current traffic-light status and its position-size
// multiplier.
func (m *Manager) Status() (domain.DailyLossStatus, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit := m.effectiveLimit()
	ratio := m.current.LossRatio(limit)
	return m.current.Status, m.current.Status.SizeMultiplier(ratio)
}

// Blocked reports whether trading is currently blocked for the day.
func (m *Manager) Blocked() bool {
	status, _ := m.Status()
	return status == domain.LossBlocked
}

// Snapshot returns a copy of today's stats and the archive, for
// persistence.
func (m *Manager) Snapshot() (domain.DailyStats, []domain.DailyStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.current, append([]domain.DailyStats(nil), m.archive...)
}
