// Package jsonstate implements ports.StateStore: crash-safe persistence of
// the five core trading-state entities (positions, daily stats, capital,
// metrics, kelly history) as individual JSON files, one per entity.
// Writes use atomic file replacement (write to .tmp, then rename) so a
// crash mid-save never leaves a corrupted file behind.
package jsonstate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

const (
	positionsFile  = "positions.json"
	dailyStatsFile = "daily_stats.json"
	capitalFile    = "capital.json"
	metricsFile    = "metrics.json"
	kellyFile      = "kelly.json"
)

// Store persists trading state under a directory, one JSON file per
// entity, each written by a single owning writer under its own lock.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open creates a Store backed by dir, creating it if necessary.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) writeAtomic(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return os.Rename(tmp, path)
}

// readInto loads name into v. A missing file is not an error: v is left
// unmodified. A corrupted file is logged and treated as empty rather
// than failing startup.
func (s *Store) readInto(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("corrupted state file, starting from empty", "file", name, "err", err)
		return nil
	}
	return nil
}

// SavePositions writes the full position set to positions.json.
func (s *Store) SavePositions(ctx context.Context, positions map[string]*domain.AccumulationPosition) error {
	return s.writeAtomic(positionsFile, positions)
}

// LoadPositions reads positions.json, returning an empty map if absent or
// corrupted.
func (s *Store) LoadPositions(ctx context.Context) (map[string]*domain.AccumulationPosition, error) {
	positions := make(map[string]*domain.AccumulationPosition)
	if err := s.readInto(positionsFile, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// dailyStatsDoc is the on-disk shape of daily_stats.json: today's bucket
// plus the archived last 30 days.
type dailyStatsDoc struct {
	Current *domain.DailyStats  `json:"current"`
	History []domain.DailyStats `json:"history"`
}

// SaveDailyStats writes today's stats and the archive to daily_stats.json.
func (s *Store) SaveDailyStats(ctx context.Context, current *domain.DailyStats, history []domain.DailyStats) error {
	return s.writeAtomic(dailyStatsFile, dailyStatsDoc{Current: current, History: history})
}

// LoadDailyStats reads daily_stats.json, returning nils if absent or
// corrupted.
func (s *Store) LoadDailyStats(ctx context.Context) (*domain.DailyStats, []domain.DailyStats, error) {
	var doc dailyStatsDoc
	if err := s.readInto(dailyStatsFile, &doc); err != nil {
		return nil, nil, err
	}
	return doc.Current, doc.History, nil
}

// SaveCapital writes the capital ledger to capital.json.
func (s *Store) SaveCapital(ctx context.Context, ledger *domain.CapitalLedger) error {
	return s.writeAtomic(capitalFile, ledger)
}

// LoadCapital reads capital.json, returning nil if absent or corrupted.
func (s *Store) LoadCapital(ctx context.Context) (*domain.CapitalLedger, error) {
	var ledger *domain.CapitalLedger
	if err := s.readInto(capitalFile, &ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// SaveMetrics writes the metrics snapshot to metrics.json.
func (s *Store) SaveMetrics(ctx context.Context, metrics map[string]any) error {
	return s.writeAtomic(metricsFile, metrics)
}

// LoadMetrics reads metrics.json, returning an empty map if absent or
// corrupted.
func (s *Store) LoadMetrics(ctx context.Context) (map[string]any, error) {
	metrics := make(map[string]any)
	if err := s.readInto(metricsFile, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// SaveKelly writes the trade history ring to kelly.json.
func (s *Store) SaveKelly(ctx context.Context, trades []domain.KellyTrade) error {
	return s.writeAtomic(kellyFile, trades)
}

// LoadKelly reads kelly.json, returning an empty slice if absent or
// corrupted.
func (s *Store) LoadKelly(ctx context.Context) ([]domain.KellyTrade, error) {
	var trades []domain.KellyTrade
	if err := s.readInto(kellyFile, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}
