package ports

import (
	"context"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

// StateStore persists the five core trading-state entities as individual
// atomically-written JSON files. A single implementation backs all five
// methods by writing to a different path per entity.
type StateStore interface {
	SavePositions(ctx context.Context, positions map[string]*domain.AccumulationPosition) error
	LoadPositions(ctx context.Context) (map[string]*domain.AccumulationPosition, error)

	SaveDailyStats(ctx context.Context, current *domain.DailyStats, history []domain.DailyStats) error
	LoadDailyStats(ctx context.Context) (*domain.DailyStats, []domain.DailyStats, error)

	SaveCapital(ctx context.Context, ledger *domain.CapitalLedger) error
	LoadCapital(ctx context.Context) (*domain.CapitalLedger, error)

	SaveMetrics(ctx context.Context, metrics map[string]any) error
	LoadMetrics(ctx context.Context) (map[string]any, error)

	SaveKelly(ctx context.Context, trades []domain.KellyTrade) error
	LoadKelly(ctx context.Context) ([]domain.KellyTrade, error)
}

// MomentumOracle reports an external directional signal for a token
// (BUY/SELL/NEUTRAL), used as an optional veto input by the Accumulation
// Engine's candidate evaluation step.
type MomentumOracle interface {
	Momentum(ctx context.Context, tokenID string) (string, error)
}
