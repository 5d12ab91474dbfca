package ports

import (
	"context"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

// TradeJournal persiste el rastro de auditoría del motor: cada orden
// colocada, cada fill detectado y cada merge on-chain. Es un registro
// append-mostly sobre SQLite, separado del estado vivo (que viaja en los
// ficheros JSON atómicos de StateStore).
type TradeJournal interface {
	ApplyJournalSchema(ctx context.Context) error

	// Órdenes
	RecordOrder(ctx context.Context, order domain.LiveOrder) error
	UpdateOrderFill(ctx context.Context, clobOrderID string, filledSize, filledPrice float64, status domain.LiveOrderStatus) error
	UpdateOrderStatus(ctx context.Context, clobOrderID string, status domain.LiveOrderStatus) error
	OpenOrders(ctx context.Context) ([]domain.LiveOrder, error)

	// Fills
	RecordFill(ctx context.Context, fill domain.LiveFill) error

	// Merges
	RecordMerge(ctx context.Context, result domain.MergeResult) error
	GetMerges(ctx context.Context) ([]domain.MergeResult, error)
}
