package ports

import (
	"context"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

// OrderExecutor places, cancels, and monitors real orders on the CLOB.
type OrderExecutor interface {
	// PlaceOrder signs and submits a limit order to the CLOB. BUY orders
	// rest as maker bids; SELL orders priced at the bid cross immediately.
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error)

	// CancelOrder cancels a specific order by its CLOB order ID.
	CancelOrder(ctx context.Context, clobOrderID string) error

	// CancelAll cancels all open orders for this wallet.
	CancelAll(ctx context.Context) error

	// GetOrder fetches a single order's live state (fill progress, terminal
	// status) by its CLOB order ID.
	GetOrder(ctx context.Context, clobOrderID string) (domain.LiveOrder, error)

	// GetOpenOrders returns all currently open/partial orders from the CLOB.
	GetOpenOrders(ctx context.Context) ([]domain.LiveOrder, error)

	// GetBalance returns the available USDC.e balance in the CLOB.
	GetBalance(ctx context.Context) (float64, error)

	// IsNegRisk returns true if the given token/market uses the NegRisk adapter.
	IsNegRisk(ctx context.Context, tokenID string) (bool, error)

	// TokenBalance returns the on-chain ERC-1155 balance (in shares) for a token.
	// This is the ground truth — if > 0, the order was filled regardless of
	// local state.
	TokenBalance(ctx context.Context, tokenID string) (float64, error)
}

// MergeExecutor executes on-chain CTF merge transactions.
type MergeExecutor interface {
	// MergePositions merges amount YES+NO tokens into USDC.e on-chain.
	// conditionID is the market's condition ID.
	// amount is the number of token sets to merge (in USDC units).
	// negRisk indicates if the market uses the NegRisk adapter.
	MergePositions(ctx context.Context, conditionID string, amount float64, negRisk bool) (domain.MergeResult, error)

	// EstimateGasCostUSD returns the current estimated gas cost in USD for a merge tx.
	EstimateGasCostUSD(ctx context.Context) (float64, error)

	// EnsureApprovals verifies and sets ERC1155 setApprovalForAll on all three
	// exchange contracts. Should be called on startup.
	EnsureApprovals(ctx context.Context) error
}
