package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateMarket_DebitsAvailable(t *testing.T) {
	ledger := NewCapitalLedger(1000)
	ok := ledger.AllocateMarket(StrategyAccumulation, "m1", 100)
	assert.True(t, ok)
	assert.Equal(t, 900.0, ledger.Available())
}

func TestAllocateMarket_RejectsDuplicateMarket(t *testing.T) {
	ledger := NewCapitalLedger(1000)
	assert.True(t, ledger.AllocateMarket(StrategyAccumulation, "m1", 100))
	assert.False(t, ledger.AllocateMarket(StrategyAccumulation, "m1", 50))
	assert.Equal(t, 900.0, ledger.Available())
}

func TestAllocateMarket_RejectsInsufficientCapital(t *testing.T) {
	ledger := NewCapitalLedger(50)
	assert.False(t, ledger.AllocateMarket(StrategyAccumulation, "m1", 100))
	assert.Equal(t, 50.0, ledger.Available())
}

func TestReleaseMarket_CreditsBackAndRecordsPnL(t *testing.T) {
	ledger := NewCapitalLedger(1000)
	ledger.AllocateMarket(StrategyAccumulation, "m1", 100)
	ledger.ReleaseMarket(StrategyAccumulation, "m1", 5.0, 1.0, 0.5)

	assert.Equal(t, 1000.0, ledger.Available())
	assert.Equal(t, 5.0, ledger.RealizedPnL[StrategyAccumulation])
	assert.Equal(t, 1.0, ledger.FeesPaid[StrategyAccumulation])
	assert.Equal(t, 0.5, ledger.SlippageCost[StrategyAccumulation])
	assert.Equal(t, 1, ledger.TradesCount[StrategyAccumulation])
	_, stillAllocated := ledger.MarketAllocated[StrategyAccumulation]["m1"]
	assert.False(t, stillAllocated)
}

func TestReleaseMarket_NoOpWithoutAllocation(t *testing.T) {
	ledger := NewCapitalLedger(1000)
	ledger.ReleaseMarket(StrategyAccumulation, "m1", 5.0, 1.0, 0.5)
	assert.Equal(t, 1000.0, ledger.Available())
	assert.Equal(t, 0.0, ledger.RealizedPnL[StrategyAccumulation])
}

func TestUpdateUnrealizedPnL_IsInformationalOnly(t *testing.T) {
	ledger := NewCapitalLedger(1000)
	ledger.AllocateMarket(StrategyAccumulation, "m1", 100)
	ledger.UpdateUnrealizedPnL(StrategyAccumulation, "m1", 3.5)

	assert.Equal(t, 3.5, ledger.UnrealizedPnL[StrategyAccumulation]["m1"])
	assert.Equal(t, 900.0, ledger.Available())
}
