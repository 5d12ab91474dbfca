package jsonstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadPositions_RoundTrips(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	positions := map[string]*domain.AccumulationPosition{
		"m1": {MarketID: "m1", QtyYes: 10, QtyNo: 8, CreatedAt: time.Now()},
	}
	require.NoError(t, store.SavePositions(ctx, positions))

	loaded, err := store.LoadPositions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, loaded["m1"].QtyYes)
}

func TestLoadPositions_MissingFileReturnsEmptyMap(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	loaded, err := store.LoadPositions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadPositions_CorruptedFileReturnsEmptyMap(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, positionsFile), []byte("{not json"), 0o600))

	loaded, err := store.LoadPositions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSaveCapital_WritesAtomically(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)

	ledger := domain.NewCapitalLedger(1000)
	require.NoError(t, store.SaveCapital(context.Background(), ledger))

	_, err = os.Stat(filepath.Join(dir, capitalFile+".tmp"))
	assert.True(t, os.IsNotExist(err), "tmp file should be renamed away")

	loaded, err := store.LoadCapital(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1000.0, loaded.TotalCapital)
}

func TestSaveLoadKelly_RoundTrips(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	trades := []domain.KellyTrade{{PnL: 5, ClosedAt: time.Now()}, {PnL: -2, ClosedAt: time.Now()}}
	require.NoError(t, store.SaveKelly(ctx, trades))

	loaded, err := store.LoadKelly(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 5.0, loaded[0].PnL)
}

func TestSaveLoadDailyStats_RoundTrips(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	stats := &domain.DailyStats{Date: "2026-07-31", StartCapital: 500}
	history := []domain.DailyStats{{Date: "2026-07-30", RealizedPnL: -12}}
	require.NoError(t, store.SaveDailyStats(ctx, stats, history))

	loaded, archive, err := store.LoadDailyStats(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "2026-07-31", loaded.Date)
	require.Len(t, archive, 1)
	assert.Equal(t, "2026-07-30", archive[0].Date)
}

func TestSaveLoadMetrics_RoundTrips(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	metrics := map[string]any{"trades": 3.0}
	require.NoError(t, store.SaveMetrics(ctx, metrics))

	loaded, err := store.LoadMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3.0, loaded["trades"])
}
