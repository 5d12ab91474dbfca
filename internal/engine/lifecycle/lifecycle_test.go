package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics()
	m.Inc("fills", 1)
	m.Inc("fills", 2)
	m.Set("positions_open", 5)

	assert.Equal(t, 3.0, m.Get("fills"))
	snap := m.Snapshot()
	assert.Equal(t, 3.0, snap["fills"])
	assert.Equal(t, 5.0, snap["positions_open"])
	assert.Contains(t, snap, "uptime_seconds")
}

func TestHealthCheckerAggregatesStatus(t *testing.T) {
	h := NewHealthChecker()
	h.Register("exchange", func(ctx context.Context) HealthStatus {
		return HealthStatus{Name: "exchange", Healthy: true}
	})
	h.Register("feed", func(ctx context.Context) HealthStatus {
		return HealthStatus{Name: "feed", Healthy: false, Detail: "disconnected"}
	})

	assert.False(t, h.Healthy(context.Background()))
	results := h.RunAll(context.Background())
	assert.Len(t, results, 2)
}

func TestGracefulShutdownRunsInOrderThenPersists(t *testing.T) {
	var order []string
	g := NewGracefulShutdown(func(ctx context.Context) error {
		order = append(order, "persist")
		return nil
	})
	g.Register("a", func(ctx context.Context) error {
		order = append(order, "a")
		return nil
	})
	g.Register("b", func(ctx context.Context) error {
		order = append(order, "b")
		return errors.New("boom")
	})

	errs := g.Shutdown(context.Background())
	require.Len(t, errs, 1)
	assert.Equal(t, []string{"a", "b", "persist"}, order)
}
