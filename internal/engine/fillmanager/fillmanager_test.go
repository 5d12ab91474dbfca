package fillmanager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerEmitsFillDeltaAndTerminalEvent(t *testing.T) {
	var mu sync.Mutex
	var fills []float64
	var ended []string

	calls := 0
	fetcher := func(_ context.Context, ids []string) (map[string]OrderStatus, error) {
		calls++
		out := make(map[string]OrderStatus)
		for _, id := range ids {
			if calls == 1 {
				out[id] = OrderStatus{OrderID: id, FilledSize: 4, AvgPrice: 0.5}
			} else {
				out[id] = OrderStatus{OrderID: id, FilledSize: 10, AvgPrice: 0.5, Terminal: true, State: "filled"}
			}
		}
		return out, nil
	}

	m := New(fetcher, 10*time.Millisecond,
		func(orderID string, deltaQty, avgPrice float64) {
			mu.Lock()
			fills = append(fills, deltaQty)
			mu.Unlock()
		},
		func(orderID, state string, filledSize float64) {
			mu.Lock()
			ended = append(ended, state)
			mu.Unlock()
		},
	)
	m.Track("o1")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	m.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(fills), 2)
	assert.Equal(t, 4.0, fills[0])
	assert.Equal(t, 6.0, fills[1])
	require.Len(t, ended, 1)
	assert.Equal(t, "filled", ended[0])
	assert.Equal(t, 0, m.TrackedCount())
}

func TestUntrackStopsPolling(t *testing.T) {
	fetcher := func(_ context.Context, ids []string) (map[string]OrderStatus, error) {
		t.Fatalf("fetcher should not be called once untracked")
		return nil, nil
	}
	m := New(fetcher, time.Millisecond, nil, nil)
	m.Track("o1")
	m.Untrack("o1")
	assert.Equal(t, 0, m.TrackedCount())
}
