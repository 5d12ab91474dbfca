package orderqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueDropsDuplicate(t *testing.T) {
	q := New(1)
	o := domain.QueuedOrder{ID: "1", TokenID: "tok", Side: "YES", Price: 0.5, Size: 10}

	require.NoError(t, q.Enqueue(o))
	err := q.Enqueue(o)
	assert.ErrorIs(t, err, domain.ErrDuplicateOrder)
	assert.Equal(t, 1, q.Len())
}

func TestRunDispatchesInPriorityOrder(t *testing.T) {
	q := New(1)
	var mu sync.Mutex
	var seen []string

	require.NoError(t, q.Enqueue(domain.QueuedOrder{ID: "n1", TokenID: "a", Side: "YES", Price: 0.1, Size: 1, Priority: domain.PriorityNormal}))
	require.NoError(t, q.Enqueue(domain.QueuedOrder{ID: "u1", TokenID: "b", Side: "YES", Price: 0.2, Size: 1, Priority: domain.PriorityUrgent}))
	require.NoError(t, q.Enqueue(domain.QueuedOrder{ID: "h1", TokenID: "c", Side: "YES", Price: 0.3, Size: 1, Priority: domain.PriorityHigh}))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	go q.Run(ctx, func(_ context.Context, o domain.QueuedOrder) error {
		mu.Lock()
		seen = append(seen, o.ID)
		mu.Unlock()
		if len(seen) == 3 {
			cancel()
		}
		return nil
	})

	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, []string{"u1", "h1", "n1"}, seen)
}

func TestRunRetriesTransientFailureThenDrops(t *testing.T) {
	q := New(1)
	q.retryDelay = time.Millisecond
	var attempts int
	var dropped bool
	var mu sync.Mutex

	q.OnDrop(func(o domain.QueuedOrder, err error) {
		mu.Lock()
		dropped = true
		mu.Unlock()
	})

	require.NoError(t, q.Enqueue(domain.QueuedOrder{ID: "r1", TokenID: "a", Side: "YES", Price: 0.1, Size: 1, MaxRetries: 2}))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	go q.Run(ctx, func(_ context.Context, o domain.QueuedOrder) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return domain.NewKindError(domain.ErrKindTransient, "test", assertErr)
	})

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts) // initial + 2 retries
	assert.True(t, dropped)
}

var assertErr = context.DeadlineExceeded
