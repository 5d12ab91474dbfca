// Package orderqueue implements the priority order queue that sits between
// the Accumulation Engine and the Exchange Adapter: urgent orders jump
// ahead of high, high ahead of normal, each priority is FIFO, in-flight
// dispatch is bounded by a semaphore, and a ring buffer of recently seen
// dedup keys suppresses accidental duplicate submissions.
package orderqueue

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

const (
	defaultMaxConcurrent = 3
	dedupWindow          = 200
	baseRetryDelay       = 50 * time.Millisecond
	defaultMaxRetries    = 2
	wakeTimeout          = 100 * time.Millisecond
)

// Handler dispatches one order to the exchange and reports its outcome.
// Errors classified as ErrKindValidation or ErrKindRejected are dropped
// without retry; ErrKindTransient and ErrKindRateLimited are retried up to
// the queue's MaxRetries.
type Handler func(ctx context.Context, order domain.QueuedOrder) error

// Queue is a priority dispatch queue with bounded concurrency and
// duplicate suppression.
type Queue struct {
	mu              sync.Mutex
	urgent          *list.List
	high            *list.List
	normal          *list.List
	dedupSeen       map[string]struct{}
	dedupOrder      []string
	sem             chan struct{}
	wake            chan struct{}
	maxRetries      int
	retryDelay      time.Duration
	onDrop          func(domain.QueuedOrder, error)
}

// New builds a queue with the given concurrency bound.
func New(maxConcurrent int) *Queue {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Queue{
		urgent:     list.New(),
		high:       list.New(),
		normal:     list.New(),
		dedupSeen:  make(map[string]struct{}),
		sem:        make(chan struct{}, maxConcurrent),
		wake:       make(chan struct{}, 1),
		maxRetries: defaultMaxRetries,
		retryDelay: baseRetryDelay,
	}
}

// OnDrop registers a callback invoked whenever an order is permanently
// dropped (duplicate, validation failure, or retries exhausted).
func (q *Queue) OnDrop(fn func(domain.QueuedOrder, error)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onDrop = fn
}

// Enqueue adds an order to its priority's FIFO, unless its dedup key
// matches one of the last dedupWindow orders seen, in which case it is
// dropped and ErrDuplicateOrder reported via OnDrop.
func (q *Queue) Enqueue(o domain.QueuedOrder) error {
	q.mu.Lock()
	key := o.DedupKey()
	if _, seen := q.dedupSeen[key]; seen {
		cb := q.onDrop
		q.mu.Unlock()
		if cb != nil {
			cb(o, domain.ErrDuplicateOrder)
		}
		return domain.ErrDuplicateOrder
	}
	q.remember(key)

	switch o.Priority {
	case domain.PriorityUrgent:
		q.urgent.PushBack(o)
	case domain.PriorityHigh:
		q.high.PushBack(o)
	default:
		q.normal.PushBack(o)
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// requeue re-inserts an order already admitted past dedup (a retry),
// without consulting the dedup window again.
func (q *Queue) requeue(o domain.QueuedOrder) {
	q.mu.Lock()
	switch o.Priority {
	case domain.PriorityUrgent:
		q.urgent.PushBack(o)
	case domain.PriorityHigh:
		q.high.PushBack(o)
	default:
		q.normal.PushBack(o)
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// remember must be called with q.mu held.
func (q *Queue) remember(key string) {
	q.dedupSeen[key] = struct{}{}
	q.dedupOrder = append(q.dedupOrder, key)
	if len(q.dedupOrder) > dedupWindow {
		evict := q.dedupOrder[0]
		q.dedupOrder = q.dedupOrder[1:]
		delete(q.dedupSeen, evict)
	}
}

// pop removes and returns the next order in priority order, or false if
// all FIFOs are empty.
func (q *Queue) pop() (domain.QueuedOrder, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, l := range []*list.List{q.urgent, q.high, q.normal} {
		if front := l.Front(); front != nil {
			l.Remove(front)
			return front.Value.(domain.QueuedOrder), true
		}
	}
	return domain.QueuedOrder{}, false
}

// Run drains the queue until ctx is cancelled, dispatching each order to
// handle with up to MaxConcurrent in flight. Retryable failures are
// re-enqueued at the back of their priority after retryDelay*retries.
func (q *Queue) Run(ctx context.Context, handle Handler) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		order, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				continue
			case <-time.After(wakeTimeout):
				continue
			}
		}

		select {
		case q.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		wg.Add(1)
		go func(o domain.QueuedOrder) {
			defer wg.Done()
			defer func() { <-q.sem }()
			q.dispatch(ctx, handle, o)
		}(order)
	}
}

func (q *Queue) dispatch(ctx context.Context, handle Handler, o domain.QueuedOrder) {
	err := handle(ctx, o)
	if err == nil {
		return
	}

	switch domain.KindOf(err) {
	case domain.ErrKindTransient, domain.ErrKindRateLimited:
		if o.Retries >= q.effectiveMaxRetries(o) {
			q.drop(o, err)
			return
		}
		o.Retries++
		delay := q.retryDelay * time.Duration(o.Retries)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		q.requeue(o)
	default:
		q.drop(o, err)
	}
}

func (q *Queue) effectiveMaxRetries(o domain.QueuedOrder) int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return q.maxRetries
}

func (q *Queue) drop(o domain.QueuedOrder, err error) {
	q.mu.Lock()
	cb := q.onDrop
	q.mu.Unlock()
	if cb != nil {
		cb(o, err)
	}
}

// Len returns the total number of orders currently queued across all
// priorities.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.urgent.Len() + q.high.Len() + q.normal.Len()
}
