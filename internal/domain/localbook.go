package domain

import (
	"sort"
	"sync"
	"time"
)

// maxBookLevels bounds how many price levels the Local Order Book keeps per
// side; deeper levels are dropped after every mutation.
const maxBookLevels = 50

// bookStaleAfter is how long a book can go without an update before reads
// are flagged stale.
const bookStaleAfter = 5 * time.Second

// LocalBook is a mutable, mutex-protected order book maintained from
// WebSocket snapshot/delta messages. Unlike OrderBook (an immutable
// point-in-time view handed to the scanner), LocalBook is the live working
// copy the Accumulation Engine reads best bid/ask from on every tick.
type LocalBook struct {
	mu        sync.RWMutex
	tokenID   string
	bids      []BookEntry // descending by price
	asks      []BookEntry // ascending by price
	updatedAt time.Time
}

// NewLocalBook returns an empty book for the given token.
func NewLocalBook(tokenID string) *LocalBook {
	return &LocalBook{tokenID: tokenID}
}

// ApplySnapshot replaces both ladders wholesale, sorting and trimming to
// maxBookLevels.
func (b *LocalBook) ApplySnapshot(bids, asks []BookEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids = sortTrim(bids, true)
	b.asks = sortTrim(asks, false)
	b.updatedAt = time.Now()
}

// ApplyDelta upserts a single price level on one side; a zero size removes
// the level. The ladder is re-sorted and re-trimmed after every delta.
func (b *LocalBook) ApplyDelta(side string, price, size float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if side == "BUY" || side == "bids" || side == "bid" {
		b.bids = upsertLevel(b.bids, price, size, true)
	} else {
		b.asks = upsertLevel(b.asks, price, size, false)
	}
	b.updatedAt = time.Now()
}

func upsertLevel(levels []BookEntry, price, size float64, descending bool) []BookEntry {
	idx := -1
	for i, l := range levels {
		if l.Price == price {
			idx = i
			break
		}
	}
	if size <= 0 {
		if idx >= 0 {
			levels = append(levels[:idx], levels[idx+1:]...)
		}
		return levels
	}
	if idx >= 0 {
		levels[idx].Size = size
		return levels
	}
	levels = append(levels, BookEntry{Price: price, Size: size})
	return sortTrim(levels, descending)
}

func sortTrim(levels []BookEntry, descending bool) []BookEntry {
	out := make([]BookEntry, len(levels))
	copy(out, levels)
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	if len(out) > maxBookLevels {
		out = out[:maxBookLevels]
	}
	return out
}

// Snapshot returns an immutable OrderBook view suitable for scoring and
// analysis code that does not need to mutate the book.
func (b *LocalBook) Snapshot() OrderBook {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bids := make([]BookEntry, len(b.bids))
	copy(bids, b.bids)
	asks := make([]BookEntry, len(b.asks))
	copy(asks, b.asks)
	return OrderBook{TokenID: b.tokenID, Bids: bids, Asks: asks}
}

// BestBid returns the top bid price and size, or zeros if empty.
func (b *LocalBook) BestBid() (price, size float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.bids) == 0 {
		return 0, 0
	}
	return b.bids[0].Price, b.bids[0].Size
}

// BestAsk returns the top ask price and size, or zeros if empty.
func (b *LocalBook) BestAsk() (price, size float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.asks) == 0 {
		return 0, 0
	}
	return b.asks[0].Price, b.asks[0].Size
}

// IsStale reports whether the book hasn't been updated within
// bookStaleAfter.
func (b *LocalBook) IsStale() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.updatedAt.IsZero() {
		return true
	}
	return time.Since(b.updatedAt) > bookStaleAfter
}

// Imbalance computes the Order Book Imbalance over the top n levels on
// each side: (bidVol - askVol) / (bidVol + askVol), bounded to [-1, 1].
// Returns 0 if both sides are empty.
func (b *LocalBook) Imbalance(n int) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var bidVol, askVol float64
	for i := 0; i < n && i < len(b.bids); i++ {
		bidVol += b.bids[i].Size
	}
	for i := 0; i < n && i < len(b.asks); i++ {
		askVol += b.asks[i].Size
	}
	total := bidVol + askVol
	if total == 0 {
		return 0
	}
	return (bidVol - askVol) / total
}
