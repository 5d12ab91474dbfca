package domain

import (
	"math"
	"sync"
)

// priceHistoryLen bounds how many mid-price samples BookRegistry keeps per
// token for the RSI/trend filter, oldest first.
const priceHistoryLen = 64

// BookRegistry owns one LocalBook per token plus a bounded mid-price
// history ring, and is the concrete Books implementation the accumulation
// engine reads from in production. Feed updates and REST snapshots both
// write through it.
type BookRegistry struct {
	mu      sync.RWMutex
	books   map[string]*LocalBook
	history map[string][]float64
}

// NewBookRegistry returns an empty registry.
func NewBookRegistry() *BookRegistry {
	return &BookRegistry{
		books:   make(map[string]*LocalBook),
		history: make(map[string][]float64),
	}
}

func (r *BookRegistry) bookFor(tokenID string) *LocalBook {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[tokenID]
	if !ok {
		b = NewLocalBook(tokenID)
		r.books[tokenID] = b
	}
	return b
}

// ApplySnapshot replaces a token's ladder and records its new mid-price.
func (r *BookRegistry) ApplySnapshot(tokenID string, bids, asks []BookEntry) {
	b := r.bookFor(tokenID)
	b.ApplySnapshot(bids, asks)
	r.recordMid(tokenID, b)
}

// ApplyDelta upserts a single level and records the token's new mid-price.
func (r *BookRegistry) ApplyDelta(tokenID, side string, price, size float64) {
	b := r.bookFor(tokenID)
	b.ApplyDelta(side, price, size)
	r.recordMid(tokenID, b)
}

func (r *BookRegistry) recordMid(tokenID string, b *LocalBook) {
	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	if bid == 0 && ask == 0 {
		return
	}
	mid := (bid + ask) / 2
	if bid == 0 {
		mid = ask
	} else if ask == 0 {
		mid = bid
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	h := append(r.history[tokenID], mid)
	if len(h) > priceHistoryLen {
		h = h[len(h)-priceHistoryLen:]
	}
	r.history[tokenID] = h
}

// BestAsk implements accumulation.Books.
func (r *BookRegistry) BestAsk(tokenID string) (price, size float64) {
	return r.bookFor(tokenID).BestAsk()
}

// BestBid implements accumulation.Books.
func (r *BookRegistry) BestBid(tokenID string) (price, size float64) {
	return r.bookFor(tokenID).BestBid()
}

// Imbalance implements accumulation.Books.
func (r *BookRegistry) Imbalance(tokenID string, n int) float64 {
	return r.bookFor(tokenID).Imbalance(n)
}

// PriceHistory implements accumulation.Books, returning the mid-price
// history oldest-first.
func (r *BookRegistry) PriceHistory(tokenID string) []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]float64, len(r.history[tokenID]))
	copy(out, r.history[tokenID])
	return out
}

// Snapshot returns an immutable order book view for a token, used by the
// analyzer to score candidates.
func (r *BookRegistry) Snapshot(tokenID string) OrderBook {
	return r.bookFor(tokenID).Snapshot()
}

// IsStale reports whether a token's book hasn't updated recently.
func (r *BookRegistry) IsStale(tokenID string) bool {
	return r.bookFor(tokenID).IsStale()
}

// AggregateStats summarizes current market conditions across every tracked
// book: the average bid/ask spread and the average short-horizon volatility
// (stdev/mean of each token's recent mid-price history). Books with no
// two-sided quote contribute nothing.
func (r *BookRegistry) AggregateStats() (avgSpread, avgVolatility float64) {
	r.mu.RLock()
	books := make([]*LocalBook, 0, len(r.books))
	for _, b := range r.books {
		books = append(books, b)
	}
	histories := make([][]float64, 0, len(r.history))
	for _, h := range r.history {
		histories = append(histories, h)
	}
	r.mu.RUnlock()

	var spreadSum float64
	var spreadN int
	for _, b := range books {
		bid, _ := b.BestBid()
		ask, _ := b.BestAsk()
		if bid <= 0 || ask <= 0 {
			continue
		}
		spreadSum += ask - bid
		spreadN++
	}
	if spreadN > 0 {
		avgSpread = spreadSum / float64(spreadN)
	}

	var volSum float64
	var volN int
	for _, h := range histories {
		if v, ok := relativeStdev(h); ok {
			volSum += v
			volN++
		}
	}
	if volN > 0 {
		avgVolatility = volSum / float64(volN)
	}
	return avgSpread, avgVolatility
}

// relativeStdev is stdev/mean over the sample, the short-horizon volatility
// measure used by the auto-optimizer. Needs at least 5 samples.
func relativeStdev(samples []float64) (float64, bool) {
	if len(samples) < 5 {
		return 0, false
	}
	mean := 0.0
	for _, s := range samples {
		mean += s
	}
	mean /= float64(len(samples))
	if mean == 0 {
		return 0, false
	}
	variance := 0.0
	for _, s := range samples {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(samples))
	return math.Sqrt(variance) / mean, true
}
