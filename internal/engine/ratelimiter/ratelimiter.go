// Package ratelimiter provides a token-bucket rate limiter with an
// adaptive wrapper that backs off on repeated rejections and recovers
// gradually on sustained success, built over golang.org/x/time/rate like
// the exchange client's per-endpoint limiters.
package ratelimiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter is a token-bucket rate limiter, a thin wrapper over
// golang.org/x/time/rate sized in calls per second.
type Limiter struct {
	rl *rate.Limiter
}

// New returns a limiter allowing tokensPerSecond steady-state throughput
// with a burst of maxTokens.
func New(tokensPerSecond float64, maxTokens int) *Limiter {
	return &Limiter{rl: rate.NewLimiter(rate.Limit(tokensPerSecond), maxTokens)}
}

// Wait blocks until a token is available or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

// Allow reports whether a token is available right now, consuming it if so.
func (l *Limiter) Allow() bool {
	return l.rl.Allow()
}

// SetRate updates the steady-state throughput in place.
func (l *Limiter) SetRate(tokensPerSecond float64) {
	l.rl.SetLimit(rate.Limit(tokensPerSecond))
}

// Rate returns the current steady-state throughput.
func (l *Limiter) Rate() float64 {
	return float64(l.rl.Limit())
}

// AdaptiveConfig bounds how an AdaptiveLimiter shrinks and grows its rate.
type AdaptiveConfig struct {
	MinRate           float64
	MaxRate           float64
	BackoffFactor     float64 // multiplied into the rate on rejection (e.g. 0.5)
	RecoveryFactor    float64 // multiplied into the rate after a run of success (e.g. 1.1)
	RecoveryThreshold int     // consecutive successes required before growing the rate
}

// DefaultAdaptiveConfig matches the general-purpose tuning used outside the
// CLOB-specific instance.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		MinRate:           1.0,
		MaxRate:           20.0,
		BackoffFactor:     0.5,
		RecoveryFactor:    1.1,
		RecoveryThreshold: 10,
	}
}

// AdaptiveLimiter wraps a Limiter, scaling its rate by BackoffFactor on every rejection and
// growing it by RecoveryFactor after RecoveryThreshold consecutive
// successes, bounded to [MinRate, MaxRate].
type AdaptiveLimiter struct {
	mu             sync.Mutex
	base           *Limiter
	cfg            AdaptiveConfig
	successStreak  int
}

// NewAdaptive builds an adaptive limiter seeded at tokensPerSecond.
func NewAdaptive(tokensPerSecond float64, maxTokens int, cfg AdaptiveConfig) *AdaptiveLimiter {
	return &AdaptiveLimiter{base: New(tokensPerSecond, maxTokens), cfg: cfg}
}

// NewCLOBAdaptive matches the CLOB-tuned instance: 8 tokens/sec, burst 15,
// shrinking no lower than 2/sec and growing no higher than 12/sec.
func NewCLOBAdaptive() *AdaptiveLimiter {
	return NewAdaptive(8.0, 15, AdaptiveConfig{
		MinRate:           2.0,
		MaxRate:           12.0,
		BackoffFactor:     0.5,
		RecoveryFactor:    1.1,
		RecoveryThreshold: 10,
	})
}

// Wait blocks until a token is available or ctx is cancelled.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.base.Wait(ctx)
}

// OnRejected multiplies the current rate by BackoffFactor (clamped to
// MinRate) and resets the
// success streak. Call this whenever the downstream call returns 429 or an
// equivalent rejection.
func (a *AdaptiveLimiter) OnRejected() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.successStreak = 0
	next := a.base.Rate() * a.cfg.BackoffFactor
	if next < a.cfg.MinRate {
		next = a.cfg.MinRate
	}
	a.base.SetRate(next)
}

// OnSuccess records a successful call; after RecoveryThreshold consecutive
// successes the rate grows by RecoveryFactor, clamped to MaxRate.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.successStreak++
	if a.successStreak < a.cfg.RecoveryThreshold {
		return
	}
	a.successStreak = 0
	next := a.base.Rate() * a.cfg.RecoveryFactor
	if next > a.cfg.MaxRate {
		next = a.cfg.MaxRate
	}
	a.base.SetRate(next)
}

// CurrentRate returns the adaptive limiter's present steady-state rate.
func (a *AdaptiveLimiter) CurrentRate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.base.Rate()
}
