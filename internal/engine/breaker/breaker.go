// Package breaker implements a three-state circuit breaker (closed, open,
// half-open) guarding calls to a remote dependency.
package breaker

import (
	"sync"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

// State is one of the three circuit breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Config tunes the breaker's trip/recovery thresholds.
type Config struct {
	FailureThreshold int           // consecutive failures before tripping open
	SuccessThreshold int           // consecutive half-open successes before closing
	Timeout          time.Duration // how long to stay open before probing half-open
	HalfOpenMaxCalls int           // concurrent probe calls allowed while half-open
}

// DefaultConfig matches the tuning used across the bot's exchange calls.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// Breaker guards calls to a single remote dependency (e.g. one CLOB
// endpoint). Call Allow before attempting the call, then report the
// outcome with RecordSuccess or RecordFailure.
type Breaker struct {
	mu sync.Mutex

	cfg Config
	name string

	state            State
	consecutiveFails int
	consecutiveOK    int
	openedAt         time.Time
	halfOpenInFlight int
}

// New creates a breaker named for logging, starting closed.
func New(name string, cfg Config) *Breaker {
	return &Breaker{name: name, cfg: cfg, state: Closed}
}

// Allow reports whether a call may proceed. In the half-open state it
// admits at most HalfOpenMaxCalls probes concurrently; callers that are
// denied must call nothing further (no RecordSuccess/RecordFailure).
func (b *Breaker) Allow() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true, nil
	case Open:
		if time.Since(b.openedAt) >= b.cfg.Timeout {
			b.state = HalfOpen
			b.halfOpenInFlight = 0
			b.consecutiveOK = 0
		} else {
			return false, domain.NewKindError(domain.ErrKindTransient, "breaker."+b.name, domain.ErrCircuitOpen)
		}
		fallthrough
	case HalfOpen:
		if b.halfOpenInFlight >= b.cfg.HalfOpenMaxCalls {
			return false, domain.NewKindError(domain.ErrKindTransient, "breaker."+b.name, domain.ErrCircuitOpen)
		}
		b.halfOpenInFlight++
		return true, nil
	}
	return true, nil
}

// RecordSuccess reports a successful call. In half-open, enough consecutive
// successes close the breaker; in closed, it resets the failure streak.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		b.halfOpenInFlight--
		b.consecutiveOK++
		if b.consecutiveOK >= b.cfg.SuccessThreshold {
			b.state = Closed
			b.consecutiveFails = 0
			b.consecutiveOK = 0
		}
	case Closed:
		b.consecutiveFails = 0
	}
}

// RecordFailure reports a failed call. Enough consecutive failures in
// closed state trips the breaker open; any failure in half-open reopens it
// immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.consecutiveFails++
		if b.consecutiveFails >= b.cfg.FailureThreshold {
			b.trip()
		}
	case HalfOpen:
		b.halfOpenInFlight--
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = time.Now()
	b.consecutiveFails = 0
	b.consecutiveOK = 0
	b.halfOpenInFlight = 0
}

// CurrentState returns the breaker's current state.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
