package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can decide whether to retry,
// back off, or surface the error as fatal, without string-matching.
type ErrorKind int

const (
	// ErrKindTransient covers network timeouts and 5xx responses: retry
	// with backoff.
	ErrKindTransient ErrorKind = iota
	// ErrKindRateLimited is a 429 or local rate-limiter rejection: retry
	// after the limiter's wait interval.
	ErrKindRateLimited
	// ErrKindRejected is an exchange-side validation rejection (bad price,
	// insufficient balance): do not retry unverified.
	ErrKindRejected
	// ErrKindValidation is a local pre-submission policy violation: never
	// submitted, safe to drop.
	ErrKindValidation
	// ErrKindFatal is a programming or configuration error: stop the
	// affected subsystem.
	ErrKindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindTransient:
		return "transient"
	case ErrKindRateLimited:
		return "rate_limited"
	case ErrKindRejected:
		return "rejected"
	case ErrKindValidation:
		return "validation"
	case ErrKindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// KindError wraps an error with a classification used by the order queue,
// executor and circuit breaker to decide retry policy.
type KindError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *KindError) Unwrap() error {
	return e.Err
}

// NewKindError wraps err with a kind and the operation name that produced
// it.
func NewKindError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the ErrorKind from err, defaulting to ErrKindFatal for
// errors that were never classified.
func KindOf(err error) ErrorKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return ErrKindFatal
}

// Sentinel errors used across engine packages.
var (
	ErrCircuitOpen      = errors.New("circuit breaker open")
	ErrQueueFull        = errors.New("order queue full")
	ErrDuplicateOrder   = errors.New("duplicate order suppressed")
	ErrDailyLossBlocked = errors.New("daily loss limit reached, trading blocked")
	ErrPositionLocked   = errors.New("position already locked")
	ErrNegRiskMarket    = errors.New("neg-risk markets are not supported for merge")
)
