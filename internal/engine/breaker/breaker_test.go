package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := New("test", Config{FailureThreshold: 3, SuccessThreshold: 2, Timeout: time.Minute, HalfOpenMaxCalls: 1})

	for i := 0; i < 2; i++ {
		ok, err := b.Allow()
		require.True(t, ok)
		require.NoError(t, err)
		b.RecordFailure()
	}
	assert.Equal(t, Closed, b.CurrentState())

	ok, err := b.Allow()
	require.True(t, ok)
	require.NoError(t, err)
	b.RecordFailure()
	assert.Equal(t, Open, b.CurrentState())

	allowed, err := b.Allow()
	assert.False(t, allowed)
	assert.Error(t, err)
}

func TestBreakerHalfOpenClosesAfterSuccesses(t *testing.T) {
	b := New("test", Config{FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Millisecond, HalfOpenMaxCalls: 2})

	ok, _ := b.Allow()
	require.True(t, ok)
	b.RecordFailure()
	assert.Equal(t, Open, b.CurrentState())

	time.Sleep(20 * time.Millisecond)

	ok, err := b.Allow()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, HalfOpen, b.CurrentState())
	b.RecordSuccess()
	assert.Equal(t, HalfOpen, b.CurrentState())

	ok, err = b.Allow()
	require.True(t, ok)
	require.NoError(t, err)
	b.RecordSuccess()
	assert.Equal(t, Closed, b.CurrentState())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("test", Config{FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Millisecond, HalfOpenMaxCalls: 2})

	ok, _ := b.Allow()
	require.True(t, ok)
	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	ok, err := b.Allow()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, HalfOpen, b.CurrentState())
	b.RecordFailure()
	assert.Equal(t, Open, b.CurrentState())
}

func TestBreakerHalfOpenRespectsMaxCalls(t *testing.T) {
	b := New("test", Config{FailureThreshold: 1, SuccessThreshold: 5, Timeout: 10 * time.Millisecond, HalfOpenMaxCalls: 1})

	ok, _ := b.Allow()
	require.True(t, ok)
	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	ok, err := b.Allow()
	require.True(t, ok)
	require.NoError(t, err)

	ok, err = b.Allow()
	assert.False(t, ok)
	assert.Error(t, err)
}
