package ratelimiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsBurstThenThrottles(t *testing.T) {
	l := New(1.0, 2)
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestAdaptiveLimiterBacksOffOnRejection(t *testing.T) {
	cfg := AdaptiveConfig{MinRate: 1.0, MaxRate: 20.0, BackoffFactor: 0.5, RecoveryFactor: 1.1, RecoveryThreshold: 10}
	a := NewAdaptive(10.0, 20, cfg)
	require.Equal(t, 10.0, a.CurrentRate())

	a.OnRejected()
	assert.Equal(t, 5.0, a.CurrentRate())

	a.OnRejected()
	assert.Equal(t, 2.5, a.CurrentRate())
}

func TestAdaptiveLimiterBacksOffRespectsMinRate(t *testing.T) {
	cfg := AdaptiveConfig{MinRate: 2.0, MaxRate: 12.0, BackoffFactor: 0.5, RecoveryFactor: 1.1, RecoveryThreshold: 10}
	a := NewAdaptive(2.5, 15, cfg)
	a.OnRejected()
	assert.Equal(t, 2.0, a.CurrentRate())
}

func TestAdaptiveLimiterRecoversAfterThreshold(t *testing.T) {
	cfg := AdaptiveConfig{MinRate: 1.0, MaxRate: 20.0, BackoffFactor: 0.5, RecoveryFactor: 1.1, RecoveryThreshold: 3}
	a := NewAdaptive(10.0, 20, cfg)

	a.OnSuccess()
	a.OnSuccess()
	assert.Equal(t, 10.0, a.CurrentRate(), "rate should not grow before hitting the threshold")

	a.OnSuccess()
	assert.InDelta(t, 11.0, a.CurrentRate(), 1e-9)
}

func TestAdaptiveLimiterRecoveryRespectsMaxRate(t *testing.T) {
	cfg := AdaptiveConfig{MinRate: 1.0, MaxRate: 11.0, BackoffFactor: 0.5, RecoveryFactor: 1.5, RecoveryThreshold: 1}
	a := NewAdaptive(10.0, 20, cfg)
	a.OnSuccess()
	assert.Equal(t, 11.0, a.CurrentRate())
}

func TestNewCLOBAdaptiveDefaults(t *testing.T) {
	a := NewCLOBAdaptive()
	assert.Equal(t, 8.0, a.CurrentRate())
	assert.Equal(t, 2.0, a.cfg.MinRate)
	assert.Equal(t, 12.0, a.cfg.MaxRate)
}
