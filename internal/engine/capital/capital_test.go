package capital

import (
	"testing"

	"github.com/alejandrodnm/pairlock/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDeployRespectsPerStrategyCap(t *testing.T) {
	ledger := domain.NewCapitalLedger(1000)
	m := New(ledger, Config{AccumulationShare: 0.7, AsymmetricShare: 0.2})

	assert.True(t, m.Deploy(domain.StrategyAccumulation, 500))
	assert.False(t, m.Deploy(domain.StrategyAccumulation, 300)) // 800 > 700 cap
	assert.True(t, m.Deploy(domain.StrategyAccumulation, 200))  // exactly 700
}

func TestDeployRespectsOverallAvailable(t *testing.T) {
	ledger := domain.NewCapitalLedger(100)
	m := New(ledger, Config{AccumulationShare: 1.0, AsymmetricShare: 1.0})
	assert.True(t, m.Deploy(domain.StrategyAccumulation, 60))
	assert.False(t, m.Deploy(domain.StrategyAsymmetric, 60)) // only 40 available
}

func TestReleaseFreesCapital(t *testing.T) {
	ledger := domain.NewCapitalLedger(1000)
	m := New(ledger, DefaultConfig())
	m.Deploy(domain.StrategyAccumulation, 500)
	m.Release(domain.StrategyAccumulation, 200)
	assert.Equal(t, 700.0, m.Available())
}

func TestHeadroomClampsToAvailable(t *testing.T) {
	ledger := domain.NewCapitalLedger(100)
	m := New(ledger, Config{AccumulationShare: 1.0})
	m.Deploy(domain.StrategyAccumulation, 90)
	assert.Equal(t, 10.0, m.Headroom(domain.StrategyAccumulation))
}
