package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullAutoAppliesImmediately(t *testing.T) {
	var applied []Params
	initial := Params{MaxPairCost: 0.97, MinImprovement: 0.01}
	o := New(FullAuto, initial, 10*time.Millisecond, func(ctx context.Context, current Params) (Params, error) {
		return Params{MaxPairCost: current.MaxPairCost - 0.01, MinImprovement: current.MinImprovement}, nil
	}, func(p Params) { applied = append(applied, p) })

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	o.Run(ctx)

	require.NotEmpty(t, applied)
	assert.Less(t, o.Current().MaxPairCost, initial.MaxPairCost)
}

func TestFullAutoIgnoresSubPercentNoise(t *testing.T) {
	initial := Params{MaxPairCost: 0.97, MinImprovement: 0.01}
	o := New(FullAuto, initial, 10*time.Millisecond, func(ctx context.Context, current Params) (Params, error) {
		// 0.0005/0.97 ≈ 0.05%: por debajo del umbral del 1%
		return Params{MaxPairCost: current.MaxPairCost - 0.0005, MinImprovement: current.MinImprovement}, nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	o.Run(ctx)

	assert.Equal(t, initial, o.Current(), "los cambios sub-1% no se aplican")
	assert.NotEmpty(t, o.Events(), "pero sí quedan registrados")
}

func TestSemiAutoRequiresApproval(t *testing.T) {
	initial := Params{MaxPairCost: 0.97}
	o := New(SemiAuto, initial, 10*time.Millisecond, func(ctx context.Context, current Params) (Params, error) {
		return Params{MaxPairCost: 0.5}, nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()
	o.Run(ctx)

	assert.Equal(t, initial, o.Current())
	require.NotNil(t, o.Pending())
	assert.Equal(t, 0.5, o.Pending().MaxPairCost)

	o.ApprovePending()
	assert.Equal(t, 0.5, o.Current().MaxPairCost)
	assert.Nil(t, o.Pending())
}

func TestManualNeverChangesCurrent(t *testing.T) {
	initial := Params{MaxPairCost: 0.97}
	o := New(Manual, initial, 10*time.Millisecond, func(ctx context.Context, current Params) (Params, error) {
		return Params{MaxPairCost: 0.1}, nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()
	o.Run(ctx)

	assert.Equal(t, initial, o.Current())
	assert.NotEmpty(t, o.Events())
}
