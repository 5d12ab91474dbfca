package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA_NotEnoughData(t *testing.T) {
	_, ok := SMA([]float64{1, 2}, 5)
	assert.False(t, ok)
}

func TestSMA_Basic(t *testing.T) {
	v, ok := SMA([]float64{1, 2, 3, 4, 5}, 3)
	assert.True(t, ok)
	assert.InDelta(t, 4.0, v, 0.001) // (3+4+5)/3
}

func TestRSI_NotEnoughData(t *testing.T) {
	_, ok := RSI([]float64{1, 2, 3}, 14)
	assert.False(t, ok)
}

func TestRSI_AllGains(t *testing.T) {
	prices := make([]float64, 15)
	for i := range prices {
		prices[i] = float64(i + 1)
	}
	v, ok := RSI(prices, 14)
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestRSI_AllLosses(t *testing.T) {
	prices := make([]float64, 15)
	for i := range prices {
		prices[i] = float64(15 - i)
	}
	v, ok := RSI(prices, 14)
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestRSI_Overbought(t *testing.T) {
	prices := []float64{
		44.0, 44.5, 45.0, 45.5, 46.0, 46.5, 47.0, 47.5, 48.0,
		48.5, 49.0, 49.5, 50.0, 50.5, 51.0,
	}
	v, ok := RSI(prices, 14)
	assert.True(t, ok)
	assert.Greater(t, v, 70.0)
}

func TestTrendStrength_Up(t *testing.T) {
	prices := make([]float64, 25)
	for i := range prices {
		prices[i] = 100.0 + float64(i)
	}
	assert.Equal(t, "UP", TrendStrength(prices, 5, 20))
}

func TestTrendStrength_Down(t *testing.T) {
	prices := make([]float64, 25)
	for i := range prices {
		prices[i] = 200.0 - float64(i)
	}
	assert.Equal(t, "DOWN", TrendStrength(prices, 5, 20))
}

func TestTrendStrength_NeutralInsufficientData(t *testing.T) {
	assert.Equal(t, "NEUTRAL", TrendStrength([]float64{1, 2, 3}, 5, 20))
}
