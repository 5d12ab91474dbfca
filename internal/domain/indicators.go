package domain

// Indicadores técnicos ligeros sobre listas de precios. Sin dependencias
// externas: funciones puras sobre []float64, usadas por el filtro de
// tendencia del motor de acumulación.

// SMA calcula la media móvil simple de los últimos period precios.
// Devuelve (0, false) si no hay suficientes datos.
func SMA(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), true
}

// RSI calcula el Relative Strength Index (0-100) con suavizado de Wilder.
// prices debe estar ordenado del más antiguo al más reciente. Devuelve
// (0, false) si no hay al menos period+1 muestras.
func RSI(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}

	gains := make([]float64, 0, len(prices)-1)
	losses := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains = append(gains, delta)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -delta)
		}
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0, true
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs)), true
}

// TrendStrength clasifica la tendencia en "UP", "DOWN" o "NEUTRAL" comparando
// una SMA corta contra una larga con una banda de tolerancia de ±1%.
func TrendStrength(prices []float64, shortWindow, longWindow int) string {
	short, okShort := SMA(prices, shortWindow)
	long, okLong := SMA(prices, longWindow)
	if !okShort || !okLong || long == 0 {
		return "NEUTRAL"
	}
	switch {
	case short > long*1.01:
		return "UP"
	case short < long*0.99:
		return "DOWN"
	default:
		return "NEUTRAL"
	}
}
