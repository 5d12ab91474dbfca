package domain

import "math"

// SpreadTotal es la distancia del par al payout: best_ask_YES + best_ask_NO - 1.0.
// Negativo significa que el par completo cuesta menos de $1 antes de fees.
func SpreadTotal(yesAsk, noAsk float64) float64 {
	return yesAsk + noAsk - 1.0
}

// EstimateArbitrageGap calcula el gap neto después de fees tomando ambos asks:
// 1.0 - (yesAsk + noAsk) - fees. Positivo = lock garantizado al instante.
func EstimateArbitrageGap(yesAsk, noAsk, feeRate float64) float64 {
	yesNoSum := yesAsk + noAsk
	fees := yesNoSum * feeRate
	return 1.0 - yesNoSum - fees
}

// PairEntryCost calcula cuánto cuesta (o rinde, si negativo) entrar al par
// completo a estos precios, en unidades de precio por share pair:
//
//	(yesPrice + noPrice) × (1 + fee) - 1.00
//
// Cada share pair paga $1.00 en resolución sin importar el resultado, así que
// un entry cost negativo es ganancia bloqueada por par.
func PairEntryCost(yesPrice, noPrice, feeRate float64) float64 {
	return (yesPrice + noPrice) * (1 + feeRate) - 1.0
}

// PairEntryCostUSDC expresa PairEntryCost en USDC para un orderSize dado por
// pierna.
//
//	pairs = min(orderSize/yesPrice, orderSize/noPrice)
//	total = pairs × costPerPair
//
// Precios extremos (≤ 1c) se descartan como datos no fiables; el resultado se
// limita a ±2× orderSize para evitar números absurdos en books rotos.
func PairEntryCostUSDC(orderSize, yesPrice, noPrice, costPerPair float64) float64 {
	if yesPrice <= 0.01 || noPrice <= 0.01 {
		return 0
	}
	sharesYes := orderSize / yesPrice
	sharesNo := orderSize / noPrice
	pairs := math.Min(sharesYes, sharesNo)
	result := pairs * costPerPair
	cap := orderSize * 2
	if result > cap {
		return cap
	}
	if result < -cap {
		return -cap
	}
	return result
}
