package domain

import "time"

// Opportunity es el resultado del análisis de un mercado como candidato de
// acumulación: todas las métricas necesarias para decidir si el par YES+NO
// puede comprarse por debajo de $1 ahora (lock inmediato) o acumularse hacia
// el lock con paciencia.
type Opportunity struct {
	Market    Market
	YesBook   OrderBook
	NoBook    OrderBook
	ScannedAt time.Time

	// --- Pair cost en la superficie del book ---
	YesAsk      float64 // mejor ask del token YES
	NoAsk       float64 // mejor ask del token NO
	SumBestAsk  float64 // YesAsk + NoAsk: pair cost instantáneo
	SpreadTotal float64 // SumBestAsk - 1.0 (negativo = par bajo el payout)

	// --- Margen tras fees ---
	ArbitrageGap float64 // 1.0 - SumBestAsk - fees (> 0 = lock neto inmediato)
	HasArbitrage bool    // ArbitrageGap > 0
	BelowPairCap bool    // SumBestAsk < maxPairCost configurado

	// Arbitrage amplía el análisis superficial con profundidades de capital.
	Arbitrage ArbitrageResult

	// EntryCostPerPair es el coste (o ganancia si negativo) por share pair al
	// tomar ambos asks: (YesAsk+NoAsk)(1+fee) - 1.
	EntryCostPerPair float64
	// EntryCostUSDC es EntryCostPerPair expresado en USDC para orderSize.
	EntryCostUSDC float64

	// Competition es la profundidad rival en USDC cerca del midpoint de ambos
	// books: cuánto capital compite por los mismos niveles.
	Competition float64

	// CombinedScore es el score de ranking final (ganancia esperada en USDC
	// al tope del book, ver ComputeCombinedScore).
	CombinedScore float64
	// Category clasifica el candidato en Gold/Silver/Bronze/Avoid.
	Category OpportunityCategory
}

// Verdict resume en una palabra la vía de entrada de este candidato, para la
// tabla de consola.
func (o Opportunity) Verdict() string {
	switch {
	case o.HasArbitrage:
		return "LOCK=NOW"
	case o.BelowPairCap:
		return "ACCUMULATE"
	case o.Category == CategoryAvoid:
		return "AVOID"
	default:
		return "WATCH"
	}
}

// IsArbitrage devuelve true si el par cuesta menos de $1 antes de fees.
func (o Opportunity) IsArbitrage() bool {
	return o.SpreadTotal < 0
}

// YesMidpoint devuelve el midpoint del token YES.
func (o Opportunity) YesMidpoint() float64 {
	return o.YesBook.Midpoint()
}

// NoMidpoint devuelve el midpoint del token NO.
func (o Opportunity) NoMidpoint() float64 {
	return o.NoBook.Midpoint()
}

// LockedReturnPct devuelve el retorno porcentual bloqueado si el par se toma
// completo a los asks actuales: gap / capital por par. 0 si no hay gap.
func (o Opportunity) LockedReturnPct() float64 {
	if !o.HasArbitrage || o.SumBestAsk <= 0 {
		return 0
	}
	return o.ArbitrageGap / o.SumBestAsk * 100
}
