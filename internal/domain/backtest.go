package domain

import "time"

// BacktestResult cruza un candidato de acumulación con los trades reales del
// mercado: cuántas veces se habrían llenado bids pacientes en cada pierna y
// qué pair cost habría resultado, para validar que el candidato no es solo un
// espejismo de books vacíos.
type BacktestResult struct {
	Market      Market
	Opportunity Opportunity
	TokenYesID  string
	TokenNoID   string

	// Period es la ventana temporal cubierta por los trades descargados.
	Period         time.Duration
	TotalTradesYes int
	TotalTradesNo  int

	// SimBidYes/SimBidNo son los precios a los que se simula un bid paciente
	// (el best bid actual de cada book).
	SimBidYes float64
	SimBidNo  float64

	// FillsYes/FillsNo cuentan los sells observados a precio ≤ al bid simulado.
	FillsYes int
	FillsNo  int

	// PairsPerDay es cuántos pares completos por día habría llenado un bid
	// paciente en ambas piernas: min(FillsYes, FillsNo) / días.
	PairsPerDay float64

	// SimPairCost es el pair cost que habrían pagado esos bids pacientes.
	SimPairCost float64
	// LockedProfitPerPair es 1.0 - SimPairCost - fees: la ganancia bloqueada
	// por par si ambos bids se llenan.
	LockedProfitPerPair float64
	// DailyLockedProfit es LockedProfitPerPair × pares/día × shares por par.
	DailyLockedProfit float64

	// Verdict resume el resultado: LOCKABLE, MARGINAL o NO_FILLS.
	Verdict string
}
