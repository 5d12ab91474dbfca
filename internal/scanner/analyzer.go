package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

const (
	// defaultFeeRate conservador cuando el mercado no devuelve su fee real.
	defaultFeeRate   = 0.02 // 2%
	defaultOrderSize = 100.0
	// defaultMaxPairCost es el cap de pair cost para considerar un mercado
	// acumulable cuando la config no especifica otro.
	defaultMaxPairCost = 0.98
	// competitionBand es la banda de precio alrededor del midpoint dentro de
	// la cual se mide la profundidad rival.
	competitionBand = 0.05
)

// Analyzer calcula las métricas de pair cost de cada mercado y produce una
// Opportunity lista para filtrar, rankear y entregar al motor de acumulación.
type Analyzer struct {
	orderSize      float64
	defaultFeeRate float64
	maxPairCost    float64
}

// NewAnalyzer crea un Analyzer con los parámetros dados.
func NewAnalyzer(orderSize, feeRate, maxPairCost float64) *Analyzer {
	if orderSize <= 0 {
		orderSize = defaultOrderSize
	}
	if feeRate <= 0 {
		feeRate = defaultFeeRate
	}
	if maxPairCost <= 0 {
		maxPairCost = defaultMaxPairCost
	}
	return &Analyzer{orderSize: orderSize, defaultFeeRate: feeRate, maxPairCost: maxPairCost}
}

// Analyze calcula todas las métricas para un mercado dados sus orderbooks
// YES y NO.
func (a *Analyzer) Analyze(_ context.Context, market domain.Market, yesBook, noBook domain.OrderBook) (domain.Opportunity, error) {
	if yesBook.BestAsk() == 0 || noBook.BestAsk() == 0 {
		return domain.Opportunity{}, fmt.Errorf("analyzer: empty book for market %s", market.ConditionID)
	}

	yesAsk := yesBook.BestAsk()
	noAsk := noBook.BestAsk()
	sumBestAsk := yesAsk + noAsk
	spreadTotal := domain.SpreadTotal(yesAsk, noAsk)

	// Usar el fee real del mercado, o el default conservador.
	feeRate := market.EffectiveFeeRate(a.defaultFeeRate)

	// Gap neto tras fees, en superficie y a profundidad.
	arbGap := domain.EstimateArbitrageGap(yesAsk, noAsk, feeRate)
	arb := domain.CalculateArbitrage(yesBook, noBook, feeRate)

	// Profundidad rival en USDC cerca del midpoint de ambos books.
	competition := yesBook.DepthWithinUSDC(competitionBand) +
		noBook.DepthWithinUSDC(competitionBand)

	// Coste real de entrar al par completo a estos asks.
	entryCostPair := domain.PairEntryCost(yesAsk, noAsk, feeRate)
	entryCostUSD := domain.PairEntryCostUSDC(a.orderSize, yesAsk, noAsk, entryCostPair)

	category := domain.Categorize(arb, a.maxPairCost)

	return domain.Opportunity{
		Market:           market,
		YesBook:          yesBook,
		NoBook:           noBook,
		ScannedAt:        time.Now(),
		YesAsk:           yesAsk,
		NoAsk:            noAsk,
		SumBestAsk:       sumBestAsk,
		SpreadTotal:      spreadTotal,
		ArbitrageGap:     arbGap,
		HasArbitrage:     arbGap > 0,
		BelowPairCap:     sumBestAsk < a.maxPairCost,
		Arbitrage:        arb,
		EntryCostPerPair: entryCostPair,
		EntryCostUSDC:    entryCostUSD,
		Competition:      competition,
		CombinedScore:    domain.ComputeCombinedScore(arb, a.orderSize),
		Category:         category,
	}, nil
}
