package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

// Asymmetric es la variante "short-horizon asymmetric binary": en vez de
// acumular ambas piernas con paciencia, busca mercados cercanos a resolución
// donde una sola pierna barata ofrece un payout ratio alto si el book se
// mueve en ventanas de minutos. Comparte el modelo de datos y el pipeline de
// ejecución del motor de acumulación; la selección de pierna direccional es
// deliberadamente conservadora (solo mercados muy desbalanceados).
type Asymmetric struct {
	orderSize      float64
	feeRate        float64
	maxHorizon     time.Duration
	minPayoutRatio float64
}

// AsymmetricConfig configura la variante.
type AsymmetricConfig struct {
	// OrderSize es el tamaño de orden por pierna en USDC.
	OrderSize float64
	// FeeRate es el fee default cuando el mercado no publica el suyo.
	FeeRate float64
	// MaxHorizon limita los candidatos a mercados que resuelven dentro de
	// esta ventana.
	MaxHorizon time.Duration
	// MinPayoutRatio exige que la pierna barata pague al menos este múltiplo
	// (1/precio) si gana.
	MinPayoutRatio float64
}

// NewAsymmetric crea la variante con la configuración dada.
func NewAsymmetric(cfg AsymmetricConfig) *Asymmetric {
	if cfg.MaxHorizon <= 0 {
		cfg.MaxHorizon = 6 * time.Hour
	}
	if cfg.MinPayoutRatio <= 0 {
		cfg.MinPayoutRatio = 4.0
	}
	return &Asymmetric{
		orderSize:      cfg.OrderSize,
		feeRate:        cfg.FeeRate,
		maxHorizon:     cfg.MaxHorizon,
		minPayoutRatio: cfg.MinPayoutRatio,
	}
}

// Name implementa Strategy.
func (s *Asymmetric) Name() domain.StrategyName {
	return domain.StrategyAsymmetric
}

// Analyze implementa Strategy: puntúa el mercado como candidato asimétrico.
// El resultado reutiliza el mismo Opportunity que la acumulación; la
// categoría degrada a Avoid cuando el horizonte o el payout no califican.
func (s *Asymmetric) Analyze(_ context.Context, market domain.Market, yesBook, noBook domain.OrderBook) (domain.Opportunity, error) {
	if yesBook.BestAsk() == 0 || noBook.BestAsk() == 0 {
		return domain.Opportunity{}, fmt.Errorf("asymmetric: empty orderbook for %s", market.ConditionID)
	}

	feeRate := market.EffectiveFeeRate(s.feeRate)
	yesAsk := yesBook.BestAsk()
	noAsk := noBook.BestAsk()

	arb := domain.CalculateArbitrage(yesBook, noBook, feeRate)
	entryCostPair := domain.PairEntryCost(yesAsk, noAsk, feeRate)
	entryCostUSD := domain.PairEntryCostUSDC(s.orderSize, yesAsk, noAsk, entryCostPair)

	opp := domain.Opportunity{
		Market:           market,
		YesBook:          yesBook,
		NoBook:           noBook,
		ScannedAt:        time.Now(),
		YesAsk:           yesAsk,
		NoAsk:            noAsk,
		SumBestAsk:       yesAsk + noAsk,
		SpreadTotal:      domain.SpreadTotal(yesAsk, noAsk),
		ArbitrageGap:     arb.ArbitrageGap,
		HasArbitrage:     arb.HasArbitrage,
		Arbitrage:        arb,
		EntryCostPerPair: entryCostPair,
		EntryCostUSDC:    entryCostUSD,
		Category:         domain.CategoryAvoid,
	}

	// Solo mercados dentro del horizonte corto.
	hours := market.HoursToResolution()
	if hours <= 0 || hours > s.maxHorizon.Hours() {
		return opp, nil
	}

	// La pierna barata debe pagar al menos minPayoutRatio si gana.
	cheap := yesAsk
	if noAsk < cheap {
		cheap = noAsk
	}
	if cheap <= 0 || 1.0/cheap < s.minPayoutRatio {
		return opp, nil
	}

	// Score: payout esperado de la pierna barata al tamaño configurado,
	// descontando fees. La categoría queda en Bronze — la variante nunca
	// promete un lock, solo una asimetría.
	shares := s.orderSize / cheap
	opp.CombinedScore = shares*(1.0-cheap) - s.orderSize*feeRate
	opp.Category = domain.CategoryBronze
	return opp, nil
}
