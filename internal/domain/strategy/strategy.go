package strategy

import (
	"context"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

// Strategy define el contrato para analizar mercados y detectar candidatos.
// Cada variante encapsula una lógica de selección diferente, pero todas
// comparten el mismo pipeline de ejecución (executor, queue, fill manager).
type Strategy interface {
	// Name identifica la variante para el reparto de capital por estrategia.
	Name() domain.StrategyName

	// Analyze evalúa un mercado con su orderbook y devuelve una Opportunity
	// con todas las métricas calculadas. Devuelve error si los datos son
	// insuficientes.
	Analyze(ctx context.Context, market domain.Market, yesBook, noBook domain.OrderBook) (domain.Opportunity, error)
}
