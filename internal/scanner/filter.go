package scanner

import (
	"github.com/alejandrodnm/pairlock/internal/domain"
)

// FilterConfig contiene los parámetros configurables de filtrado de
// candidatos.
type FilterConfig struct {
	// MaxPairCost descarta mercados cuya suma de asks no baja del cap: no hay
	// vía de acumulación hacia el lock.
	MaxPairCost float64
	// MaxSpreadTotal descarta mercados cuyo spread total supera este valor.
	MaxSpreadTotal float64
	// MaxCompetition descarta books con demasiada profundidad rival (USDC
	// cerca del midpoint): nuestras órdenes quedarían al fondo de la cola.
	MaxCompetition float64
	// MinHoursToResolution descarta mercados que se resuelven antes de X
	// horas: no hay tiempo para acumular ambas piernas.
	MinHoursToResolution float64
	// OnlyFillsProfit si true, solo pasa mercados donde tomar el par completo
	// hoy no cuesta dinero (EntryCostUSDC ≤ 0).
	OnlyFillsProfit bool
}

// DefaultFilterConfig devuelve una configuración de filtrado conservadora.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MaxPairCost:          defaultMaxPairCost,
		MaxSpreadTotal:       0.10,
		MaxCompetition:       50_000,
		MinHoursToResolution: 0,
		OnlyFillsProfit:      false,
	}
}

// Filter aplica los filtros configurados sobre una lista de candidatos.
type Filter struct {
	cfg FilterConfig
}

// NewFilter crea un Filter con la configuración dada.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Apply devuelve los candidatos que pasan todos los filtros.
func (f *Filter) Apply(opps []domain.Opportunity) []domain.Opportunity {
	result := make([]domain.Opportunity, 0, len(opps))
	for _, opp := range opps {
		if f.passes(opp) {
			result = append(result, opp)
		}
	}
	return result
}

// passes devuelve true si el candidato supera todos los criterios.
func (f *Filter) passes(opp domain.Opportunity) bool {
	if opp.Category == domain.CategoryAvoid {
		return false
	}
	if f.cfg.MaxPairCost > 0 && opp.SumBestAsk >= f.cfg.MaxPairCost && !opp.HasArbitrage {
		return false
	}
	if f.cfg.MaxSpreadTotal > 0 && opp.SpreadTotal > f.cfg.MaxSpreadTotal {
		return false
	}
	if f.cfg.MaxCompetition > 0 && opp.Competition > f.cfg.MaxCompetition {
		return false
	}
	// Mercados que se resuelven pronto no dejan acumular ambas piernas.
	if f.cfg.MinHoursToResolution > 0 {
		hours := opp.Market.HoursToResolution()
		if hours > 0 && hours < f.cfg.MinHoursToResolution {
			return false
		}
	}
	// Entrar al par hoy cuesta dinero: solo interesa si se permite acumular.
	if f.cfg.OnlyFillsProfit && opp.EntryCostUSDC > 0 {
		return false
	}
	return true
}
