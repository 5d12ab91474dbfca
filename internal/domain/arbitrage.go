package domain

import "math"

// OpportunityCategory clasifica un candidato de acumulación por la calidad
// del pair cost que ofrece su book ahora mismo.
type OpportunityCategory int

const (
	CategoryGold   OpportunityCategory = iota // gap neto positivo: lock instantáneo tomando ambos asks
	CategorySilver                            // suma de asks bajo el cap de pair cost: acumulable
	CategoryBronze                            // suma de asks bajo $1 pero sin margen tras fees
	CategoryAvoid                             // par por encima de $1: sin ventaja posible
)

func (c OpportunityCategory) String() string {
	switch c {
	case CategoryGold:
		return "GOLD"
	case CategorySilver:
		return "SILV"
	case CategoryBronze:
		return "BRNZ"
	default:
		return "SKIP"
	}
}

func (c OpportunityCategory) Icon() string {
	switch c {
	case CategoryGold:
		return "[G]"
	case CategorySilver:
		return "[S]"
	case CategoryBronze:
		return "[B]"
	default:
		return "[ ]"
	}
}

// DepthLevel analiza el pair cost a una profundidad de capital específica.
type DepthLevel struct {
	DepthUSDC    float64 // capital analizado en USDC ($50, $100, $200, $500)
	AvgPriceYES  float64 // precio medio ponderado de YES a esta profundidad
	AvgPriceNO   float64 // precio medio ponderado de NO a esta profundidad
	Sum          float64 // AvgPriceYES + AvgPriceNO
	GapAfterFees float64 // 1.0 - Sum - fees (positivo = lock rentable a esta profundidad)
	Profitable   bool    // GapAfterFees > 0
}

// ArbitrageResult contiene el análisis completo del pair cost de un mercado
// binario: cuánto cuesta el par YES+NO en la superficie del book y a varias
// profundidades de capital.
type ArbitrageResult struct {
	// Nivel superficial (best ask)
	BestAskYES  float64
	BestAskNO   float64
	DepthYES    float64 // USDC disponibles en el best ask YES
	DepthNO     float64 // USDC disponibles en el best ask NO
	MaxFillable float64 // min(DepthYES, DepthNO) — cuánto puedes tomar en 1 operación

	SumBestAsk   float64 // pair cost instantáneo al tope del book
	FeesTotal    float64
	ArbitrageGap float64 // 1.0 - SumBestAsk - FeesTotal (positivo = lock neto)
	HasArbitrage bool    // ArbitrageGap > 0

	// Análisis a distintas profundidades del book
	AtDepth []DepthLevel
}

// ProfitableDepths devuelve los niveles de profundidad donde el lock es rentable.
func (a ArbitrageResult) ProfitableDepths() []DepthLevel {
	var out []DepthLevel
	for _, d := range a.AtDepth {
		if d.Profitable {
			out = append(out, d)
		}
	}
	return out
}

// MaxProfitableDepth devuelve el mayor capital en USDC donde el lock sigue siendo rentable.
func (a ArbitrageResult) MaxProfitableDepth() float64 {
	max := 0.0
	for _, d := range a.AtDepth {
		if d.Profitable {
			max = d.DepthUSDC
		}
	}
	return max
}

// --- Funciones de cálculo ---

// VolumeWeightedPrice calcula el precio medio ponderado por volumen
// para comprar hasta maxUSDC en USDC recorriendo los asks del book.
func VolumeWeightedPrice(asks []BookEntry, maxUSDC float64) float64 {
	if len(asks) == 0 || maxUSDC <= 0 {
		return 0
	}
	totalShares := 0.0
	totalCost := 0.0
	remaining := maxUSDC

	for _, ask := range asks {
		levelCost := ask.Size * ask.Price
		if levelCost <= remaining {
			totalShares += ask.Size
			totalCost += levelCost
			remaining -= levelCost
		} else {
			// Fill parcial de este nivel
			sharesToBuy := remaining / ask.Price
			totalShares += sharesToBuy
			totalCost += remaining
			break
		}
	}

	if totalShares == 0 {
		return 0
	}
	return totalCost / totalShares
}

// CalculateArbitrage analiza el pair cost YES+NO de un mercado binario.
// Evalúa la superficie (best ask) y múltiples profundidades del book.
func CalculateArbitrage(yesBook, noBook OrderBook, feeRate float64) ArbitrageResult {
	result := ArbitrageResult{}

	if len(yesBook.Asks) == 0 || len(noBook.Asks) == 0 {
		return result
	}

	// Nivel superficial: best ask
	result.BestAskYES = yesBook.BestAsk()
	result.BestAskNO = noBook.BestAsk()
	result.DepthYES = yesBook.Asks[0].Size * yesBook.Asks[0].Price
	result.DepthNO = noBook.Asks[0].Size * noBook.Asks[0].Price
	result.MaxFillable = math.Min(result.DepthYES, result.DepthNO)

	result.SumBestAsk = result.BestAskYES + result.BestAskNO
	result.FeesTotal = result.SumBestAsk * feeRate
	result.ArbitrageGap = 1.0 - result.SumBestAsk - result.FeesTotal
	result.HasArbitrage = result.ArbitrageGap > 0

	// Análisis a distintas profundidades: $50, $100, $200, $500
	for _, depth := range []float64{50, 100, 200, 500} {
		avgYES := VolumeWeightedPrice(yesBook.Asks, depth)
		avgNO := VolumeWeightedPrice(noBook.Asks, depth)
		if avgYES == 0 || avgNO == 0 {
			break
		}
		sum := avgYES + avgNO
		fees := sum * feeRate
		gap := 1.0 - sum - fees

		result.AtDepth = append(result.AtDepth, DepthLevel{
			DepthUSDC:    depth,
			AvgPriceYES:  avgYES,
			AvgPriceNO:   avgNO,
			Sum:          sum,
			GapAfterFees: gap,
			Profitable:   gap > 0,
		})
	}

	return result
}

// ComputeCombinedScore calcula el score de ranking de un candidato: la
// ganancia esperada en USDC si se toma orderSize por pierna al tope del book,
// acotada por lo realmente fillable en una operación. Negativo cuando el par
// cuesta más de $1 tras fees — esos mercados solo interesan si la acumulación
// paciente puede bajar el pair cost por debajo del cap.
func ComputeCombinedScore(arb ArbitrageResult, orderSize float64) float64 {
	if arb.SumBestAsk <= 0 {
		return 0
	}
	fillable := math.Min(arb.MaxFillable, orderSize)
	pairs := fillable / arb.SumBestAsk
	return arb.ArbitrageGap * pairs
}

// Categorize clasifica un candidato por su pair cost instantáneo:
//
//	Gold   = gap neto positivo (lock inmediato tomando ambos asks)
//	Silver = SumBestAsk < maxPairCost (acumulable hacia el lock)
//	Bronze = SumBestAsk < 1.00 (bajo el payout pero sin margen tras fees)
//	Avoid  = par a $1 o más
func Categorize(arb ArbitrageResult, maxPairCost float64) OpportunityCategory {
	if arb.SumBestAsk <= 0 {
		return CategoryAvoid
	}
	switch {
	case arb.HasArbitrage:
		return CategoryGold
	case arb.SumBestAsk < maxPairCost:
		return CategorySilver
	case arb.SumBestAsk < 1.0:
		return CategoryBronze
	default:
		return CategoryAvoid
	}
}
