package domain

import "time"

// LiveOrderStatus representa el ciclo de vida de una orden real en el CLOB.
type LiveOrderStatus string

const (
	LiveStatusOpen      LiveOrderStatus = "OPEN"
	LiveStatusPartial   LiveOrderStatus = "PARTIAL"
	LiveStatusFilled    LiveOrderStatus = "FILLED"
	LiveStatusCancelled LiveOrderStatus = "CANCELLED"
	LiveStatusExpired   LiveOrderStatus = "EXPIRED"
	LiveStatusMerged    LiveOrderStatus = "MERGED"
)

// LiveOrder es una orden real colocada en el CLOB, tal como la reporta el
// exchange. El Fill Manager es el dueño autoritativo de su estado en vivo.
type LiveOrder struct {
	ID          string // UUID local
	CLOBOrderID string // hash de orden del exchange (0x...)
	ConditionID string
	TokenID     string
	Side        string // "YES" o "NO"
	BidPrice    float64
	Size        float64 // shares pedidos
	FilledSize  float64 // shares llenados hasta ahora
	FilledPrice float64 // precio medio de los fills
	PlacedAt    time.Time
	Status      LiveOrderStatus
	FilledAt    *time.Time
	Question    string
	EndDate     time.Time
	NegRisk     bool
}

// LiveFill es un evento de fill detectado desde el CLOB.
type LiveFill struct {
	ID          int64
	OrderID     string // ID de tracking local
	CLOBTradeID string
	Price       float64
	Size        float64
	Timestamp   time.Time
}

// MergeResult es el resultado de un merge CTF on-chain.
type MergeResult struct {
	ConditionID  string
	TxHash       string
	GasUsedPOL   float64
	GasCostUSD   float64
	USDCReceived float64
	SpreadProfit float64 // USDCReceived - capital desplegado
	Success      bool
	Error        string
	ExecutedAt   time.Time
}

// PlaceOrderRequest se envía al ejecutor de órdenes del CLOB.
type PlaceOrderRequest struct {
	TokenID     string
	ConditionID string
	Price       float64
	Size        float64 // shares
	Side        string  // "BUY" | "SELL"
	NegRisk     bool
}

// PlacedOrder es la respuesta del CLOB tras colocar una orden.
type PlacedOrder struct {
	CLOBOrderID string
	Status      string
	TakenAmount float64 // llenado inmediato (porción taker)
	MadeAmount  float64 // descansando en el book (porción maker)
}
