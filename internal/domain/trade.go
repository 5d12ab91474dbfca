package domain

import "time"

// Trade es un trade histórico del CLOB, usado por el backtest para simular
// cuántos pares habría llenado un bid paciente.
type Trade struct {
	ID        string
	TokenID   string
	Side      string  // "BUY" o "SELL"
	Price     float64
	Size      float64
	Timestamp time.Time
}
