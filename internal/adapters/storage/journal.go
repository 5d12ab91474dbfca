package storage

// journal.go — rastro de auditoría SQLite del motor de acumulación.
//
// Tablas:
//   journal_orders — órdenes reales del CLOB (ID local + CLOB)
//   journal_fills  — eventos de fill detectados
//   journal_merges — transacciones de merge on-chain completadas
//
// El estado vivo (posiciones, capital, daily stats) viaja en los ficheros
// JSON atómicos de jsonstate; el journal solo acumula historia para
// reporting y reconciliación post-mortem.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/pairlock/internal/domain"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS journal_orders (
    clob_order_id   TEXT PRIMARY KEY,
    condition_id    TEXT NOT NULL,
    token_id        TEXT NOT NULL,
    side            TEXT NOT NULL,      -- YES / NO
    price           REAL NOT NULL,
    size            REAL NOT NULL,      -- shares pedidos
    filled_size     REAL NOT NULL DEFAULT 0,
    filled_price    REAL NOT NULL DEFAULT 0,
    placed_at       DATETIME NOT NULL,
    status          TEXT NOT NULL DEFAULT 'OPEN',
    filled_at       DATETIME,
    question        TEXT,
    end_date        DATETIME,
    neg_risk        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS journal_orders_status ON journal_orders(status);
CREATE INDEX IF NOT EXISTS journal_orders_condition ON journal_orders(condition_id);

CREATE TABLE IF NOT EXISTS journal_fills (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id        TEXT NOT NULL,
    clob_trade_id   TEXT,
    price           REAL NOT NULL,
    size            REAL NOT NULL,
    timestamp       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS journal_merges (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    condition_id    TEXT NOT NULL,
    tx_hash         TEXT NOT NULL,
    gas_used_pol    REAL NOT NULL DEFAULT 0,
    gas_cost_usd    REAL NOT NULL DEFAULT 0,
    usdc_received   REAL NOT NULL DEFAULT 0,
    spread_profit   REAL NOT NULL DEFAULT 0,
    success         INTEGER NOT NULL DEFAULT 0,
    error           TEXT,
    executed_at     DATETIME NOT NULL
);
`

// ApplyJournalSchema crea las tablas del journal si no existen.
func (s *SQLiteStorage) ApplyJournalSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, journalSchema)
	if err != nil {
		return fmt.Errorf("journal schema: %w", err)
	}
	return nil
}

// ─── Órdenes ─────────────────────────────────────────────────────────────────

// RecordOrder inserta (o reemplaza) una orden recién colocada.
func (s *SQLiteStorage) RecordOrder(ctx context.Context, o domain.LiveOrder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO journal_orders
		  (clob_order_id, condition_id, token_id, side, price, size, filled_size,
		   filled_price, placed_at, status, filled_at, question, end_date, neg_risk)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.CLOBOrderID, o.ConditionID, o.TokenID, o.Side, o.BidPrice, o.Size, o.FilledSize,
		o.FilledPrice, o.PlacedAt.UTC(), string(o.Status), nullTime(o.FilledAt), o.Question,
		nullTimeVal(o.EndDate), boolToInt(o.NegRisk),
	)
	return err
}

// UpdateOrderStatus actualiza solo el campo status.
func (s *SQLiteStorage) UpdateOrderStatus(ctx context.Context, clobOrderID string, status domain.LiveOrderStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE journal_orders SET status=? WHERE clob_order_id=?`, string(status), clobOrderID)
	return err
}

// UpdateOrderFill actualiza el progreso de fill de una orden.
func (s *SQLiteStorage) UpdateOrderFill(ctx context.Context, clobOrderID string, filledSize, filledPrice float64, status domain.LiveOrderStatus) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE journal_orders SET filled_size=?, filled_price=?, status=?, filled_at=? WHERE clob_order_id=?`,
		filledSize, filledPrice, string(status), now, clobOrderID)
	return err
}

// OpenOrders devuelve las órdenes OPEN y PARTIAL del journal.
func (s *SQLiteStorage) OpenOrders(ctx context.Context) ([]domain.LiveOrder, error) {
	q := `SELECT clob_order_id, condition_id, token_id, side, price, size, filled_size,
	             filled_price, placed_at, status, filled_at, question, end_date, neg_risk
	      FROM journal_orders WHERE status IN ('OPEN','PARTIAL') ORDER BY placed_at ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.LiveOrder
	for rows.Next() {
		o, err := scanJournalOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanJournalOrder(rows *sql.Rows) (domain.LiveOrder, error) {
	var o domain.LiveOrder
	var filledAt, endDate, question sql.NullString
	var statusStr string
	var negRiskInt int

	err := rows.Scan(
		&o.CLOBOrderID, &o.ConditionID, &o.TokenID, &o.Side,
		&o.BidPrice, &o.Size, &o.FilledSize, &o.FilledPrice,
		&o.PlacedAt, &statusStr, &filledAt, &question, &endDate, &negRiskInt,
	)
	if err != nil {
		return o, err
	}

	o.Status = domain.LiveOrderStatus(statusStr)
	o.NegRisk = negRiskInt != 0
	o.Question = question.String

	if filledAt.Valid && filledAt.String != "" {
		t := parseSQLiteTime(filledAt.String)
		if !t.IsZero() {
			o.FilledAt = &t
		}
	}
	if endDate.Valid && endDate.String != "" {
		o.EndDate = parseSQLiteTime(endDate.String)
	}
	return o, nil
}

// parseSQLiteTime tolera los dos formatos de fecha que SQLite devuelve.
func parseSQLiteTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	if t.IsZero() {
		t, _ = time.Parse("2006-01-02 15:04:05", s)
	}
	return t
}

// ─── Fills ───────────────────────────────────────────────────────────────────

// RecordFill registra un evento de fill.
func (s *SQLiteStorage) RecordFill(ctx context.Context, f domain.LiveFill) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal_fills (order_id, clob_trade_id, price, size, timestamp) VALUES (?,?,?,?,?)`,
		f.OrderID, f.CLOBTradeID, f.Price, f.Size, f.Timestamp.UTC())
	return err
}

// ─── Merges ──────────────────────────────────────────────────────────────────

// RecordMerge persiste el resultado de un merge on-chain.
func (s *SQLiteStorage) RecordMerge(ctx context.Context, r domain.MergeResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_merges
		  (condition_id, tx_hash, gas_used_pol, gas_cost_usd, usdc_received, spread_profit, success, error, executed_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.ConditionID, r.TxHash, r.GasUsedPOL, r.GasCostUSD,
		r.USDCReceived, r.SpreadProfit, boolToInt(r.Success), r.Error, r.ExecutedAt.UTC(),
	)
	return err
}

// GetMerges devuelve todos los merges registrados.
func (s *SQLiteStorage) GetMerges(ctx context.Context) ([]domain.MergeResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT condition_id, tx_hash, gas_used_pol, gas_cost_usd, usdc_received, spread_profit, success, error, executed_at
		 FROM journal_merges ORDER BY executed_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.MergeResult
	for rows.Next() {
		var r domain.MergeResult
		var successInt int
		var errStr sql.NullString
		if err := rows.Scan(&r.ConditionID, &r.TxHash, &r.GasUsedPOL, &r.GasCostUSD,
			&r.USDCReceived, &r.SpreadProfit, &successInt, &errStr, &r.ExecutedAt); err != nil {
			return nil, err
		}
		r.Success = successInt != 0
		r.Error = errStr.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullTimeVal(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
