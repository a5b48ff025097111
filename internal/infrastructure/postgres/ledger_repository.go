package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implementación append-only de LedgerRepository. La tabla no
// tiene UPDATE ni DELETE en ninguna ruta del código; la llave
// (invoice_id, leg_index) hace idempotente el reintento de un asiento.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append asienta las patas. El asiento completo entra o no entra: llamar
// dentro de una transacción (TxRunner) cuando haya más de una pata.
func (r *LedgerRepo) Append(legs []entity.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (invoice_id, leg_index, account_code, account_name,
			debit, credit, description, reference, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (invoice_id, leg_index) DO NOTHING`
	now := time.Now()
	for _, leg := range legs {
		createdAt := leg.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := r.q.Exec(context.Background(), query,
			leg.InvoiceID, leg.LegIndex, leg.AccountCode, leg.AccountName,
			leg.Debit, leg.Credit, leg.Description, leg.Reference, leg.Source, createdAt,
		); err != nil {
			return fmt.Errorf("insert ledger entry %s/%d: %w", leg.InvoiceID, leg.LegIndex, err)
		}
	}
	return nil
}

// ListByInvoiceID trae las patas de una factura en orden de asiento.
func (r *LedgerRepo) ListByInvoiceID(invoiceID string) ([]entity.LedgerEntry, error) {
	rows, err := r.q.Query(context.Background(),
		selectLedger+` WHERE invoice_id = $1 ORDER BY leg_index ASC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list ledger by invoice: %w", err)
	}
	return collectLegs(rows)
}

// ListByRange trae las patas del rango, opcionalmente de una sola cuenta.
func (r *LedgerRepo) ListByRange(account string, from, to time.Time) ([]entity.LedgerEntry, error) {
	query := selectLedger + ` WHERE created_at >= $1 AND created_at <= $2`
	args := []any{from, to}
	if account != "" {
		query += ` AND account_code = $3`
		args = append(args, account)
	}
	query += ` ORDER BY account_code ASC, created_at ASC, leg_index ASC`

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger by range: %w", err)
	}
	return collectLegs(rows)
}

const selectLedger = `
	SELECT invoice_id, leg_index, account_code, account_name,
		debit, credit, description, reference, source, created_at
	FROM ledger_entries`

func collectLegs(rows pgx.Rows) ([]entity.LedgerEntry, error) {
	defer rows.Close()
	var out []entity.LedgerEntry
	for rows.Next() {
		var leg entity.LedgerEntry
		if err := rows.Scan(
			&leg.InvoiceID, &leg.LegIndex, &leg.AccountCode, &leg.AccountName,
			&leg.Debit, &leg.Credit, &leg.Description, &leg.Reference, &leg.Source, &leg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, leg)
	}
	return out, rows.Err()
}
