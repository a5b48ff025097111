package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Origen del asiento contable.
const (
	LedgerSourceLocal  = "local"  // sintetizado localmente (sistema externo inalcanzable)
	LedgerSourceRemote = "remote" // derivado de la contabilización remota
)

// LedgerEntry pata de un asiento de partida doble. Identificada por
// (invoice id, leg index). El libro es append-only: un asiento nunca se
// borra; una factura anulada se corrige con patas de reversión.
type LedgerEntry struct {
	InvoiceID   string          `json:"invoice_id"`
	LegIndex    int             `json:"leg_index"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"` // siempre el invoice id
	Source      string          `json:"source"`
	CreatedAt   time.Time       `json:"created_at"`
}
