package repository

import (
	"time"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
)

// LedgerRepository define el puerto del libro contable. El libro es
// append-only: no hay Update ni Delete; las correcciones entran como patas
// de reversión.
type LedgerRepository interface {
	Append(legs []entity.LedgerEntry) error
	ListByInvoiceID(invoiceID string) ([]entity.LedgerEntry, error)
	// ListByRange trae las patas del rango, opcionalmente de una sola cuenta
	// (account vacío trae todas), para alimentar las agregaciones de reporte.
	ListByRange(account string, from, to time.Time) ([]entity.LedgerEntry, error)
}
