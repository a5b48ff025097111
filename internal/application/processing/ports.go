// Package processing orquesta el pipeline por factura: validación, compuerta
// de duplicados, cálculo tributario, intento de contabilización remota y, si
// el sistema externo no responde, síntesis del asiento en el libro local.
package processing

import (
	"context"
	"time"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. El asiento y el estado final de la factura
// se confirman juntos o no se confirma ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		taxRepo repository.TaxResultRepository,
		ledgerRepo repository.LedgerRepository,
	) error) error
}

// FingerprintStore define el puerto del índice efímero de duplicados. Un
// balde agrupa los candidatos de una misma huella y expira completo al
// vencer la ventana. El índice NUNCA es fuente de verdad: purgarlo solo
// degrada la detección, jamás el libro.
type FingerprintStore interface {
	// Add agrega el miembro al balde y (re)programa su expiración.
	Add(ctx context.Context, bucket, member string, window time.Duration) error
	// Members lista los miembros vigentes del balde (vacío si expiró).
	Members(ctx context.Context, bucket string) ([]string, error)
}

// PostOutcome resultado del intento de contabilización remota. La
// indisponibilidad del sistema externo es una rama ESPERADA: se reporta en
// PostedRemotely=false con el motivo, no como error del pipeline.
type PostOutcome struct {
	PostedRemotely bool
	RemoteID       string
	Reason         string // motivo del fallback cuando PostedRemotely es false
}

// Poster define el puerto del contabilizador externo con su resiliencia
// (cortacircuitos y reintentos) ya compuesta.
type Poster interface {
	Post(ctx context.Context, inv *entity.InvoiceRecord, res *entity.TaxResult) PostOutcome
}
