package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de cumplimiento del resultado tributario.
const (
	ComplianceCompliant = "COMPLIANT"
	ComplianceFlagged   = "FLAGGED" // discrepancia con los totales declarados; sigue en el pipeline
)

// TaxResult resultado tributario derivado de una factura. Inmutable: si la
// factura o el juego de reglas cambia, se recalcula y REEMPLAZA completo,
// nunca se parchea campo a campo.
type TaxResult struct {
	InvoiceID string

	VATAmount decimal.Decimal // IVA
	VATRate   decimal.Decimal

	IncomeWithheld decimal.Decimal // ReteFuente renta
	IncomeRate     decimal.Decimal

	VATWithheld        decimal.Decimal // ReteIVA (fracción del IVA)
	VATWithholdingRate decimal.Decimal

	ICAWithheld decimal.Decimal // ReteICA (municipios distintos)
	ICARate     decimal.Decimal

	TotalWithheld decimal.Decimal
	NetAmount     decimal.Decimal // subtotal + IVA − retenciones

	PaymentType string // tipo de pago dominante usado para ReteFuente

	ComplianceStatus string
	Reasons          []string // motivos de discrepancia o avisos informativos

	ComputedAt time.Time
}

// Flagged reporta si el resultado quedó marcado para revisión manual.
func (t *TaxResult) Flagged() bool {
	return t.ComplianceStatus == ComplianceFlagged
}

// GrandTotal base a pagar antes de retenciones (subtotal + IVA).
func (t *TaxResult) GrandTotal(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Add(t.VATAmount)
}
