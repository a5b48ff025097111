package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
)

// Validator contrasta el resultado calculado contra los totales declarados en
// el documento extraído. Una discrepancia fuera de tolerancia marca la
// factura como FLAGGED para revisión manual pero NO detiene el pipeline.
type Validator struct {
	tolerance decimal.Decimal // tolerancia relativa (0.01 = 1%)
}

// NewValidator construye el validador. Tolerancia no positiva usa el 1%.
func NewValidator(tolerance decimal.Decimal) *Validator {
	if tolerance.Sign() <= 0 {
		tolerance = decimal.NewFromFloat(0.01)
	}
	return &Validator{tolerance: tolerance}
}

// Validate devuelve una COPIA del resultado con los campos de cumplimiento
// diligenciados; el resultado de entrada no se muta.
func (v *Validator) Validate(inv *entity.InvoiceRecord, result *entity.TaxResult) *entity.TaxResult {
	out := *result
	out.Reasons = append([]string(nil), result.Reasons...)
	out.ComplianceStatus = entity.ComplianceCompliant

	// Los avisos que ya traiga el motor (p. ej. ciudad sin tabla ICA) son
	// informativos; solo las discrepancias halladas aquí marcan la factura.
	if reason, ok := v.outOfTolerance("IVA", out.VATAmount, inv.StatedTaxTotal); ok {
		out.Reasons = append(out.Reasons, reason)
		out.ComplianceStatus = entity.ComplianceFlagged
	}
	computedGrand := inv.Subtotal.Add(out.VATAmount)
	if reason, ok := v.outOfTolerance("total", computedGrand, inv.StatedGrandTotal); ok {
		out.Reasons = append(out.Reasons, reason)
		out.ComplianceStatus = entity.ComplianceFlagged
	}
	return &out
}

// outOfTolerance compara un valor calculado contra el declarado con
// tolerancia relativa al declarado. Declarado y calculado ambos en cero
// coinciden trivialmente.
func (v *Validator) outOfTolerance(field string, computed, stated decimal.Decimal) (string, bool) {
	if computed.IsZero() && stated.IsZero() {
		return "", false
	}
	base := stated.Abs()
	if base.IsZero() {
		base = computed.Abs()
	}
	diff := computed.Sub(stated).Abs()
	if diff.GreaterThan(base.Mul(v.tolerance)) {
		return fmt.Sprintf("%s declarado %s difiere del calculado %s en más del %s%%",
			field, stated.StringFixed(2), computed.StringFixed(2),
			v.tolerance.Mul(decimal.NewFromInt(100)).String()), true
	}
	return "", false
}
