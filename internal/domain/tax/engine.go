package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/pkg/normalize"
)

// Engine calcula el resultado tributario de una factura. Compute es una
// función total, determinista y sin efectos: el mismo (factura, reglas)
// produce siempre el mismo TaxResult, lo que permite paralelizar sin locks.
type Engine struct{}

// NewEngine construye el motor.
func NewEngine() *Engine { return &Engine{} }

// Compute aplica las reglas del período a la factura:
//
//  1. IVA: Σ(subtotal de línea × tarifa de su categoría), redondeado al centavo.
//  2. ReteFuente renta: por tipo de pago dominante si el subtotal alcanza el
//     umbral; la tarifa mayor aplica a TODA la base desde el umbral secundario.
//  3. ReteIVA: fracción del IVA si la base supera el umbral y el comprador
//     pertenece a un régimen retenedor.
//  4. ReteICA: solo entre municipios distintos, por tarifa ciudad/actividad.
//  5. Totales: retenciones y neto a pagar.
func (e *Engine) Compute(inv *entity.InvoiceRecord, rs *RuleSet) *entity.TaxResult {
	// ComputedAt lo estampa quien persiste; dejarlo fuera del cálculo hace a
	// Compute estrictamente idempotente (mismo input, resultado idéntico).
	result := &entity.TaxResult{
		InvoiceID:        inv.ID,
		ComplianceStatus: entity.ComplianceCompliant,
	}

	// Subtotal cero: resultado todo-cero, conforme.
	if inv.Subtotal.IsZero() {
		result.PaymentType = ClassifyPayment(inv)
		return result
	}

	// 1. IVA por categoría de línea.
	var vat decimal.Decimal
	var dominantRate decimal.Decimal
	var dominantBase decimal.Decimal
	for _, li := range inv.LineItems {
		_, rate := rs.VAT.RateFor(li.Description)
		lineBase := li.Subtotal()
		vat = vat.Add(lineBase.Mul(rate))
		if lineBase.GreaterThan(dominantBase) {
			dominantBase = lineBase
			dominantRate = rate
		}
	}
	result.VATAmount = roundMoney(vat)
	result.VATRate = dominantRate

	// 2. ReteFuente renta.
	result.PaymentType = ClassifyPayment(inv)
	if rule, ok := rs.IncomeWithholding[result.PaymentType]; ok {
		threshold := rs.ThresholdAmount(rule.MinUVT)
		if inv.Subtotal.GreaterThanOrEqual(threshold) {
			rate := rule.Rate
			// Salto de tarifa: desde el umbral secundario la tarifa mayor
			// grava la base completa, no el excedente.
			if rule.LargeMinUVT.Sign() > 0 &&
				inv.Subtotal.GreaterThanOrEqual(rs.ThresholdAmount(rule.LargeMinUVT)) {
				rate = rule.LargeRate
			}
			result.IncomeRate = rate
			result.IncomeWithheld = roundMoney(inv.Subtotal.Mul(rate))
		}
	}

	// 3. ReteIVA: sobre el IVA, si la base supera el umbral y el régimen del
	// comprador es retenedor.
	if result.VATAmount.Sign() > 0 {
		vwThreshold := rs.ThresholdAmount(rs.VATWithholding.MinUVT)
		if inv.Subtotal.GreaterThan(vwThreshold) {
			if rate, ok := rs.VATWithholding.Rates[inv.BuyerRegime]; ok && rate.Sign() > 0 {
				result.VATWithholdingRate = rate
				result.VATWithheld = roundMoney(result.VATAmount.Mul(rate))
			}
		}
	}

	// 4. ReteICA: aplica solo entre municipios distintos.
	if normalize.Key(inv.VendorCity) != normalize.Key(inv.BuyerCity) {
		cityRule, known := rs.CityRule(inv.VendorCity)
		if !known {
			// Ciudad sin tabla: entrada de tarifa cero, se reporta y no es fatal.
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("ciudad %q sin tabla ICA: ReteICA en cero", inv.VendorCity))
		} else if inv.Subtotal.GreaterThan(rs.ThresholdAmount(cityRule.MinUVT)) {
			if rate, ok := cityRule.Activities[activityFor(result.PaymentType)]; ok {
				result.ICARate = rate
				result.ICAWithheld = roundMoney(inv.Subtotal.Mul(rate))
			}
		}
	}

	// 5. Totales.
	result.TotalWithheld = result.IncomeWithheld.
		Add(result.VATWithheld).
		Add(result.ICAWithheld)
	result.NetAmount = inv.Subtotal.Add(result.VATAmount).Sub(result.TotalWithheld)

	return result
}
