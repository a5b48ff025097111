package tax_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/internal/domain/tax"
)

func TestValidate_TotalesDentroDeTolerancia(t *testing.T) {
	rs := testRuleSet(t)
	inv := purchaseInvoice("203343.81", "Concentrado para perro", "Bogotá", "Bogotá")
	inv.StatedTaxTotal = decimal.RequireFromString("10167.19")
	inv.StatedGrandTotal = decimal.RequireFromString("213511.00")

	res := tax.NewEngine().Compute(inv, rs)
	res = tax.NewValidator(decimal.Zero).Validate(inv, res)

	assert.Equal(t, entity.ComplianceCompliant, res.ComplianceStatus)
	assert.Empty(t, res.Reasons)
}

func TestValidate_IVADeclaradoFueraDeTolerancia(t *testing.T) {
	rs := testRuleSet(t)
	inv := purchaseInvoice("203343.81", "Concentrado para perro", "Bogotá", "Bogotá")
	// El documento declara 19% donde el cálculo da 5%: discrepancia clara.
	inv.StatedTaxTotal = decimal.RequireFromString("38635.32")
	inv.StatedGrandTotal = decimal.RequireFromString("241979.13")

	res := tax.NewEngine().Compute(inv, rs)
	res = tax.NewValidator(decimal.Zero).Validate(inv, res)

	assert.Equal(t, entity.ComplianceFlagged, res.ComplianceStatus)
	require.Len(t, res.Reasons, 2, "IVA y total deben reportar discrepancia")
}

func TestValidate_DiscrepanciaLeveDentroDelUnoPorCiento(t *testing.T) {
	rs := testRuleSet(t)
	inv := purchaseInvoice("1000000", "Compra de mercancía", "Bogotá", "Bogotá")
	// IVA calculado: 190.000. Declarado con ruido de extracción del 0,5%.
	inv.StatedTaxTotal = decimal.RequireFromString("190950")
	inv.StatedGrandTotal = decimal.RequireFromString("1190950")

	res := tax.NewEngine().Compute(inv, rs)
	res = tax.NewValidator(decimal.Zero).Validate(inv, res)

	assert.Equal(t, entity.ComplianceCompliant, res.ComplianceStatus)
}

func TestValidate_NoMutaElResultadoOriginal(t *testing.T) {
	rs := testRuleSet(t)
	inv := purchaseInvoice("1000000", "Compra de mercancía", "Bogotá", "Bogotá")
	inv.StatedTaxTotal = decimal.RequireFromString("500000") // muy desviado

	original := tax.NewEngine().Compute(inv, rs)
	validated := tax.NewValidator(decimal.Zero).Validate(inv, original)

	assert.Equal(t, entity.ComplianceCompliant, original.ComplianceStatus,
		"Validate debe operar sobre una copia")
	assert.Equal(t, entity.ComplianceFlagged, validated.ComplianceStatus)
	assert.Empty(t, original.Reasons)
}

func TestValidate_SinTotalesDeclarados(t *testing.T) {
	rs := testRuleSet(t)
	inv := purchaseInvoice("1000000", "Compra de mercancía", "Bogotá", "Bogotá")
	// Extracción sin totales declarados: el calculado no-cero contra cero
	// declarado es discrepancia total y debe marcarse para revisión.
	res := tax.NewEngine().Compute(inv, rs)
	res = tax.NewValidator(decimal.Zero).Validate(inv, res)

	assert.Equal(t, entity.ComplianceFlagged, res.ComplianceStatus)
}
