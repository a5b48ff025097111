// Package ledger sintetiza asientos de partida doble sobre el Plan Único de
// Cuentas (PUC) colombiano y construye los reportes contables (libro mayor,
// balance de prueba y cartera por edades) como agregaciones puras sobre las
// patas del libro.
package ledger

import "github.com/jhoicas/Contable-api/internal/domain/tax"

// Cuentas PUC usadas por el sintetizador.
const (
	// Compras: débito de gasto/inventario según el tipo de pago.
	AccountHonorarios     = "511025" // gastos - honorarios
	AccountArrendamientos = "512010" // gastos - arrendamientos construcciones
	AccountServicios      = "513550" // gastos - servicios
	AccountMercancias     = "143501" // inventario - mercancías no fabricadas

	// IVA.
	AccountIVADescontable = "240810" // IVA descontable (compras)
	AccountIVAGenerado    = "240820" // IVA generado (ventas)

	// Retenciones practicadas al proveedor (pasivo del comprador).
	AccountReteFuentePorPagar = "236540" // retención en la fuente por pagar
	AccountReteIVAPorPagar    = "236701" // impuesto a las ventas retenido
	AccountReteICAPorPagar    = "236801" // impuesto de industria y comercio retenido

	// Retenciones sufridas por el vendedor (activo, anticipo de impuestos).
	AccountReteFuenteAnticipo = "135515" // retención en la fuente
	AccountReteIVAAnticipo    = "135517" // impuesto a las ventas retenido
	AccountReteICAAnticipo    = "135518" // impuesto de industria y comercio retenido

	// Contrapartidas de terceros e ingresos.
	AccountProveedores = "220501" // proveedores nacionales
	AccountClientes    = "130505" // clientes nacionales
	AccountIngresos    = "413550" // ingresos operacionales - servicios
)

// accountNames nombre oficial de cada cuenta para diligenciar las patas y los
// encabezados de los reportes.
var accountNames = map[string]string{
	AccountHonorarios:         "Honorarios",
	AccountArrendamientos:     "Arrendamientos",
	AccountServicios:          "Servicios",
	AccountMercancias:         "Mercancías no fabricadas por la empresa",
	AccountIVADescontable:     "IVA descontable",
	AccountIVAGenerado:        "IVA generado",
	AccountReteFuentePorPagar: "Retención en la fuente por pagar",
	AccountReteIVAPorPagar:    "Impuesto a las ventas retenido",
	AccountReteICAPorPagar:    "Impuesto de industria y comercio retenido",
	AccountReteFuenteAnticipo: "Anticipo retención en la fuente",
	AccountReteIVAAnticipo:    "Anticipo impuesto a las ventas retenido",
	AccountReteICAAnticipo:    "Anticipo impuesto de industria y comercio",
	AccountProveedores:        "Proveedores nacionales",
	AccountClientes:           "Clientes nacionales",
	AccountIngresos:           "Ingresos operacionales",
}

// AccountName devuelve el nombre PUC de la cuenta, o el código cuando no
// está en la tabla.
func AccountName(code string) string {
	if name, ok := accountNames[code]; ok {
		return name
	}
	return code
}

// expenseAccountFor resuelve la cuenta de gasto/inventario de una compra a
// partir del tipo de pago dominante del resultado tributario.
func expenseAccountFor(paymentType string) string {
	switch paymentType {
	case tax.PaymentHonorarios:
		return AccountHonorarios
	case tax.PaymentArrendamientos:
		return AccountArrendamientos
	case tax.PaymentServicios:
		return AccountServicios
	default:
		return AccountMercancias
	}
}
