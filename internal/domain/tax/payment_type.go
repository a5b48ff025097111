package tax

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/pkg/normalize"
)

// Tipos de pago para ReteFuente renta. Deben coincidir con las claves de la
// tabla income_withholding del documento de reglas.
const (
	PaymentHonorarios     = "honorarios"
	PaymentArrendamientos = "arrendamientos"
	PaymentServicios      = "servicios"
	PaymentCompras        = "compras"
)

// Tipos de actividad ICA.
const (
	ActivityComercio  = "comercio"
	ActivityServicios = "servicios"
	ActivityIndustria = "industria"
)

// paymentClassifier predicado por palabras clave. La lista se evalúa en
// orden a primera coincidencia; el último elemento sin keywords es el
// default documentado (compras).
type paymentClassifier struct {
	payment  string
	keywords []string
}

var paymentClassifiers = []paymentClassifier{
	{PaymentHonorarios, []string{"honorarios", "consultoria", "asesoria", "profesional", "auditoria", "diseño"}},
	{PaymentArrendamientos, []string{"arriendo", "arrendamiento", "alquiler", "canon"}},
	{PaymentServicios, []string{"servicio", "mantenimiento", "instalacion", "transporte", "aseo", "vigilancia"}},
	{PaymentCompras, nil}, // default: compra de bienes
}

// ClassifyPayment determina el tipo de pago dominante de la factura a partir
// de las descripciones de sus líneas. Gana el primer clasificador cuya
// palabra clave aparezca en alguna línea; una factura sin coincidencias es
// una compra de bienes.
func ClassifyPayment(inv *entity.InvoiceRecord) string {
	for _, c := range paymentClassifiers {
		if c.keywords == nil {
			return c.payment
		}
		for _, li := range inv.LineItems {
			for _, kw := range c.keywords {
				if normalize.Contains(li.Description, kw) {
					return c.payment
				}
			}
		}
	}
	return PaymentCompras
}

// activityFor mapea el tipo de pago a la actividad ICA que grava el municipio.
func activityFor(paymentType string) string {
	if paymentType == PaymentCompras {
		return ActivityComercio
	}
	return ActivityServicios
}

// roundMoney redondea al centavo con la regla half-up (mitad hacia arriba),
// que es la usada por la DIAN para los valores de las casillas.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
