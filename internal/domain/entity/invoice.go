package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/internal/domain"
)

// Dirección de la factura respecto a la empresa.
const (
	DirectionPurchase = "purchase" // compra: gasto / cuenta por pagar
	DirectionSale     = "sale"     // venta: ingreso / cuenta por cobrar
)

// Regímenes tributarios de las partes (Colombia).
const (
	RegimeSimplified = "simplified" // no responsable de IVA
	RegimeCommon     = "common"     // responsable de IVA (agente retenedor de ReteIVA)
)

// Estados del pipeline de procesamiento de una factura.
//
//	RECEIVED → DUPLICATE_CHECKED → TAXED → POSTING_ATTEMPTED →
//	POSTED_REMOTE | POSTED_LOCAL → CACHED
//
// DUPLICATE_HOLD detiene la factura a la espera de confirmación explícita.
// REJECTED es terminal y solo aplica a entrada estructuralmente inválida;
// la indisponibilidad del sistema remoto NUNCA produce REJECTED.
const (
	StatusReceived         = "RECEIVED"
	StatusDuplicateChecked = "DUPLICATE_CHECKED"
	StatusDuplicateHold    = "DUPLICATE_HOLD"
	StatusTaxed            = "TAXED"
	StatusPostingAttempted = "POSTING_ATTEMPTED"
	StatusPostedRemote     = "POSTED_REMOTE" // contabilizada en el sistema externo
	StatusPostedLocal      = "POSTED_LOCAL"  // asentada en el libro local, pendiente de reintento remoto
	StatusCached           = "CACHED"
	StatusRejected         = "REJECTED"
)

// LineItem línea de detalle de la factura extraída.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal de la línea (cantidad × precio unitario).
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// InvoiceRecord factura ya extraída de su fuente (PDF/imagen). Los campos de
// la extracción son inmutables una vez creado el registro; solo el estado de
// procesamiento y la referencia remota avanzan durante el pipeline.
type InvoiceRecord struct {
	ID               string
	InvoiceNumber    string
	Date             time.Time
	VendorName       string
	VendorTaxID      string
	VendorRegime     string
	VendorCity       string
	BuyerTaxID       string
	BuyerRegime      string
	BuyerCity        string
	Subtotal         decimal.Decimal
	StatedTaxTotal   decimal.Decimal // IVA declarado en el documento
	StatedGrandTotal decimal.Decimal // total declarado en el documento
	LineItems        []LineItem
	Direction        string

	Status    string
	RemoteID  string // ID asignado por el sistema contable externo
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate verifica los campos estructuralmente obligatorios. Una factura que
// no los tenga se rechaza (REJECTED); no hay reintento posible.
func (r *InvoiceRecord) Validate() error {
	var missing []string
	if r.InvoiceNumber == "" {
		missing = append(missing, "invoice_number")
	}
	if r.Date.IsZero() {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(r.VendorName) == "" {
		missing = append(missing, "vendor_name")
	}
	if r.Direction != DirectionPurchase && r.Direction != DirectionSale {
		missing = append(missing, "direction")
	}
	if r.Subtotal.IsNegative() {
		missing = append(missing, "subtotal")
	}
	if len(r.LineItems) == 0 {
		missing = append(missing, "line_items")
	}
	for i, li := range r.LineItems {
		if strings.TrimSpace(li.Description) == "" || li.Quantity.Sign() <= 0 || li.UnitPrice.IsNegative() {
			missing = append(missing, fmt.Sprintf("line_items[%d]", i))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("campos obligatorios ausentes o inválidos (%s): %w",
			strings.Join(missing, ", "), domain.ErrInvalidInput)
	}
	return nil
}

// GrandTotal total calculado a partir del subtotal y el IVA declarado.
func (r *InvoiceRecord) GrandTotal() decimal.Decimal {
	return r.Subtotal.Add(r.StatedTaxTotal)
}
