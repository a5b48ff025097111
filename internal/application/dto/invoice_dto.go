package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
)

// LineItemRequest línea de la factura extraída.
type LineItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ProcessInvoiceRequest factura a procesar por el pipeline. Los montos
// viajan como strings decimales para no perder precisión en el JSON.
type ProcessInvoiceRequest struct {
	InvoiceNumber    string            `json:"invoice_number"`
	Date             time.Time         `json:"date"`
	VendorName       string            `json:"vendor_name"`
	VendorTaxID      string            `json:"vendor_tax_id"`
	VendorRegime     string            `json:"vendor_regime"`
	VendorCity       string            `json:"vendor_city"`
	BuyerTaxID       string            `json:"buyer_tax_id"`
	BuyerRegime      string            `json:"buyer_regime"`
	BuyerCity        string            `json:"buyer_city"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	StatedTaxTotal   decimal.Decimal   `json:"stated_tax_total"`
	StatedGrandTotal decimal.Decimal   `json:"stated_grand_total"`
	Direction        string            `json:"direction"`
	LineItems        []LineItemRequest `json:"line_items"`

	// ConfirmDuplicate autoriza a continuar aunque la compuerta de
	// duplicados encuentre coincidencias.
	ConfirmDuplicate bool `json:"confirm_duplicate"`
}

// ToEntity convierte la petición a la entidad del dominio.
func (r ProcessInvoiceRequest) ToEntity() *entity.InvoiceRecord {
	inv := &entity.InvoiceRecord{
		InvoiceNumber:    r.InvoiceNumber,
		Date:             r.Date,
		VendorName:       r.VendorName,
		VendorTaxID:      r.VendorTaxID,
		VendorRegime:     r.VendorRegime,
		VendorCity:       r.VendorCity,
		BuyerTaxID:       r.BuyerTaxID,
		BuyerRegime:      r.BuyerRegime,
		BuyerCity:        r.BuyerCity,
		Subtotal:         r.Subtotal,
		StatedTaxTotal:   r.StatedTaxTotal,
		StatedGrandTotal: r.StatedGrandTotal,
		Direction:        r.Direction,
	}
	for _, li := range r.LineItems {
		inv.LineItems = append(inv.LineItems, entity.LineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
		})
	}
	return inv
}

// BatchRequest lote de facturas.
type BatchRequest struct {
	Invoices         []ProcessInvoiceRequest `json:"invoices"`
	ConfirmDuplicate bool                    `json:"confirm_duplicate"`
}

// TaxSummary resumen del resultado tributario en las respuestas.
type TaxSummary struct {
	VATAmount        decimal.Decimal `json:"vat_amount"`
	IncomeWithheld   decimal.Decimal `json:"income_withheld"`
	VATWithheld      decimal.Decimal `json:"vat_withheld"`
	ICAWithheld      decimal.Decimal `json:"ica_withheld"`
	TotalWithheld    decimal.Decimal `json:"total_withheld"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	PaymentType      string          `json:"payment_type"`
	ComplianceStatus string          `json:"compliance_status"`
	Reasons          []string        `json:"reasons,omitempty"`
}

// LedgerLegResponse pata del asiento en las respuestas.
type LedgerLegResponse struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Source      string          `json:"source"`
}

// ProcessInvoiceResponse desenlace del pipeline para una factura.
type ProcessInvoiceResponse struct {
	InvoiceID        string              `json:"invoice_id"`
	Status           string              `json:"status"`
	RemoteID         string              `json:"remote_id,omitempty"`
	DuplicateMatches []string            `json:"duplicate_matches,omitempty"`
	Tax              *TaxSummary         `json:"tax,omitempty"`
	Legs             []LedgerLegResponse `json:"ledger_entries,omitempty"`
}

// BatchItemResponse desenlace individual dentro de un lote.
type BatchItemResponse struct {
	Index  int                     `json:"index"`
	Result *ProcessInvoiceResponse `json:"result,omitempty"`
	Error  *ErrorResponse          `json:"error,omitempty"`
}

// NewTaxSummary arma el resumen desde la entidad.
func NewTaxSummary(res *entity.TaxResult) *TaxSummary {
	if res == nil {
		return nil
	}
	return &TaxSummary{
		VATAmount:        res.VATAmount,
		IncomeWithheld:   res.IncomeWithheld,
		VATWithheld:      res.VATWithheld,
		ICAWithheld:      res.ICAWithheld,
		TotalWithheld:    res.TotalWithheld,
		NetAmount:        res.NetAmount,
		PaymentType:      res.PaymentType,
		ComplianceStatus: res.ComplianceStatus,
		Reasons:          res.Reasons,
	}
}

// NewLedgerLegs convierte las patas del asiento para la respuesta.
func NewLedgerLegs(legs []entity.LedgerEntry) []LedgerLegResponse {
	out := make([]LedgerLegResponse, 0, len(legs))
	for _, l := range legs {
		out = append(out, LedgerLegResponse{
			AccountCode: l.AccountCode,
			AccountName: l.AccountName,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Source:      l.Source,
		})
	}
	return out
}
