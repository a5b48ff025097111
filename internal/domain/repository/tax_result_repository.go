package repository

import "github.com/jhoicas/Contable-api/internal/domain/entity"

// TaxResultRepository define el puerto de persistencia para los resultados
// tributarios. Save reemplaza el resultado completo de la factura: los
// resultados son inmutables, nunca se parchean campo a campo.
type TaxResultRepository interface {
	Save(result *entity.TaxResult) error
	GetByInvoiceID(invoiceID string) (*entity.TaxResult, error)
	// GetByInvoiceIDs resuelve resultados en lote para los reportes; las
	// facturas sin resultado simplemente no aparecen en el mapa.
	GetByInvoiceIDs(invoiceIDs []string) (map[string]*entity.TaxResult, error)
}
