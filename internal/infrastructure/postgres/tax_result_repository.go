package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Contable-api/internal/domain"
	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/internal/domain/repository"
)

var _ repository.TaxResultRepository = (*TaxResultRepo)(nil)

// TaxResultRepo implementación de TaxResultRepository (usable con pool o tx).
type TaxResultRepo struct {
	q Querier
}

// NewTaxResultRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTaxResultRepository(q Querier) *TaxResultRepo {
	return &TaxResultRepo{q: q}
}

// Save reemplaza el resultado completo de la factura (upsert por invoice_id):
// los resultados nunca se parchean campo a campo.
func (r *TaxResultRepo) Save(res *entity.TaxResult) error {
	query := `
		INSERT INTO tax_results (invoice_id, vat_amount, vat_rate, income_withheld, income_rate,
			vat_withheld, vat_withholding_rate, ica_withheld, ica_rate, total_withheld, net_amount,
			payment_type, compliance_status, reasons, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (invoice_id) DO UPDATE SET
			vat_amount = EXCLUDED.vat_amount, vat_rate = EXCLUDED.vat_rate,
			income_withheld = EXCLUDED.income_withheld, income_rate = EXCLUDED.income_rate,
			vat_withheld = EXCLUDED.vat_withheld, vat_withholding_rate = EXCLUDED.vat_withholding_rate,
			ica_withheld = EXCLUDED.ica_withheld, ica_rate = EXCLUDED.ica_rate,
			total_withheld = EXCLUDED.total_withheld, net_amount = EXCLUDED.net_amount,
			payment_type = EXCLUDED.payment_type, compliance_status = EXCLUDED.compliance_status,
			reasons = EXCLUDED.reasons, computed_at = EXCLUDED.computed_at`
	_, err := r.q.Exec(context.Background(), query,
		res.InvoiceID, res.VATAmount, res.VATRate, res.IncomeWithheld, res.IncomeRate,
		res.VATWithheld, res.VATWithholdingRate, res.ICAWithheld, res.ICARate, res.TotalWithheld, res.NetAmount,
		res.PaymentType, res.ComplianceStatus, res.Reasons, res.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert tax result: %w", err)
	}
	return nil
}

// GetByInvoiceID trae el resultado tributario de la factura.
func (r *TaxResultRepo) GetByInvoiceID(invoiceID string) (*entity.TaxResult, error) {
	row := r.q.QueryRow(context.Background(), selectTaxResult+` WHERE invoice_id = $1`, invoiceID)
	res, err := scanTaxResult(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select tax result: %w", err)
	}
	return res, nil
}

// GetByInvoiceIDs resuelve resultados en lote; las facturas sin resultado no
// aparecen en el mapa.
func (r *TaxResultRepo) GetByInvoiceIDs(invoiceIDs []string) (map[string]*entity.TaxResult, error) {
	out := make(map[string]*entity.TaxResult, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(context.Background(),
		selectTaxResult+` WHERE invoice_id = ANY($1)`, invoiceIDs)
	if err != nil {
		return nil, fmt.Errorf("select tax results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		res, err := scanTaxResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tax result: %w", err)
		}
		out[res.InvoiceID] = res
	}
	return out, rows.Err()
}

const selectTaxResult = `
	SELECT invoice_id, vat_amount, vat_rate, income_withheld, income_rate,
		vat_withheld, vat_withholding_rate, ica_withheld, ica_rate, total_withheld, net_amount,
		payment_type, compliance_status, reasons, computed_at
	FROM tax_results`

func scanTaxResult(row pgx.Row) (*entity.TaxResult, error) {
	var res entity.TaxResult
	err := row.Scan(
		&res.InvoiceID, &res.VATAmount, &res.VATRate, &res.IncomeWithheld, &res.IncomeRate,
		&res.VATWithheld, &res.VATWithholdingRate, &res.ICAWithheld, &res.ICARate, &res.TotalWithheld, &res.NetAmount,
		&res.PaymentType, &res.ComplianceStatus, &res.Reasons, &res.ComputedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
