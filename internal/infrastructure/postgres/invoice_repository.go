package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Contable-api/internal/domain"
	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera y las líneas de la factura.
func (r *InvoiceRepo) Create(inv *entity.InvoiceRecord) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (id, invoice_number, date, vendor_name, vendor_tax_id, vendor_regime, vendor_city,
			buyer_tax_id, buyer_regime, buyer_city, subtotal, stated_tax_total, stated_grand_total,
			direction, status, remote_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(context.Background(), query,
		inv.ID, inv.InvoiceNumber, inv.Date, inv.VendorName, inv.VendorTaxID, inv.VendorRegime, inv.VendorCity,
		inv.BuyerTaxID, inv.BuyerRegime, inv.BuyerCity, inv.Subtotal, inv.StatedTaxTotal, inv.StatedGrandTotal,
		inv.Direction, inv.Status, nullIfEmpty(inv.RemoteID), inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("la factura %s ya existe: %w", inv.InvoiceNumber, err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	lineQuery := `
		INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`
	for i, li := range inv.LineItems {
		if _, err := r.q.Exec(context.Background(), lineQuery,
			inv.ID, i, li.Description, li.Quantity, li.UnitPrice); err != nil {
			return fmt.Errorf("insert invoice item %d: %w", i, err)
		}
	}
	return nil
}

// UpdateStatus avanza el estado del pipeline.
func (r *InvoiceRepo) UpdateStatus(id, status string) error {
	tag, err := r.q.Exec(context.Background(),
		`UPDATE invoices SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now())
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetRemote registra la referencia remota junto con el nuevo estado.
func (r *InvoiceRepo) SetRemote(id, remoteID, status string) error {
	tag, err := r.q.Exec(context.Background(),
		`UPDATE invoices SET remote_id = $2, status = $3, updated_at = $4 WHERE id = $1`,
		id, remoteID, status, time.Now())
	if err != nil {
		return fmt.Errorf("update remote id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID trae la factura con sus líneas.
func (r *InvoiceRepo) GetByID(id string) (*entity.InvoiceRecord, error) {
	row := r.q.QueryRow(context.Background(), selectInvoice+` WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select invoice: %w", err)
	}
	if err := r.loadItems(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListByStatus trae hasta limit facturas en el estado dado, las más antiguas
// primero.
func (r *InvoiceRepo) ListByStatus(status string, limit int) ([]*entity.InvoiceRecord, error) {
	rows, err := r.q.Query(context.Background(),
		selectInvoice+` WHERE status = $1 ORDER BY created_at ASC LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list by status: %w", err)
	}
	return r.collect(rows)
}

// ListByDateRange trae las facturas con fecha dentro del rango.
func (r *InvoiceRepo) ListByDateRange(from, to time.Time) ([]*entity.InvoiceRecord, error) {
	rows, err := r.q.Query(context.Background(),
		selectInvoice+` WHERE date >= $1 AND date <= $2 ORDER BY date ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list by date range: %w", err)
	}
	return r.collect(rows)
}

const selectInvoice = `
	SELECT id, invoice_number, date, vendor_name, vendor_tax_id, vendor_regime, vendor_city,
		buyer_tax_id, buyer_regime, buyer_city, subtotal, stated_tax_total, stated_grand_total,
		direction, status, COALESCE(remote_id, ''), created_at, updated_at
	FROM invoices`

func scanInvoice(row pgx.Row) (*entity.InvoiceRecord, error) {
	var inv entity.InvoiceRecord
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.Date, &inv.VendorName, &inv.VendorTaxID, &inv.VendorRegime, &inv.VendorCity,
		&inv.BuyerTaxID, &inv.BuyerRegime, &inv.BuyerCity, &inv.Subtotal, &inv.StatedTaxTotal, &inv.StatedGrandTotal,
		&inv.Direction, &inv.Status, &inv.RemoteID, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepo) collect(rows pgx.Rows) ([]*entity.InvoiceRecord, error) {
	defer rows.Close()
	var out []*entity.InvoiceRecord
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, inv := range out {
		if err := r.loadItems(inv); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *InvoiceRepo) loadItems(inv *entity.InvoiceRecord) error {
	rows, err := r.q.Query(context.Background(),
		`SELECT description, quantity, unit_price FROM invoice_items
		 WHERE invoice_id = $1 ORDER BY position ASC`, inv.ID)
	if err != nil {
		return fmt.Errorf("select invoice items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var li entity.LineItem
		if err := rows.Scan(&li.Description, &li.Quantity, &li.UnitPrice); err != nil {
			return fmt.Errorf("scan invoice item: %w", err)
		}
		inv.LineItems = append(inv.LineItems, li)
	}
	return rows.Err()
}
