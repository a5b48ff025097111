package processing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/internal/domain"
	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/internal/domain/repository"
)

// ── Dobles en memoria de los puertos de persistencia ──────────────────────────

type memInvoiceRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.InvoiceRecord
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{byID: make(map[string]*entity.InvoiceRecord)}
}

func (r *memInvoiceRepo) Create(inv *entity.InvoiceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	r.byID[inv.ID] = &cp
	return nil
}

func (r *memInvoiceRepo) UpdateStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.Status = status
	inv.UpdatedAt = time.Now()
	return nil
}

func (r *memInvoiceRepo) SetRemote(id, remoteID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.RemoteID = remoteID
	inv.Status = status
	return nil
}

func (r *memInvoiceRepo) GetByID(id string) (*entity.InvoiceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *memInvoiceRepo) ListByStatus(status string, limit int) ([]*entity.InvoiceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.InvoiceRecord
	for _, inv := range r.byID {
		if inv.Status == status && len(out) < limit {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) ListByDateRange(from, to time.Time) ([]*entity.InvoiceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.InvoiceRecord
	for _, inv := range r.byID {
		if !inv.Date.Before(from) && !inv.Date.After(to) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memInvoiceRepo) status(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.byID[id]; ok {
		return inv.Status
	}
	return ""
}

type memTaxRepo struct {
	mu   sync.Mutex
	byID map[string]*entity.TaxResult
}

func newMemTaxRepo() *memTaxRepo {
	return &memTaxRepo{byID: make(map[string]*entity.TaxResult)}
}

func (r *memTaxRepo) Save(res *entity.TaxResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *res
	r.byID[res.InvoiceID] = &cp
	return nil
}

func (r *memTaxRepo) GetByInvoiceID(invoiceID string) (*entity.TaxResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.byID[invoiceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *memTaxRepo) GetByInvoiceIDs(ids []string) (map[string]*entity.TaxResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*entity.TaxResult)
	for _, id := range ids {
		if res, ok := r.byID[id]; ok {
			cp := *res
			out[id] = &cp
		}
	}
	return out, nil
}

type memLedgerRepo struct {
	mu   sync.Mutex
	legs []entity.LedgerEntry
}

func (r *memLedgerRepo) Append(legs []entity.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.legs = append(r.legs, legs...)
	return nil
}

func (r *memLedgerRepo) ListByInvoiceID(invoiceID string) ([]entity.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.LedgerEntry
	for _, l := range r.legs {
		if l.InvoiceID == invoiceID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) ListByRange(account string, from, to time.Time) ([]entity.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.LedgerEntry(nil), r.legs...), nil
}

// memTxRunner pasa los mismos repos en memoria; sin transacción real.
type memTxRunner struct {
	invoices *memInvoiceRepo
	taxes    *memTaxRepo
	ledger   *memLedgerRepo
}

func (r *memTxRunner) Run(_ context.Context, fn func(
	repository.InvoiceRepository,
	repository.TaxResultRepository,
	repository.LedgerRepository,
) error) error {
	return fn(r.invoices, r.taxes, r.ledger)
}

// ── Doble del contabilizador externo ──────────────────────────────────────────

// scriptedPoster responde según el guion: remoteUp decide la rama y calls
// cuenta los intentos.
type scriptedPoster struct {
	mu       sync.Mutex
	remoteUp bool
	calls    int
}

func (p *scriptedPoster) Post(_ context.Context, inv *entity.InvoiceRecord, _ *entity.TaxResult) PostOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if !p.remoteUp {
		return PostOutcome{PostedRemotely: false, Reason: "servicio externo inalcanzable"}
	}
	return PostOutcome{PostedRemotely: true, RemoteID: fmt.Sprintf("rem-%d", p.calls)}
}

// ── Fábricas de datos ─────────────────────────────────────────────────────────

func validInvoice(id, vendor, subtotal string) *entity.InvoiceRecord {
	sub := decimal.RequireFromString(subtotal)
	return &entity.InvoiceRecord{
		ID:            id,
		InvoiceNumber: "FT-" + id,
		Date:          time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		VendorName:    vendor,
		VendorTaxID:   "900123456",
		VendorRegime:  entity.RegimeCommon,
		VendorCity:    "Medellín",
		BuyerTaxID:    "800987654",
		BuyerRegime:   entity.RegimeCommon,
		BuyerCity:     "Bogotá",
		Subtotal:      sub,
		Direction:     entity.DirectionPurchase,
		LineItems: []entity.LineItem{
			{Description: "Honorarios consultoría", Quantity: decimal.NewFromInt(1), UnitPrice: sub},
		},
	}
}
