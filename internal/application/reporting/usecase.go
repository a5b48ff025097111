// Package reporting expone los reportes contables de solo lectura: libro
// mayor, balance de prueba (JSON y PDF) y cartera por edades. Los repos
// traen los datos crudos y las agregaciones puras del dominio hacen el resto.
package reporting

import (
	"fmt"
	"time"

	"github.com/jhoicas/Contable-api/internal/domain/ledger"
	"github.com/jhoicas/Contable-api/internal/domain/repository"
)

// PDFGenerator define el puerto de render del balance de prueba.
type PDFGenerator interface {
	TrialBalance(report ledger.TrialBalanceReport, from, to time.Time) ([]byte, error)
}

// UseCase reportes contables de solo lectura.
type UseCase struct {
	invoices repository.InvoiceRepository
	taxes    repository.TaxResultRepository
	legs     repository.LedgerRepository
	pdf      PDFGenerator
}

// NewUseCase construye el caso de uso de reportes.
func NewUseCase(
	invoices repository.InvoiceRepository,
	taxes repository.TaxResultRepository,
	legs repository.LedgerRepository,
	pdf PDFGenerator,
) *UseCase {
	return &UseCase{invoices: invoices, taxes: taxes, legs: legs, pdf: pdf}
}

// GeneralLedger libro mayor por cuenta del rango (account vacío: todas).
func (u *UseCase) GeneralLedger(account string, from, to time.Time) ([]ledger.AccountMovement, error) {
	from, to = defaultRange(from, to)
	entries, err := u.legs.ListByRange(account, from, to)
	if err != nil {
		return nil, fmt.Errorf("libro mayor: %w", err)
	}
	return ledger.GeneralLedger(entries, account, from, to), nil
}

// TrialBalance balance de prueba del rango.
func (u *UseCase) TrialBalance(from, to time.Time) (ledger.TrialBalanceReport, error) {
	from, to = defaultRange(from, to)
	entries, err := u.legs.ListByRange("", from, to)
	if err != nil {
		return ledger.TrialBalanceReport{}, fmt.Errorf("balance de prueba: %w", err)
	}
	return ledger.TrialBalance(entries, from, to), nil
}

// TrialBalancePDF balance de prueba renderizado como PDF.
func (u *UseCase) TrialBalancePDF(from, to time.Time) ([]byte, error) {
	from, to = defaultRange(from, to)
	report, err := u.TrialBalance(from, to)
	if err != nil {
		return nil, err
	}
	return u.pdf.TrialBalance(report, from, to)
}

// Aging cartera por edades al corte asOf: el total de cada factura cae en
// el balde según los días desde su fecha.
func (u *UseCase) Aging(asOf time.Time) ([]ledger.AgingRow, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	invoices, err := u.invoices.ListByDateRange(rangeFloor, asOf)
	if err != nil {
		return nil, fmt.Errorf("cartera por edades: %w", err)
	}
	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	results, err := u.taxes.GetByInvoiceIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("cartera por edades: %w", err)
	}
	return ledger.Aging(invoices, results, asOf), nil
}

// rangeFloor límite inferior cuando el caller no acota el rango.
var rangeFloor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func defaultRange(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		from = rangeFloor
	}
	if to.IsZero() {
		to = time.Now()
	}
	return from, to
}
