package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/internal/domain"
	"github.com/jhoicas/Contable-api/internal/domain/entity"
)

// Synthesizer convierte una factura y su resultado tributario en las patas de
// un asiento de partida doble. Synthesize es determinista: la misma pareja
// (factura, resultado) produce siempre las mismas patas en el mismo orden.
type Synthesizer struct{}

// NewSynthesizer construye el sintetizador.
func NewSynthesizer() *Synthesizer { return &Synthesizer{} }

// legBuilder acumula patas descartando montos en cero y numerando el índice
// de pata en orden de inserción.
type legBuilder struct {
	invoiceID   string
	source      string
	description string
	legs        []entity.LedgerEntry
}

func (b *legBuilder) debit(account string, amount decimal.Decimal) {
	b.add(account, amount, decimal.Zero)
}

func (b *legBuilder) credit(account string, amount decimal.Decimal) {
	b.add(account, decimal.Zero, amount)
}

func (b *legBuilder) add(account string, debit, credit decimal.Decimal) {
	if debit.IsZero() && credit.IsZero() {
		return
	}
	b.legs = append(b.legs, entity.LedgerEntry{
		InvoiceID:   b.invoiceID,
		LegIndex:    len(b.legs),
		AccountCode: account,
		AccountName: AccountName(account),
		Debit:       debit,
		Credit:      credit,
		Description: b.description,
		Reference:   b.invoiceID,
		Source:      b.source,
	})
}

// Synthesize arma el asiento de la factura según su dirección. source indica
// si el asiento se deriva de la contabilización remota o se sintetizó
// localmente (entity.LedgerSourceRemote / LedgerSourceLocal).
//
// Compra:
//
//	DB  gasto/inventario (por tipo de pago)   subtotal
//	DB  240810 IVA descontable                IVA
//	CR  2365xx ReteFuente por pagar           retención renta
//	CR  2367xx ReteIVA por pagar              retención IVA
//	CR  2368xx ReteICA por pagar              retención ICA
//	CR  2205xx Proveedores                    neto a pagar
//
// Venta (espejo): débito a clientes y a los anticipos de retención, crédito
// al ingreso y al IVA generado.
func (s *Synthesizer) Synthesize(inv *entity.InvoiceRecord, res *entity.TaxResult, source string) ([]entity.LedgerEntry, error) {
	b := &legBuilder{
		invoiceID:   inv.ID,
		source:      source,
		description: fmt.Sprintf("Factura %s - %s", inv.InvoiceNumber, inv.VendorName),
	}

	switch inv.Direction {
	case entity.DirectionPurchase:
		b.debit(expenseAccountFor(res.PaymentType), inv.Subtotal)
		b.debit(AccountIVADescontable, res.VATAmount)
		b.credit(AccountReteFuentePorPagar, res.IncomeWithheld)
		b.credit(AccountReteIVAPorPagar, res.VATWithheld)
		b.credit(AccountReteICAPorPagar, res.ICAWithheld)
		b.credit(AccountProveedores, res.NetAmount)
	case entity.DirectionSale:
		b.debit(AccountClientes, res.NetAmount)
		b.debit(AccountReteFuenteAnticipo, res.IncomeWithheld)
		b.debit(AccountReteIVAAnticipo, res.VATWithheld)
		b.debit(AccountReteICAAnticipo, res.ICAWithheld)
		b.credit(AccountIngresos, inv.Subtotal)
		b.credit(AccountIVAGenerado, res.VATAmount)
	default:
		return nil, fmt.Errorf("dirección de factura desconocida %q: %w",
			inv.Direction, domain.ErrInvalidInput)
	}

	if err := assertBalanced(b.legs); err != nil {
		return nil, fmt.Errorf("asiento de la factura %s: %w", inv.ID, err)
	}
	return b.legs, nil
}

// Reverse produce las patas espejo de un asiento existente para anular una
// factura sin borrar historia: cada débito pasa a crédito y viceversa, con
// los índices de pata continuando la secuencia original.
func (s *Synthesizer) Reverse(legs []entity.LedgerEntry) []entity.LedgerEntry {
	if len(legs) == 0 {
		return nil
	}
	next := 0
	for _, l := range legs {
		if l.LegIndex >= next {
			next = l.LegIndex + 1
		}
	}
	reversed := make([]entity.LedgerEntry, 0, len(legs))
	for _, l := range legs {
		reversed = append(reversed, entity.LedgerEntry{
			InvoiceID:   l.InvoiceID,
			LegIndex:    next,
			AccountCode: l.AccountCode,
			AccountName: l.AccountName,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: "Reversión " + l.Description,
			Reference:   l.Reference,
			Source:      l.Source,
		})
		next++
	}
	return reversed
}

// assertBalanced verifica la invariante de partida doble al centavo.
func assertBalanced(legs []entity.LedgerEntry) error {
	var debits, credits decimal.Decimal
	for _, l := range legs {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("débitos %s vs créditos %s: %w",
			debits.StringFixed(2), credits.StringFixed(2), domain.ErrUnbalanced)
	}
	return nil
}
