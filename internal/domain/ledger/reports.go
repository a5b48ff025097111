package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
)

// Los reportes son agregaciones puras sobre las patas del libro: no tocan
// almacenamiento ni mutan su entrada, así que el repositorio puede traer las
// patas del rango y delegar aquí el resto.

// AccountMovement movimiento de una cuenta en el libro mayor.
type AccountMovement struct {
	AccountCode string               `json:"account_code"`
	AccountName string               `json:"account_name"`
	Entries     []entity.LedgerEntry `json:"entries"`
	TotalDebit  decimal.Decimal      `json:"total_debit"`
	TotalCredit decimal.Decimal      `json:"total_credit"`
}

// GeneralLedger agrupa las patas por cuenta, filtradas por rango de fechas
// sobre CreatedAt y opcionalmente por código de cuenta (vacío trae todas).
// Las cuentas salen ordenadas por código y los movimientos en su orden de
// llegada.
func GeneralLedger(legs []entity.LedgerEntry, account string, from, to time.Time) []AccountMovement {
	byAccount := make(map[string]*AccountMovement)
	for _, l := range legs {
		if account != "" && l.AccountCode != account {
			continue
		}
		if !inRange(l.CreatedAt, from, to) {
			continue
		}
		mov, ok := byAccount[l.AccountCode]
		if !ok {
			mov = &AccountMovement{AccountCode: l.AccountCode, AccountName: l.AccountName}
			byAccount[l.AccountCode] = mov
		}
		mov.Entries = append(mov.Entries, l)
		mov.TotalDebit = mov.TotalDebit.Add(l.Debit)
		mov.TotalCredit = mov.TotalCredit.Add(l.Credit)
	}

	out := make([]AccountMovement, 0, len(byAccount))
	for _, mov := range byAccount {
		out = append(out, *mov)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountCode < out[j].AccountCode })
	return out
}

// TrialBalanceRow fila del balance de prueba de una cuenta.
type TrialBalanceRow struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Balance     decimal.Decimal `json:"balance"` // débitos menos créditos
}

// TrialBalanceReport balance de prueba: filas por cuenta más los totales
// generales. En un libro bien formado GrandDebit == GrandCredit.
type TrialBalanceReport struct {
	Rows        []TrialBalanceRow `json:"rows"`
	GrandDebit  decimal.Decimal   `json:"grand_debit"`
	GrandCredit decimal.Decimal   `json:"grand_credit"`
}

// TrialBalance totaliza débitos y créditos por cuenta sobre el rango dado.
func TrialBalance(legs []entity.LedgerEntry, from, to time.Time) TrialBalanceReport {
	totals := make(map[string]*TrialBalanceRow)
	for _, l := range legs {
		if !inRange(l.CreatedAt, from, to) {
			continue
		}
		row, ok := totals[l.AccountCode]
		if !ok {
			row = &TrialBalanceRow{AccountCode: l.AccountCode, AccountName: l.AccountName}
			totals[l.AccountCode] = row
		}
		row.TotalDebit = row.TotalDebit.Add(l.Debit)
		row.TotalCredit = row.TotalCredit.Add(l.Credit)
	}

	var report TrialBalanceReport
	report.Rows = make([]TrialBalanceRow, 0, len(totals))
	for _, row := range totals {
		row.Balance = row.TotalDebit.Sub(row.TotalCredit)
		report.Rows = append(report.Rows, *row)
		report.GrandDebit = report.GrandDebit.Add(row.TotalDebit)
		report.GrandCredit = report.GrandCredit.Add(row.TotalCredit)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].AccountCode < report.Rows[j].AccountCode
	})
	return report
}

// AgingRow cartera de un tercero repartida por edad de la factura.
type AgingRow struct {
	Counterparty string          `json:"counterparty"`
	Current      decimal.Decimal `json:"current"`     // 0-30 días
	ThirtyDays   decimal.Decimal `json:"thirty_days"` // 31-60
	SixtyDays    decimal.Decimal `json:"sixty_days"`  // 61-90
	NinetyPlus   decimal.Decimal `json:"ninety_plus"` // más de 90
	Total        decimal.Decimal `json:"total"`
}

// Aging reparte el total de cada factura en el balde de edad que le
// corresponda según los días transcurridos desde su fecha hasta asOf. El
// tercero es el proveedor en compras y el NIT del comprador en ventas.
func Aging(invoices []*entity.InvoiceRecord, results map[string]*entity.TaxResult, asOf time.Time) []AgingRow {
	rows := make(map[string]*AgingRow)
	for _, inv := range invoices {
		counterparty := inv.VendorName
		if inv.Direction == entity.DirectionSale {
			counterparty = inv.BuyerTaxID
		}
		row, ok := rows[counterparty]
		if !ok {
			row = &AgingRow{Counterparty: counterparty}
			rows[counterparty] = row
		}

		amount := inv.GrandTotal()
		if res, ok := results[inv.ID]; ok {
			amount = res.NetAmount
		}

		days := int(asOf.Sub(inv.Date).Hours() / 24)
		switch {
		case days <= 30:
			row.Current = row.Current.Add(amount)
		case days <= 60:
			row.ThirtyDays = row.ThirtyDays.Add(amount)
		case days <= 90:
			row.SixtyDays = row.SixtyDays.Add(amount)
		default:
			row.NinetyPlus = row.NinetyPlus.Add(amount)
		}
		row.Total = row.Total.Add(amount)
	}

	out := make([]AgingRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Counterparty < out[j].Counterparty })
	return out
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
