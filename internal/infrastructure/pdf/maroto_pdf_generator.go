// Package pdf implementa el render del Balance de Prueba con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Balance de Prueba + período                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cuenta | Nombre | Débitos | Créditos | Saldo         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: débitos y créditos generales (deben cuadrar)       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/internal/application/reporting"
	"github.com/jhoicas/Contable-api/internal/domain/ledger"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ reporting.PDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa reporting.PDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	companyName string
}

// NewMarotoPDFGenerator construye el generador con el nombre de la empresa
// para el encabezado.
func NewMarotoPDFGenerator(companyName string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{companyName: companyName}
}

// TrialBalance genera el PDF del balance de prueba y devuelve sus bytes.
func (g *MarotoPDFGenerator) TrialBalance(report ledger.TrialBalanceReport, from, to time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Balance de Prueba", true).
		WithAuthor(g.companyName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(from, to))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	for _, r := range report.Rows {
		m.AddRows(accountRow(r))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar balance de prueba: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: nombre de la empresa (izq) y período del reporte (der).
func (g *MarotoPDFGenerator) headerRow(from, to time.Time) core.Row {
	periodo := fmt.Sprintf("Del %s al %s", from.Format("02/01/2006"), to.Format("02/01/2006"))
	return row.New(16).Add(
		col.New(7).Add(
			text.New(g.companyName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("BALANCE DE PRUEBA", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(periodo, props.Text{
				Size: 9, Align: align.Right, Top: 10, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de cuentas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cuenta", 2, align.Left),
		h("Nombre", 4, align.Left),
		h("Débitos", 2, align.Right),
		h("Créditos", 2, align.Right),
		h("Saldo", 2, align.Right),
	)
}

// accountRow: una fila por cuenta.
func accountRow(r ledger.TrialBalanceRow) core.Row {
	cell := func(value string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(value, props.Text{
			Size: 8, Align: a, Top: 1.5, Left: 1, Right: 1,
		}))
	}
	return row.New(6).Add(
		cell(r.AccountCode, 2, align.Left),
		cell(r.AccountName, 4, align.Left),
		cell(money(r.TotalDebit), 2, align.Right),
		cell(money(r.TotalCredit), 2, align.Right),
		cell(money(r.Balance), 2, align.Right),
	)
}

// totalsRow: totales generales; en un libro bien formado cuadran.
func totalsRow(report ledger.TrialBalanceReport) core.Row {
	return row.New(8).Add(
		col.New(6).Add(text.New("TOTALES", props.Text{
			Style: fontstyle.Bold, Size: 9, Top: 2, Color: colorPrimary,
		})),
		col.New(2).Add(text.New(money(report.GrandDebit), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2,
		})),
		col.New(2).Add(text.New(money(report.GrandCredit), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2,
		})),
		col.New(2).Add(text.New(money(report.GrandDebit.Sub(report.GrandCredit)), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2, Color: colorGray,
		})),
	)
}

func money(d decimal.Decimal) string {
	return "$ " + d.StringFixed(2)
}
