package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/pkg/normalize"
)

// DuplicateDetector mantiene el índice efímero de facturas recientes y marca
// las casi idénticas. La huella es gruesa a propósito (agrupa candidatos); la
// decisión final siempre pasa por la comparación exacta campo a campo contra
// los miembros del balde.
type DuplicateDetector struct {
	store     FingerprintStore
	window    time.Duration
	tolerance decimal.Decimal // tolerancia relativa de monto (0.01 = 1%)
}

// NewDuplicateDetector construye el detector. Ventana no positiva usa 24h;
// tolerancia no positiva usa el 1%.
func NewDuplicateDetector(store FingerprintStore, window time.Duration, tolerance decimal.Decimal) *DuplicateDetector {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if tolerance.Sign() <= 0 {
		tolerance = decimal.NewFromFloat(0.01)
	}
	return &DuplicateDetector{store: store, window: window, tolerance: tolerance}
}

// CheckResult resultado de la compuerta de duplicados. IsDuplicate no
// bloquea por sí mismo: la política de confirmación la decide el caller.
type CheckResult struct {
	IsDuplicate bool
	Matches     []string // IDs de las facturas que coinciden
}

// candidate miembro serializado del balde: lo necesario para la comparación
// exacta sin volver a la base de datos.
type candidate struct {
	InvoiceID string          `json:"invoice_id"`
	Vendor    string          `json:"vendor"` // clave normalizada
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"` // YYYY-MM-DD
}

// bucketStep tamaño del balde de monto de la huella.
var bucketStep = decimal.NewFromInt(1000)

// Fingerprint huella gruesa de la factura: proveedor normalizado, subtotal
// redondeado al millar de COP más cercano y día calendario.
func (d *DuplicateDetector) Fingerprint(inv *entity.InvoiceRecord) string {
	return bucketKey(normalize.Key(inv.VendorName), inv.Subtotal.Round(-3), inv.Date.Format("2006-01-02"))
}

func bucketKey(vendor string, rounded decimal.Decimal, date string) string {
	return fmt.Sprintf("%s|%s|%s", vendor, rounded.String(), date)
}

// Check busca la huella en el índice y compara la factura contra cada
// candidato: mismo proveedor (insensible a tildes y mayúsculas), mismo día
// calendario y monto dentro de la tolerancia. Dos montos dentro de la
// tolerancia pueden redondear a millares distintos (40.499 vs 40.501), así
// que se inspeccionan también los baldes vecinos antes de la comparación
// exacta. No registra la factura; eso ocurre tras el cálculo tributario con
// Register.
func (d *DuplicateDetector) Check(ctx context.Context, inv *entity.InvoiceRecord) (CheckResult, error) {
	vendor := normalize.Key(inv.VendorName)
	date := inv.Date.Format("2006-01-02")
	rounded := inv.Subtotal.Round(-3)

	var result CheckResult
	for _, bucket := range []decimal.Decimal{rounded.Sub(bucketStep), rounded, rounded.Add(bucketStep)} {
		members, err := d.store.Members(ctx, bucketKey(vendor, bucket, date))
		if err != nil {
			return CheckResult{}, fmt.Errorf("consultar índice de duplicados: %w", err)
		}
		for _, raw := range members {
			var c candidate
			if err := json.Unmarshal([]byte(raw), &c); err != nil {
				// Miembro ilegible: se ignora, el índice no es fuente de verdad.
				continue
			}
			if c.InvoiceID == inv.ID {
				continue
			}
			if c.Vendor == vendor && c.Date == date && d.withinTolerance(inv.Subtotal, c.Amount) {
				result.Matches = append(result.Matches, c.InvoiceID)
			}
		}
	}
	result.IsDuplicate = len(result.Matches) > 0
	return result, nil
}

// Register agrega la factura al índice. Se llama tras cada cálculo
// tributario exitoso, incluidas las facturas confirmadas como no-duplicadas.
func (d *DuplicateDetector) Register(ctx context.Context, inv *entity.InvoiceRecord) error {
	member, err := json.Marshal(candidate{
		InvoiceID: inv.ID,
		Vendor:    normalize.Key(inv.VendorName),
		Amount:    inv.Subtotal,
		Date:      inv.Date.Format("2006-01-02"),
	})
	if err != nil {
		return fmt.Errorf("serializar candidato: %w", err)
	}
	if err := d.store.Add(ctx, d.Fingerprint(inv), string(member), d.window); err != nil {
		return fmt.Errorf("registrar en índice de duplicados: %w", err)
	}
	return nil
}

// withinTolerance compara montos con tolerancia relativa al candidato.
func (d *DuplicateDetector) withinTolerance(a, b decimal.Decimal) bool {
	base := b.Abs()
	if base.IsZero() {
		base = a.Abs()
	}
	if base.IsZero() {
		return true
	}
	return a.Sub(b).Abs().LessThanOrEqual(base.Mul(d.tolerance))
}
