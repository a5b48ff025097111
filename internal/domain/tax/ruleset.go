// Package tax implementa el motor tributario colombiano del pipeline:
// IVA por categoría de producto, ReteFuente renta por tipo de pago,
// ReteIVA sobre el IVA y ReteICA municipal, todos con umbrales expresados
// en UVT para que una sola actualización del juego de reglas ajuste todos
// los cálculos del período de forma consistente.
package tax

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/pkg/normalize"
)

// VATCategory categoría de IVA resuelta por palabra clave sobre la
// descripción de la línea. El orden de la lista define la precedencia:
// se evalúa a primera coincidencia (nunca depende del orden de un mapa).
type VATCategory struct {
	Name     string          `json:"name"`
	Rate     decimal.Decimal `json:"rate"`
	Keywords []string        `json:"keywords"`
}

// VATTable tabla de IVA del período.
type VATTable struct {
	GeneralRate decimal.Decimal `json:"general_rate"` // tarifa por defecto para ítems sin categoría
	Categories  []VATCategory   `json:"categories"`
}

// RateFor resuelve la categoría y tarifa de IVA para una descripción.
// Ítems sin coincidencia usan la tarifa general.
func (t VATTable) RateFor(description string) (string, decimal.Decimal) {
	for _, cat := range t.Categories {
		for _, kw := range cat.Keywords {
			if normalize.Contains(description, kw) {
				return cat.Name, cat.Rate
			}
		}
	}
	return "general", t.GeneralRate
}

// IncomeRule regla de ReteFuente renta para un tipo de pago. El umbral y el
// umbral secundario se expresan en UVT. La tarifa mayor aplica a TODA la base
// cuando el subtotal alcanza el umbral secundario (salto, no tramo marginal).
type IncomeRule struct {
	MinUVT      decimal.Decimal `json:"min_uvt"`
	Rate        decimal.Decimal `json:"rate"`
	LargeRate   decimal.Decimal `json:"large_rate,omitempty"`
	LargeMinUVT decimal.Decimal `json:"large_min_uvt,omitempty"` // cero: sin tarifa escalonada
}

// VATWithholdingRule regla de ReteIVA: un umbral de base (UVT) y una tarifa
// por régimen del comprador. Regímenes ausentes no practican la retención.
type VATWithholdingRule struct {
	MinUVT decimal.Decimal            `json:"min_uvt"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

// CityICARule tarifas de ReteICA de un municipio, por tipo de actividad,
// con su propio umbral en UVT.
type CityICARule struct {
	MinUVT     decimal.Decimal            `json:"min_uvt"`
	Activities map[string]decimal.Decimal `json:"activities"`
}

// RuleSet juego de reglas tributarias vigente para un año. Inmutable: los
// recargues se hacen por intercambio atómico del documento completo en el
// Provider, nunca mutando tablas en sitio.
type RuleSet struct {
	Year              int                        `json:"-"`
	UVTValue          decimal.Decimal            `json:"uvt_value"` // valor en COP de una UVT
	VAT               VATTable                   `json:"vat"`
	IncomeWithholding map[string]IncomeRule      `json:"income_withholding"` // por tipo de pago
	VATWithholding    VATWithholdingRule         `json:"vat_withholding"`
	ICA               map[string]CityICARule     `json:"ica"` // por ciudad (clave normalizada)
}

// ThresholdAmount convierte un umbral en UVT a su valor en COP del período.
func (r *RuleSet) ThresholdAmount(uvt decimal.Decimal) decimal.Decimal {
	return uvt.Mul(r.UVTValue)
}

// CityRule busca la regla ICA de una ciudad (insensible a tildes/mayúsculas).
func (r *RuleSet) CityRule(city string) (CityICARule, bool) {
	rule, ok := r.ICA[normalize.Key(city)]
	return rule, ok
}

func (r *RuleSet) validate() error {
	if r.UVTValue.Sign() <= 0 {
		return fmt.Errorf("uvt_value debe ser positivo")
	}
	if r.VAT.GeneralRate.IsNegative() {
		return fmt.Errorf("vat.general_rate no puede ser negativa")
	}
	if len(r.IncomeWithholding) == 0 {
		return fmt.Errorf("income_withholding no puede estar vacío")
	}
	return nil
}

// ParseDocument decodifica el documento JSON de reglas (mapeado por año) y
// devuelve el juego del año pedido. Las claves de ciudad se normalizan al
// cargar para que la búsqueda no dependa de cómo se escribió el municipio.
func ParseDocument(data []byte, year int) (*RuleSet, error) {
	var byYear map[string]*RuleSet
	if err := json.Unmarshal(data, &byYear); err != nil {
		return nil, fmt.Errorf("parsear documento de reglas: %w", err)
	}
	rs, ok := byYear[strconv.Itoa(year)]
	if !ok {
		return nil, fmt.Errorf("el documento no contiene reglas para el año %d", year)
	}
	rs.Year = year
	if err := rs.validate(); err != nil {
		return nil, fmt.Errorf("reglas %d inválidas: %w", year, err)
	}
	normalized := make(map[string]CityICARule, len(rs.ICA))
	for city, rule := range rs.ICA {
		normalized[normalize.Key(city)] = rule
	}
	rs.ICA = normalized
	return rs, nil
}

// Provider mantiene la referencia al juego de reglas vigente con recarga
// atómica: ninguna factura observa un documento a medio actualizar.
type Provider struct {
	path    string
	year    int
	current atomic.Pointer[RuleSet]
}

// NewProvider construye el provider sin cargar; llamar Load antes de usar.
func NewProvider(path string, year int) *Provider {
	return &Provider{path: path, year: year}
}

// Load (re)lee el documento desde disco y, solo si parsea completo y válido,
// intercambia la referencia. Un documento corrupto deja el juego anterior.
func (p *Provider) Load() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("leer documento de reglas: %w", err)
	}
	rs, err := ParseDocument(data, p.year)
	if err != nil {
		return err
	}
	p.current.Store(rs)
	return nil
}

// Current devuelve el juego vigente (nil si nunca se cargó).
func (p *Provider) Current() *RuleSet {
	return p.current.Load()
}
