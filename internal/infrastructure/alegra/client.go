// Package alegra implementa el cliente REST del sistema contable externo
// (API estilo Alegra): resolución de contactos e ítems y contabilización de
// documentos. Toda falla se clasifica como transitoria o permanente para que
// el cortacircuitos y el reintentador decidan sin inspeccionar el transporte.
package alegra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Contable-api/internal/domain"
	"github.com/jhoicas/Contable-api/internal/domain/entity"
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// DocumentResult resultado de la contabilización remota.
type DocumentResult struct {
	RemoteID string // ID asignado por el sistema externo
	Status   string // estado reportado (open, closed, draft)
}

// AccountingGateway define el puerto de salida hacia el sistema contable
// externo. La implementación concreta usa la API REST de Alegra; para tests
// se inyecta un doble.
type AccountingGateway interface {
	// EnsureContact resuelve el tercero por identificación tributaria,
	// creándolo si no existe, y devuelve su ID remoto.
	EnsureContact(ctx context.Context, inv *entity.InvoiceRecord) (string, error)
	// EnsureItem resuelve el ítem del catálogo remoto por nombre, creándolo
	// si no existe, y devuelve su ID remoto.
	EnsureItem(ctx context.Context, line entity.LineItem) (string, error)
	// PostDocument contabiliza la factura (bill para compras, invoice para
	// ventas) con su desglose tributario.
	PostDocument(ctx context.Context, inv *entity.InvoiceRecord, res *entity.TaxResult, contactID string, itemIDs []string) (*DocumentResult, error)
}

// ── Implementación REST ────────────────────────────────────────────────────────

var _ AccountingGateway = (*Client)(nil)

// Client implementación de AccountingGateway sobre la API REST.
type Client struct {
	httpClient *http.Client
	baseURL    string
	auth       string // credencial Basic ya codificada
}

// NewClient construye el cliente. El timeout acota cada petición individual;
// los reintentos y el cortacircuitos viven por fuera del cliente.
func NewClient(baseURL, basicAuth string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		auth:       basicAuth,
	}
}

// ── Estructuras de la API ──────────────────────────────────────────────────────

type contactPayload struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name"`
	Identification identification `json:"identification"`
	Type           []string       `json:"type,omitempty"`
}

type identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type itemPayload struct {
	ID    string       `json:"id,omitempty"`
	Name  string       `json:"name"`
	Price []itemPrice  `json:"price,omitempty"`
	Tax   []taxPayload `json:"tax,omitempty"`
}

type itemPrice struct {
	Price decimal.Decimal `json:"price"`
}

type taxPayload struct {
	ID         string          `json:"id,omitempty"`
	Percentage decimal.Decimal `json:"percentage"`
	Name       string          `json:"name,omitempty"`
}

type documentLine struct {
	ItemID      string          `json:"id"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type retentionPayload struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type documentPayload struct {
	Date       string             `json:"date"` // YYYY-MM-DD
	Contact    string             `json:"contact"`
	Items      []documentLine     `json:"items"`
	Tax        decimal.Decimal    `json:"tax"`
	Retentions []retentionPayload `json:"retentions,omitempty"`
	Total      decimal.Decimal    `json:"total"`
}

type documentResponse struct {
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
}

// ── Operaciones ────────────────────────────────────────────────────────────────

// EnsureContact busca el tercero por número de identificación y lo crea si
// la búsqueda vuelve vacía. El tercero es el proveedor en compras y el
// comprador en ventas; las facturas extraídas no traen razón social del
// comprador, así que el contacto de venta se etiqueta con su NIT.
func (c *Client) EnsureContact(ctx context.Context, inv *entity.InvoiceRecord) (string, error) {
	name, number, kind := inv.VendorName, inv.VendorTaxID, "provider"
	if inv.Direction == entity.DirectionSale {
		name, number, kind = "NIT "+inv.BuyerTaxID, inv.BuyerTaxID, "client"
	}

	query := url.Values{"identification": {number}}
	var found []contactPayload
	if err := c.do(ctx, http.MethodGet, "/contacts?"+query.Encode(), nil, &found); err != nil {
		return "", fmt.Errorf("buscar contacto %s: %w", number, err)
	}
	if len(found) > 0 {
		return found[0].ID, nil
	}

	payload := contactPayload{
		Name:           name,
		Identification: identification{Type: "NIT", Number: number},
		Type:           []string{kind},
	}
	var created contactPayload
	if err := c.do(ctx, http.MethodPost, "/contacts", payload, &created); err != nil {
		return "", fmt.Errorf("crear contacto %s: %w", number, err)
	}
	return created.ID, nil
}

// EnsureItem busca el ítem por nombre exacto y lo crea si no existe.
func (c *Client) EnsureItem(ctx context.Context, line entity.LineItem) (string, error) {
	query := url.Values{"query": {line.Description}}
	var found []itemPayload
	if err := c.do(ctx, http.MethodGet, "/items?"+query.Encode(), nil, &found); err != nil {
		return "", fmt.Errorf("buscar ítem %q: %w", line.Description, err)
	}
	for _, it := range found {
		if it.Name == line.Description {
			return it.ID, nil
		}
	}

	payload := itemPayload{
		Name:  line.Description,
		Price: []itemPrice{{Price: line.UnitPrice}},
	}
	var created itemPayload
	if err := c.do(ctx, http.MethodPost, "/items", payload, &created); err != nil {
		return "", fmt.Errorf("crear ítem %q: %w", line.Description, err)
	}
	return created.ID, nil
}

// PostDocument contabiliza la factura: compras entran como bill (cuenta por
// pagar) y ventas como invoice (cuenta por cobrar). itemIDs va en paralelo
// con las líneas de la factura.
func (c *Client) PostDocument(ctx context.Context, inv *entity.InvoiceRecord, res *entity.TaxResult, contactID string, itemIDs []string) (*DocumentResult, error) {
	if len(itemIDs) != len(inv.LineItems) {
		return nil, fmt.Errorf("itemIDs (%d) no corresponde con las líneas (%d): %w",
			len(itemIDs), len(inv.LineItems), domain.ErrInvalidInput)
	}

	payload := documentPayload{
		Date:    inv.Date.Format("2006-01-02"),
		Contact: contactID,
		Tax:     res.VATAmount,
		Total:   inv.Subtotal.Add(res.VATAmount),
	}
	for i, li := range inv.LineItems {
		payload.Items = append(payload.Items, documentLine{
			ItemID:      itemIDs[i],
			Description: li.Description,
			Quantity:    li.Quantity,
			Price:       li.UnitPrice,
		})
	}
	for _, ret := range []struct {
		name   string
		amount decimal.Decimal
	}{
		{"ReteFuente", res.IncomeWithheld},
		{"ReteIVA", res.VATWithheld},
		{"ReteICA", res.ICAWithheld},
	} {
		if ret.amount.Sign() > 0 {
			payload.Retentions = append(payload.Retentions, retentionPayload{
				Name: ret.name, Amount: ret.amount,
			})
		}
	}

	path := "/bills"
	if inv.Direction == entity.DirectionSale {
		path = "/invoices"
	}
	var resp documentResponse
	if err := c.do(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return nil, fmt.Errorf("contabilizar factura %s: %w", inv.InvoiceNumber, err)
	}
	return &DocumentResult{RemoteID: resp.ID.String(), Status: resp.Status}, nil
}

// do ejecuta la petición y decodifica la respuesta en out (si no es nil).
// Las fallas de red y los 5xx salen como RemoteError transitorio; los 4xx
// como RemoteError permanente.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("serializar petición: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("crear petición: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+c.auth)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.RemoteError{StatusCode: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return &domain.RemoteError{StatusCode: 0, Message: fmt.Sprintf("leer respuesta: %v", err)}
	}

	if resp.StatusCode >= 400 {
		return &domain.RemoteError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(rawBody), 512),
		}
	}

	if out != nil {
		if err := json.Unmarshal(rawBody, out); err != nil {
			return fmt.Errorf("decodificar respuesta de %s: %w", path, err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
