package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contable-api/internal/application/dto"
	"github.com/jhoicas/Contable-api/internal/application/processing"
	"github.com/jhoicas/Contable-api/internal/domain"
	"github.com/jhoicas/Contable-api/internal/domain/entity"
)

// InvoiceHandler maneja las peticiones HTTP del pipeline de facturas.
type InvoiceHandler struct {
	orchestrator *processing.Orchestrator
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(orchestrator *processing.Orchestrator) *InvoiceHandler {
	return &InvoiceHandler{orchestrator: orchestrator}
}

// Process corre el pipeline completo sobre una factura.
// POST /api/invoices
func (h *InvoiceHandler) Process(c *fiber.Ctx) error {
	var in dto.ProcessInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.orchestrator.ProcessOne(c.Context(), in.ToEntity(), in.ConfirmDuplicate)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateHold) {
			// 409 con las coincidencias: el caller decide si reenvía con
			// confirm_duplicate.
			return c.Status(fiber.StatusConflict).JSON(toResponse(result))
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(toResponse(result))
}

// ProcessBatch corre el pipeline sobre un lote; cada posición de la
// respuesta corresponde a la misma posición de la entrada.
// POST /api/invoices/batch
func (h *InvoiceHandler) ProcessBatch(c *fiber.Ctx) error {
	var in dto.BatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Invoices) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "lote vacío"})
	}

	records := make([]*entity.InvoiceRecord, 0, len(in.Invoices))
	for _, req := range in.Invoices {
		records = append(records, req.ToEntity())
	}

	items := h.orchestrator.ProcessBatch(c.Context(), records, in.ConfirmDuplicate)
	out := make([]dto.BatchItemResponse, 0, len(items))
	for i, item := range items {
		resp := dto.BatchItemResponse{Index: i, Result: toResponse(item.Result)}
		if item.Err != nil && !errors.Is(item.Err, domain.ErrDuplicateHold) {
			resp.Error = &dto.ErrorResponse{Code: batchErrorCode(item.Err), Message: item.Err.Error()}
		}
		out = append(out, resp)
	}
	// 207: el lote puede mezclar éxitos, retenciones por duplicado y fallas.
	return c.Status(fiber.StatusMultiStatus).JSON(out)
}

// GetByID recupera el desenlace persistido de una factura.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	result, err := h.orchestrator.GetResult(id)
	if err != nil {
		if err == domain.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(toResponse(result))
}

func batchErrorCode(err error) string {
	if errors.Is(err, domain.ErrInvalidInput) {
		return "VALIDATION"
	}
	return "INTERNAL"
}

func toResponse(result *processing.ProcessResult) *dto.ProcessInvoiceResponse {
	if result == nil || result.Invoice == nil {
		return nil
	}
	return &dto.ProcessInvoiceResponse{
		InvoiceID:        result.Invoice.ID,
		Status:           result.Invoice.Status,
		RemoteID:         result.Invoice.RemoteID,
		DuplicateMatches: result.Duplicate.Matches,
		Tax:              dto.NewTaxSummary(result.TaxResult),
		Legs:             dto.NewLedgerLegs(result.Legs),
	}
}
