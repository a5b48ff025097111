package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contable-api/internal/application/dto"
	"github.com/jhoicas/Contable-api/internal/application/reporting"
)

// ReportHandler maneja las peticiones HTTP de los reportes contables.
type ReportHandler struct {
	uc *reporting.UseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *reporting.UseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// GeneralLedger libro mayor por cuenta.
// GET /api/reports/general-ledger?account=&from=&to=
func (h *ReportHandler) GeneralLedger(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	movements, err := h.uc.GeneralLedger(c.Query("account"), from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(movements)
}

// TrialBalance balance de prueba; con format=pdf responde el documento.
// GET /api/reports/trial-balance?from=&to=&format=json|pdf
func (h *ReportHandler) TrialBalance(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if c.Query("format") == "pdf" {
		bytes, err := h.uc.TrialBalancePDF(from, to)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="balance-de-prueba.pdf"`)
		return c.Send(bytes)
	}
	report, err := h.uc.TrialBalance(from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(report)
}

// Aging cartera por edades al corte.
// GET /api/reports/aging?as_of=
func (h *ReportHandler) Aging(c *fiber.Ctx) error {
	var asOf time.Time
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "as_of inválido, use YYYY-MM-DD"})
		}
		asOf = parsed
	}
	rows, err := h.uc.Aging(asOf)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(rows)
}

// parseRange lee from y to como fechas YYYY-MM-DD; vacíos significan rango
// abierto y el caso de uso aplica sus valores por defecto.
func parseRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "from inválido, use YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "to inválido, use YYYY-MM-DD")
		}
		// Incluye el día completo del límite superior.
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}
