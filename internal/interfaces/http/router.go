package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Contable-api/internal/application/processing"
	"github.com/jhoicas/Contable-api/internal/application/reporting"
	"github.com/jhoicas/Contable-api/internal/infrastructure/resilience"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Orchestrator *processing.Orchestrator
	Reports      *reporting.UseCase
	Breaker      *resilience.Breaker
	ServiceName  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Pipeline de facturas
	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Orchestrator)
	invoices.Post("/", invoiceHandler.Process)
	invoices.Post("/batch", invoiceHandler.ProcessBatch)
	invoices.Get("/:id", invoiceHandler.GetByID)

	// Reportes contables (solo lectura)
	reports := api.Group("/reports")
	reportHandler := NewReportHandler(deps.Reports)
	reports.Get("/general-ledger", reportHandler.GeneralLedger)
	reports.Get("/trial-balance", reportHandler.TrialBalance)
	reports.Get("/aging", reportHandler.Aging)

	// Salud del servicio, incluye el estado del circuito remoto.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": deps.ServiceName,
			"breaker": deps.Breaker.State(),
		})
	})
}
