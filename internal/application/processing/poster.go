package processing

import (
	"context"

	"github.com/jhoicas/Contable-api/internal/domain"
	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/internal/infrastructure/alegra"
	"github.com/jhoicas/Contable-api/internal/infrastructure/resilience"
	"github.com/jhoicas/Contable-api/pkg/logger"
)

var _ Poster = (*ExternalPoster)(nil)

// ExternalPoster compone el gateway contable con el cortacircuitos y el
// reintentador. El cortacircuitos se alimenta POR INTENTO: cinco timeouts
// seguidos lo abren aunque pertenezcan a menos de cinco facturas.
type ExternalPoster struct {
	gateway alegra.AccountingGateway
	breaker *resilience.Breaker
	retrier *resilience.Retrier
	log     *logger.Logger
}

// NewExternalPoster construye el contabilizador externo.
func NewExternalPoster(gateway alegra.AccountingGateway, breaker *resilience.Breaker, retrier *resilience.Retrier, log *logger.Logger) *ExternalPoster {
	return &ExternalPoster{gateway: gateway, breaker: breaker, retrier: retrier, log: log}
}

// Post intenta contabilizar la factura en el sistema externo. La secuencia
// completa (contacto, ítems, documento) corre bajo el reintentador; cada
// intento consulta primero el cortacircuitos. La indisponibilidad remota es
// una rama esperada: vuelve como PostedRemotely=false, nunca como error que
// tumbe el pipeline.
func (p *ExternalPoster) Post(ctx context.Context, inv *entity.InvoiceRecord, res *entity.TaxResult) PostOutcome {
	var remote *alegra.DocumentResult

	err := p.retrier.Do(ctx, func(ctx context.Context) error {
		if err := p.breaker.Allow(); err != nil {
			return err
		}
		doc, err := p.attempt(ctx, inv, res)
		switch {
		case err == nil:
			p.breaker.Success()
			remote = doc
			return nil
		case domain.IsTransientRemote(err):
			p.breaker.Failure()
			return err
		default:
			// El sistema remoto respondió (4xx): la falla no alimenta el
			// conteo, pero tampoco lo reinicia.
			p.breaker.Neutral()
			return err
		}
	})

	if err != nil {
		p.log.Warn().
			Str("invoice_id", inv.ID).
			Str("breaker", p.breaker.State()).
			Err(err).
			Msg("contabilización remota fallida; se sintetiza asiento local")
		return PostOutcome{PostedRemotely: false, Reason: err.Error()}
	}

	p.log.Info().
		Str("invoice_id", inv.ID).
		Str("remote_id", remote.RemoteID).
		Msg("factura contabilizada en el sistema externo")
	return PostOutcome{PostedRemotely: true, RemoteID: remote.RemoteID}
}

// attempt ejecuta una pasada completa contra el sistema remoto.
func (p *ExternalPoster) attempt(ctx context.Context, inv *entity.InvoiceRecord, res *entity.TaxResult) (*alegra.DocumentResult, error) {
	contactID, err := p.gateway.EnsureContact(ctx, inv)
	if err != nil {
		return nil, err
	}
	itemIDs := make([]string, 0, len(inv.LineItems))
	for _, line := range inv.LineItems {
		itemID, err := p.gateway.EnsureItem(ctx, line)
		if err != nil {
			return nil, err
		}
		itemIDs = append(itemIDs, itemID)
	}
	return p.gateway.PostDocument(ctx, inv, res, contactID, itemIDs)
}
