package processing

import (
	"context"
	"time"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/internal/domain/repository"
	"github.com/jhoicas/Contable-api/pkg/logger"
)

// Purger retira los baldes vencidos del índice. El store en memoria lo
// implementa; con Redis la expiración la hace el propio servidor y el
// barredor recibe nil.
type Purger interface {
	Purge() int
}

// Sweeper goroutine periódica de mantenimiento: expira baldes del índice de
// duplicados y reintenta contra el sistema remoto las facturas que quedaron
// en POSTED_LOCAL, en cuanto el cortacircuitos lo permita.
type Sweeper struct {
	interval   time.Duration
	retryBatch int

	invoiceRepo repository.InvoiceRepository
	taxRepo     repository.TaxResultRepository
	poster      Poster
	purger      Purger // puede ser nil
	log         *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper construye el barredor. Intervalo no positivo usa 5 minutos;
// lote no positivo usa 20 facturas por pasada.
func NewSweeper(
	interval time.Duration,
	retryBatch int,
	invoiceRepo repository.InvoiceRepository,
	taxRepo repository.TaxResultRepository,
	poster Poster,
	purger Purger,
	log *logger.Logger,
) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if retryBatch <= 0 {
		retryBatch = 20
	}
	return &Sweeper{
		interval:    interval,
		retryBatch:  retryBatch,
		invoiceRepo: invoiceRepo,
		taxRepo:     taxRepo,
		poster:      poster,
		purger:      purger,
		log:         log,
	}
}

// Start lanza el ciclo en su propia goroutine. Llamar Stop para detenerlo.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop detiene el ciclo y espera a que la pasada en curso termine.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// sweep una pasada de mantenimiento.
func (s *Sweeper) sweep(ctx context.Context) {
	if s.purger != nil {
		if removed := s.purger.Purge(); removed > 0 {
			s.log.Debug().Int("buckets", removed).Msg("índice de duplicados: baldes vencidos retirados")
		}
	}

	pending, err := s.invoiceRepo.ListByStatus(entity.StatusPostedLocal, s.retryBatch)
	if err != nil {
		s.log.Error().Err(err).Msg("barredor: no se pudieron listar las facturas pendientes")
		return
	}

	for _, inv := range pending {
		if ctx.Err() != nil {
			return
		}
		res, err := s.taxRepo.GetByInvoiceID(inv.ID)
		if err != nil {
			s.log.Error().Str("invoice_id", inv.ID).Err(err).
				Msg("barredor: factura pendiente sin resultado tributario")
			continue
		}
		outcome := s.poster.Post(ctx, inv, res)
		if !outcome.PostedRemotely {
			// El circuito sigue abierto o el remoto sigue caído: la factura
			// permanece en POSTED_LOCAL para la siguiente pasada.
			return
		}
		// El asiento local ya quedó en el libro; la repetición remota solo
		// actualiza la referencia, nunca duplica patas.
		if err := s.invoiceRepo.SetRemote(inv.ID, outcome.RemoteID, entity.StatusCached); err != nil {
			s.log.Error().Str("invoice_id", inv.ID).Err(err).
				Msg("barredor: no se pudo registrar la referencia remota")
			continue
		}
		s.log.Info().Str("invoice_id", inv.ID).Str("remote_id", outcome.RemoteID).
			Msg("factura pendiente contabilizada en el reintento")
	}
}
