package processing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Contable-api/internal/domain"
	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/internal/domain/ledger"
	"github.com/jhoicas/Contable-api/internal/domain/repository"
	"github.com/jhoicas/Contable-api/internal/domain/tax"
	"github.com/jhoicas/Contable-api/pkg/logger"
)

// Orchestrator secuencia el pipeline completo por factura:
//
//	validación → compuerta de duplicados → cálculo tributario → validación
//	de totales → intento remoto → asiento (remoto o local) → persistencia
//
// Garantiza a-lo-sumo-un intento en vuelo por huella: una segunda factura
// con la misma huella espera el desenlace de la primera en vez de competir
// con ella, y al despertar la encuentra en el índice.
type Orchestrator struct {
	invoiceRepo repository.InvoiceRepository
	taxRepo     repository.TaxResultRepository
	ledgerRepo  repository.LedgerRepository
	tx          TxRunner

	detector    *DuplicateDetector
	engine      *tax.Engine
	validator   *tax.Validator
	rules       *tax.Provider
	poster      Poster
	synthesizer *ledger.Synthesizer

	flights     keyedMutex
	concurrency int
	log         *logger.Logger
}

// NewOrchestrator construye el orquestador. Concurrencia no positiva usa 5
// trabajadores para los lotes.
func NewOrchestrator(
	tx TxRunner,
	invoiceRepo repository.InvoiceRepository,
	taxRepo repository.TaxResultRepository,
	ledgerRepo repository.LedgerRepository,
	detector *DuplicateDetector,
	rules *tax.Provider,
	validator *tax.Validator,
	poster Poster,
	concurrency int,
	log *logger.Logger,
) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Orchestrator{
		tx:          tx,
		invoiceRepo: invoiceRepo,
		taxRepo:     taxRepo,
		ledgerRepo:  ledgerRepo,
		detector:    detector,
		engine:      tax.NewEngine(),
		validator:   validator,
		rules:       rules,
		poster:      poster,
		synthesizer: ledger.NewSynthesizer(),
		concurrency: concurrency,
		log:         log,
	}
}

// ProcessResult desenlace del pipeline para una factura.
type ProcessResult struct {
	Invoice   *entity.InvoiceRecord
	TaxResult *entity.TaxResult
	Duplicate CheckResult
	Legs      []entity.LedgerEntry
}

// ProcessOne corre el pipeline para una factura. confirmDuplicate indica que
// el caller ya revisó las coincidencias y autoriza continuar; sin esa
// confirmación un posible duplicado queda en DUPLICATE_HOLD con
// domain.ErrDuplicateHold.
func (o *Orchestrator) ProcessOne(ctx context.Context, inv *entity.InvoiceRecord, confirmDuplicate bool) (*ProcessResult, error) {
	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Validación estructural (única ruta hacia REJECTED)
	// ═══════════════════════════════════════════════════════════════════════════
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	if err := inv.Validate(); err != nil {
		inv.Status = entity.StatusRejected
		if persistErr := o.invoiceRepo.Create(inv); persistErr != nil {
			o.log.Error().Str("invoice_id", inv.ID).Err(persistErr).
				Msg("no se pudo persistir la factura rechazada")
		}
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. A-lo-sumo-un intento en vuelo por huella
	// ═══════════════════════════════════════════════════════════════════════════
	release := o.flights.lock(o.detector.Fingerprint(inv))
	defer release()

	inv.Status = entity.StatusReceived
	if err := o.invoiceRepo.Create(inv); err != nil {
		return nil, fmt.Errorf("persistir factura %s: %w", inv.InvoiceNumber, err)
	}
	result := &ProcessResult{Invoice: inv}

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. Compuerta de duplicados (política: confirmación explícita del caller)
	// ═══════════════════════════════════════════════════════════════════════════
	check, err := o.detector.Check(ctx, inv)
	if err != nil {
		return nil, err
	}
	result.Duplicate = check
	if check.IsDuplicate && !confirmDuplicate {
		if err := o.setStatus(inv, entity.StatusDuplicateHold); err != nil {
			return nil, err
		}
		o.log.Warn().Str("invoice_id", inv.ID).Strs("matches", check.Matches).
			Msg("posible duplicado: retenida a la espera de confirmación")
		return result, fmt.Errorf("coincide con %v: %w", check.Matches, domain.ErrDuplicateHold)
	}
	if err := o.setStatus(inv, entity.StatusDuplicateChecked); err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 4. Cálculo tributario + validación de totales declarados
	// ═══════════════════════════════════════════════════════════════════════════
	ruleset := o.rules.Current()
	if ruleset == nil {
		return nil, fmt.Errorf("no hay juego de reglas tributarias cargado")
	}
	taxResult := o.validator.Validate(inv, o.engine.Compute(inv, ruleset))
	taxResult.ComputedAt = time.Now()
	if err := o.taxRepo.Save(taxResult); err != nil {
		return nil, fmt.Errorf("persistir resultado tributario: %w", err)
	}
	result.TaxResult = taxResult
	if taxResult.Flagged() {
		o.log.Warn().Str("invoice_id", inv.ID).Strs("reasons", taxResult.Reasons).
			Msg("discrepancia con los totales declarados: marcada para revisión")
	}
	if err := o.setStatus(inv, entity.StatusTaxed); err != nil {
		return nil, err
	}

	// El registro en el índice ocurre tras el cálculo exitoso, también para
	// las facturas confirmadas como no-duplicadas.
	if err := o.detector.Register(ctx, inv); err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 5. Intento de contabilización remota
	// ═══════════════════════════════════════════════════════════════════════════
	if err := o.setStatus(inv, entity.StatusPostingAttempted); err != nil {
		return nil, err
	}
	outcome := o.poster.Post(ctx, inv, taxResult)

	// ═══════════════════════════════════════════════════════════════════════════
	// 6. Asiento contable: derivado del remoto o sintetizado localmente
	// ═══════════════════════════════════════════════════════════════════════════
	source := entity.LedgerSourceLocal
	if outcome.PostedRemotely {
		source = entity.LedgerSourceRemote
	}
	legs, err := o.synthesizer.Synthesize(inv, taxResult, source)
	if err != nil {
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 7. Asiento + estado final en una sola transacción
	// ═══════════════════════════════════════════════════════════════════════════
	err = o.tx.Run(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		_ repository.TaxResultRepository,
		ledgerRepo repository.LedgerRepository,
	) error {
		if err := ledgerRepo.Append(legs); err != nil {
			return fmt.Errorf("asentar en el libro: %w", err)
		}
		if outcome.PostedRemotely {
			return invoiceRepo.SetRemote(inv.ID, outcome.RemoteID, entity.StatusCached)
		}
		// POSTED_LOCAL queda visible para que el barredor reintente cuando
		// el circuito lo permita.
		return invoiceRepo.UpdateStatus(inv.ID, entity.StatusPostedLocal)
	})
	if err != nil {
		return nil, err
	}

	result.Legs = legs
	inv.UpdatedAt = time.Now()
	if outcome.PostedRemotely {
		inv.RemoteID = outcome.RemoteID
		inv.Status = entity.StatusCached
	} else {
		inv.Status = entity.StatusPostedLocal
	}
	return result, nil
}

// BatchItem desenlace individual dentro de un lote.
type BatchItem struct {
	Result *ProcessResult
	Err    error
}

// ProcessBatch corre el pipeline sobre un lote con un pool acotado de
// trabajadores. La falla de una factura no aborta a sus hermanas; cada
// posición del resultado corresponde a la misma posición de la entrada.
func (o *Orchestrator) ProcessBatch(ctx context.Context, invoices []*entity.InvoiceRecord, confirmDuplicate bool) []BatchItem {
	items := make([]BatchItem, len(invoices))
	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for i, inv := range invoices {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, inv *entity.InvoiceRecord) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := o.ProcessOne(ctx, inv, confirmDuplicate)
			items[i] = BatchItem{Result: res, Err: err}
		}(i, inv)
	}
	wg.Wait()
	return items
}

// GetResult recupera el desenlace persistido de una factura ya procesada:
// la factura, su resultado tributario (si alcanzó TAXED) y sus patas del
// asiento (si alcanzó el libro).
func (o *Orchestrator) GetResult(id string) (*ProcessResult, error) {
	inv, err := o.invoiceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	result := &ProcessResult{Invoice: inv}

	res, err := o.taxRepo.GetByInvoiceID(id)
	if err != nil && err != domain.ErrNotFound {
		return nil, fmt.Errorf("resultado tributario de %s: %w", id, err)
	}
	result.TaxResult = res

	legs, err := o.ledgerRepo.ListByInvoiceID(id)
	if err != nil {
		return nil, fmt.Errorf("asiento de %s: %w", id, err)
	}
	result.Legs = legs
	return result, nil
}

func (o *Orchestrator) setStatus(inv *entity.InvoiceRecord, status string) error {
	if err := o.invoiceRepo.UpdateStatus(inv.ID, status); err != nil {
		return fmt.Errorf("actualizar estado a %s: %w", status, err)
	}
	inv.Status = status
	inv.UpdatedAt = time.Now()
	return nil
}

// keyedMutex candado por huella: serializa los intentos que comparten
// fingerprint y deja pasar en paralelo a todos los demás.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*flightLock
}

type flightLock struct {
	mu   sync.Mutex
	refs int
}

// lock bloquea la huella y devuelve la función que la libera.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*flightLock)
	}
	fl, ok := k.locks[key]
	if !ok {
		fl = &flightLock{}
		k.locks[key] = fl
	}
	fl.refs++
	k.mu.Unlock()

	fl.mu.Lock()
	return func() {
		fl.mu.Unlock()
		k.mu.Lock()
		fl.refs--
		if fl.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
