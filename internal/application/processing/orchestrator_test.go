package processing

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contable-api/internal/domain"
	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/internal/domain/tax"
	"github.com/jhoicas/Contable-api/internal/infrastructure/cache"
	"github.com/jhoicas/Contable-api/pkg/logger"
)

const testRulesDoc = `{
  "2025": {
    "uvt_value": "49799",
    "vat": {"general_rate": "0.19"},
    "income_withholding": {
      "honorarios": {"min_uvt": "0", "rate": "0.10", "large_rate": "0.11", "large_min_uvt": "55"},
      "compras":    {"min_uvt": "27", "rate": "0.025"}
    },
    "vat_withholding": {"min_uvt": "27", "rates": {"common": "0.15"}},
    "ica": {
      "Medellín": {"min_uvt": "15", "activities": {"comercio": "0.002", "servicios": "0.0058"}}
    }
  }
}`

type orchestratorFixture struct {
	orch     *Orchestrator
	invoices *memInvoiceRepo
	taxes    *memTaxRepo
	ledger   *memLedgerRepo
	poster   *scriptedPoster
}

func newOrchestratorFixture(t *testing.T, remoteUp bool) *orchestratorFixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taxrules.json")
	require.NoError(t, os.WriteFile(path, []byte(testRulesDoc), 0o644))
	rules := tax.NewProvider(path, 2025)
	require.NoError(t, rules.Load())

	f := &orchestratorFixture{
		invoices: newMemInvoiceRepo(),
		taxes:    newMemTaxRepo(),
		ledger:   &memLedgerRepo{},
		poster:   &scriptedPoster{remoteUp: remoteUp},
	}
	f.orch = NewOrchestrator(
		&memTxRunner{invoices: f.invoices, taxes: f.taxes, ledger: f.ledger},
		f.invoices, f.taxes, f.ledger,
		NewDuplicateDetector(cache.NewMemoryStore(), 24*time.Hour, decimal.Zero),
		rules, tax.NewValidator(decimal.Zero), f.poster, 5, logger.Nop(),
	)
	return f
}

func TestProcessOne_RemotoDisponible_TerminaEnCached(t *testing.T) {
	f := newOrchestratorFixture(t, true)
	inv := validInvoice("inv-1", "Consultores Andinos", "3000000")
	inv.StatedTaxTotal = decimal.NewFromInt(570000)
	inv.StatedGrandTotal = decimal.NewFromInt(3570000)

	res, err := f.orch.ProcessOne(context.Background(), inv, false)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusCached, f.invoices.status("inv-1"))
	stored, err := f.invoices.GetByID("inv-1")
	require.NoError(t, err)
	assert.Equal(t, "rem-1", stored.RemoteID)

	require.NotNil(t, res.TaxResult)
	assert.True(t, res.TaxResult.NetAmount.Equal(decimal.NewFromInt(3137100)))
	assert.False(t, res.TaxResult.ComputedAt.IsZero(), "el resultado persistido lleva su estampa")

	require.NotEmpty(t, res.Legs)
	for _, leg := range res.Legs {
		assert.Equal(t, entity.LedgerSourceRemote, leg.Source)
	}
}

func TestProcessOne_RemotoCaido_SintetizaAsientoLocal(t *testing.T) {
	f := newOrchestratorFixture(t, false)
	inv := validInvoice("inv-1", "Consultores Andinos", "3000000")

	res, err := f.orch.ProcessOne(context.Background(), inv, false)
	require.NoError(t, err, "la caída remota no es un error del pipeline")

	assert.Equal(t, entity.StatusPostedLocal, f.invoices.status("inv-1"))

	var debits, credits decimal.Decimal
	for _, leg := range res.Legs {
		assert.Equal(t, entity.LedgerSourceLocal, leg.Source)
		debits = debits.Add(leg.Debit)
		credits = credits.Add(leg.Credit)
	}
	assert.True(t, debits.Equal(credits), "el asiento local cuadra al centavo")
}

func TestProcessOne_EntradaInvalida_TerminaEnRejected(t *testing.T) {
	f := newOrchestratorFixture(t, true)
	inv := validInvoice("inv-1", "", "1000000") // sin proveedor

	_, err := f.orch.ProcessOne(context.Background(), inv, false)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, entity.StatusRejected, f.invoices.status("inv-1"))
	assert.Zero(t, f.poster.calls, "una factura rechazada nunca llega al remoto")
}

func TestProcessOne_DuplicadoSinConfirmar_QuedaRetenida(t *testing.T) {
	f := newOrchestratorFixture(t, true)
	ctx := context.Background()

	_, err := f.orch.ProcessOne(ctx, validInvoice("inv-1", "Acme", "1000000"), false)
	require.NoError(t, err)

	res, err := f.orch.ProcessOne(ctx, validInvoice("inv-2", "ACME", "1000000"), false)

	assert.ErrorIs(t, err, domain.ErrDuplicateHold)
	assert.Equal(t, entity.StatusDuplicateHold, f.invoices.status("inv-2"))
	require.NotNil(t, res)
	assert.Equal(t, []string{"inv-1"}, res.Duplicate.Matches)
	assert.Equal(t, 1, f.poster.calls, "la retenida no se contabiliza")
}

func TestProcessOne_DuplicadoConfirmado_SigueElPipeline(t *testing.T) {
	f := newOrchestratorFixture(t, true)
	ctx := context.Background()

	_, err := f.orch.ProcessOne(ctx, validInvoice("inv-1", "Acme", "1000000"), false)
	require.NoError(t, err)

	_, err = f.orch.ProcessOne(ctx, validInvoice("inv-2", "Acme", "1000000"), true)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusCached, f.invoices.status("inv-2"))

	// La confirmada queda indexada como cualquier otra: una tercera copia
	// coincide con ambas.
	res, err := f.orch.ProcessOne(ctx, validInvoice("inv-3", "Acme", "1000000"), false)
	assert.ErrorIs(t, err, domain.ErrDuplicateHold)
	assert.ElementsMatch(t, []string{"inv-1", "inv-2"}, res.Duplicate.Matches)
}

func TestProcessBatch_AislaLasFallasPorItem(t *testing.T) {
	f := newOrchestratorFixture(t, true)

	batch := []*entity.InvoiceRecord{
		validInvoice("inv-1", "Acme", "1000000"),
		validInvoice("inv-2", "", "2000000"), // inválida
		validInvoice("inv-3", "Beta", "3000000"),
	}
	items := f.orch.ProcessBatch(context.Background(), batch, false)

	require.Len(t, items, 3)
	assert.NoError(t, items[0].Err)
	assert.ErrorIs(t, items[1].Err, domain.ErrInvalidInput)
	assert.NoError(t, items[2].Err, "la factura inválida no arrastra a sus hermanas")
}

func TestProcessBatch_HuellasIgualesNoCompitenEntreSi(t *testing.T) {
	f := newOrchestratorFixture(t, true)

	batch := []*entity.InvoiceRecord{
		validInvoice("inv-1", "Acme", "1000000"),
		validInvoice("inv-2", "Acme", "1000000"),
	}
	items := f.orch.ProcessBatch(context.Background(), batch, false)

	// Una pasa completa y la otra queda retenida: jamás dos
	// contabilizaciones para la misma huella.
	var held, posted int
	for _, item := range items {
		switch {
		case item.Err == nil:
			posted++
		default:
			assert.ErrorIs(t, item.Err, domain.ErrDuplicateHold)
			held++
		}
	}
	assert.Equal(t, 1, posted)
	assert.Equal(t, 1, held)
	assert.Equal(t, 1, f.poster.calls)
}

func TestKeyedMutex_SerializaPorLlaveYLiberaLimpio(t *testing.T) {
	var km keyedMutex
	var mu sync.Mutex
	running := 0
	maxRunning := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := km.lock("misma-huella")
			defer release()
			mu.Lock()
			running++
			if running > maxRunning {
				maxRunning = running
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			running--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxRunning, "una sola en vuelo por huella")
	assert.Empty(t, km.locks, "sin goroutines en vuelo no quedan candados")
}
