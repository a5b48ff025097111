package processing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
	"github.com/jhoicas/Contable-api/internal/infrastructure/cache"
	"github.com/jhoicas/Contable-api/pkg/logger"
)

func seedPostedLocal(t *testing.T, invoices *memInvoiceRepo, taxes *memTaxRepo, id string) {
	t.Helper()
	inv := validInvoice(id, "Acme", "1000000")
	inv.Status = entity.StatusPostedLocal
	require.NoError(t, invoices.Create(inv))
	require.NoError(t, taxes.Save(&entity.TaxResult{
		InvoiceID: id,
		NetAmount: decimal.NewFromInt(1000000),
	}))
}

func TestSweep_ReintentaLasPendientesYRegistraLaReferencia(t *testing.T) {
	invoices := newMemInvoiceRepo()
	taxes := newMemTaxRepo()
	seedPostedLocal(t, invoices, taxes, "inv-1")
	seedPostedLocal(t, invoices, taxes, "inv-2")
	poster := &scriptedPoster{remoteUp: true}

	s := NewSweeper(time.Minute, 20, invoices, taxes, poster, nil, logger.Nop())
	s.sweep(context.Background())

	assert.Equal(t, entity.StatusCached, invoices.status("inv-1"))
	assert.Equal(t, entity.StatusCached, invoices.status("inv-2"))
	assert.Equal(t, 2, poster.calls)
}

func TestSweep_RemotoSigueCaido_LasPendientesNoCambian(t *testing.T) {
	invoices := newMemInvoiceRepo()
	taxes := newMemTaxRepo()
	seedPostedLocal(t, invoices, taxes, "inv-1")
	seedPostedLocal(t, invoices, taxes, "inv-2")
	poster := &scriptedPoster{remoteUp: false}

	s := NewSweeper(time.Minute, 20, invoices, taxes, poster, nil, logger.Nop())
	s.sweep(context.Background())

	assert.Equal(t, entity.StatusPostedLocal, invoices.status("inv-1"))
	assert.Equal(t, entity.StatusPostedLocal, invoices.status("inv-2"))
	assert.Equal(t, 1, poster.calls,
		"la primera falla corta la pasada; el resto espera al siguiente ciclo")
}

func TestSweep_PurgaElIndiceEnCadaPasada(t *testing.T) {
	store := cache.NewMemoryStore()
	require.NoError(t, store.Add(context.Background(), "huella", "m", time.Nanosecond))
	time.Sleep(time.Millisecond)

	s := NewSweeper(time.Minute, 20, newMemInvoiceRepo(), newMemTaxRepo(),
		&scriptedPoster{remoteUp: true}, store, logger.Nop())
	s.sweep(context.Background())

	members, err := store.Members(context.Background(), "huella")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestSweeper_StartStopNoSeCuelga(t *testing.T) {
	s := NewSweeper(time.Hour, 20, newMemInvoiceRepo(), newMemTaxRepo(),
		&scriptedPoster{remoteUp: true}, nil, logger.Nop())

	s.Start()
	s.Stop()

	// Stop sin Start tampoco debe bloquear.
	s2 := NewSweeper(time.Hour, 20, newMemInvoiceRepo(), newMemTaxRepo(),
		&scriptedPoster{remoteUp: true}, nil, logger.Nop())
	s2.Stop()
}
