package processing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contable-api/internal/infrastructure/cache"
)

func newTestDetector() *DuplicateDetector {
	return NewDuplicateDetector(cache.NewMemoryStore(), 24*time.Hour, decimal.Zero)
}

func TestFingerprint_RedondeaAlMillarYNormalizaElProveedor(t *testing.T) {
	d := newTestDetector()

	a := validInvoice("a", "Ferretería El Martillo S.A.S", "203343.81")
	b := validInvoice("b", "ferreteria  el martillo s.a.s", "203400.00")

	assert.Equal(t, d.Fingerprint(a), d.Fingerprint(b),
		"tildes, mayúsculas y el redondeo al millar no cambian la huella")
	assert.Contains(t, d.Fingerprint(a), "|203000|")
}

func TestCheck_MismoProveedorMismoDiaDentroDelUnoPorCiento(t *testing.T) {
	d := newTestDetector()
	ctx := context.Background()

	first := validInvoice("inv-1", "Ferretería El Martillo", "40000")
	require.NoError(t, d.Register(ctx, first))

	second := validInvoice("inv-2", "FERRETERIA EL MARTILLO", "40200")
	res, err := d.Check(ctx, second)

	require.NoError(t, err)
	assert.True(t, res.IsDuplicate)
	assert.Equal(t, []string{"inv-1"}, res.Matches)
}

func TestCheck_FronteraDelMillarCaeEnBaldeVecino(t *testing.T) {
	d := newTestDetector()
	ctx := context.Background()

	// 40.499 redondea a 40.000 y 40.501 a 41.000: baldes distintos con
	// montos a un 0,005% uno del otro.
	first := validInvoice("inv-1", "Ferretería El Martillo", "40499")
	require.NoError(t, d.Register(ctx, first))

	second := validInvoice("inv-2", "Ferretería El Martillo", "40501")
	res, err := d.Check(ctx, second)

	require.NoError(t, err)
	assert.True(t, res.IsDuplicate, "la frontera de redondeo no exime la tolerancia del 1%")
	assert.Equal(t, []string{"inv-1"}, res.Matches)
}

func TestCheck_BaldeVecinoFueraDeToleranciaNoEsDuplicado(t *testing.T) {
	d := newTestDetector()
	ctx := context.Background()

	first := validInvoice("inv-1", "Ferretería El Martillo", "40499")
	require.NoError(t, d.Register(ctx, first))

	// Balde vecino (41.000) pero 2,5% por encima del candidato: la
	// comparación exacta sigue mandando.
	second := validInvoice("inv-2", "Ferretería El Martillo", "41499")
	res, err := d.Check(ctx, second)

	require.NoError(t, err)
	assert.False(t, res.IsDuplicate)
}

func TestCheck_MontoFueraDelUnoPorCientoNoEsDuplicado(t *testing.T) {
	d := newTestDetector()
	ctx := context.Background()

	first := validInvoice("inv-1", "Ferretería El Martillo", "40000")
	require.NoError(t, d.Register(ctx, first))

	// Mismo balde (redondea a 40.000) pero 1,125% por encima del candidato.
	second := validInvoice("inv-2", "Ferretería El Martillo", "40450")
	res, err := d.Check(ctx, second)

	require.NoError(t, err)
	assert.False(t, res.IsDuplicate)
}

func TestCheck_DiaDistintoNoEsDuplicado(t *testing.T) {
	d := newTestDetector()
	ctx := context.Background()

	first := validInvoice("inv-1", "Ferretería El Martillo", "40000")
	require.NoError(t, d.Register(ctx, first))

	second := validInvoice("inv-2", "Ferretería El Martillo", "40000")
	second.Date = second.Date.AddDate(0, 0, 1)
	res, err := d.Check(ctx, second)

	require.NoError(t, err)
	assert.False(t, res.IsDuplicate, "otro día calendario: otra huella")
}

func TestCheck_NoSeCoincideConsigoMisma(t *testing.T) {
	d := newTestDetector()
	ctx := context.Background()

	inv := validInvoice("inv-1", "Ferretería El Martillo", "40000")
	require.NoError(t, d.Register(ctx, inv))

	res, err := d.Check(ctx, inv)
	require.NoError(t, err)
	assert.False(t, res.IsDuplicate)
}

func TestCheck_VariosCandidatosDevuelveTodasLasCoincidencias(t *testing.T) {
	d := newTestDetector()
	ctx := context.Background()

	require.NoError(t, d.Register(ctx, validInvoice("inv-1", "Acme", "40000")))
	require.NoError(t, d.Register(ctx, validInvoice("inv-2", "Acme", "40100")))

	res, err := d.Check(ctx, validInvoice("inv-3", "Acme", "40000"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"inv-1", "inv-2"}, res.Matches)
}
