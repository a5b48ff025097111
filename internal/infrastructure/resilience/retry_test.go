package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contable-api/internal/domain"
)

// instantSleep registra las esperas pedidas sin dormir de verdad.
func instantSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRetrier_ExitoAlPrimerIntento(t *testing.T) {
	r := NewRetrier(3, time.Second, 3)
	var delays []time.Duration
	r.sleep = instantSleep(&delays)

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestRetrier_TransitorioReintentaConEsperaExponencial(t *testing.T) {
	r := NewRetrier(3, time.Second, 3)
	var delays []time.Duration
	r.sleep = instantSleep(&delays)

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &domain.RemoteError{StatusCode: 503, Message: "mantenimiento"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, delays,
		"espera base 1s con factor ×3")
}

func TestRetrier_AgotaIntentosYDevuelveElUltimoError(t *testing.T) {
	r := NewRetrier(3, time.Second, 3)
	var delays []time.Duration
	r.sleep = instantSleep(&delays)

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return &domain.RemoteError{StatusCode: 500, Message: "error interno"}
	})

	assert.Equal(t, 3, calls)
	assert.True(t, domain.IsTransientRemote(err))
	assert.Len(t, delays, 2, "no se espera después del último intento")
}

func TestRetrier_PermanenteNoSeReintenta(t *testing.T) {
	r := NewRetrier(3, time.Second, 3)
	var delays []time.Duration
	r.sleep = instantSleep(&delays)

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return &domain.RemoteError{StatusCode: 422, Message: "documento inválido"}
	})

	assert.Equal(t, 1, calls, "un 4xx no cambia por repetir la petición")
	assert.True(t, domain.IsPermanentRemote(err))
	assert.Empty(t, delays)
}

func TestRetrier_ContextoCanceladoDuranteLaEspera(t *testing.T) {
	r := NewRetrier(3, time.Millisecond, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Do(ctx, func(context.Context) error {
		return &domain.RemoteError{StatusCode: 500, Message: "error interno"}
	})

	assert.ErrorIs(t, err, context.Canceled)
}
