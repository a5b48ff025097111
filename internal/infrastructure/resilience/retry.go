package resilience

import (
	"context"
	"time"

	"github.com/jhoicas/Contable-api/internal/domain"
)

// Retrier reintenta operaciones contra el sistema externo con espera
// exponencial. Solo reintenta errores TRANSITORIOS (timeout, 5xx): un 4xx se
// devuelve de inmediato porque repetir la misma petición no lo va a cambiar.
type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	factor      int64
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewRetrier construye el reintentador. Valores no positivos toman los
// defaults: 3 intentos, espera base de 1s, factor ×3.
func NewRetrier(maxAttempts int, baseDelay time.Duration, factor int) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if factor <= 1 {
		factor = 3
	}
	return &Retrier{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		factor:      int64(factor),
		sleep:       ctxSleep,
	}
}

// Do ejecuta op hasta maxAttempts veces. Devuelve nil al primer éxito, el
// error de op si es permanente o se agotaron los intentos, o el error del
// contexto si se cancela durante la espera.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	delay := r.baseDelay
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !domain.IsTransientRemote(err) {
			return err
		}
		if attempt == r.maxAttempts {
			break
		}
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		delay = time.Duration(int64(delay) * r.factor)
	}
	return err
}

// ctxSleep espera d o hasta que el contexto se cancele, lo primero que ocurra.
func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
