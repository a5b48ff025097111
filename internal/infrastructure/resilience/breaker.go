// Package resilience aísla al pipeline de la inestabilidad del sistema
// contable externo: un cortacircuitos por clase de endpoint y un reintentador
// con espera exponencial para errores transitorios.
package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Estados del cortacircuitos.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half-open"
)

// ErrOpen la llamada se rechaza de inmediato, sin tocar la red.
var ErrOpen = errors.New("circuito abierto: el sistema externo se considera caído")

// Breaker cortacircuitos clásico de tres estados. Cuenta solo fallas
// TRANSITORIAS consecutivas: un error permanente (4xx) prueba que el sistema
// remoto responde y no debe abrir el circuito. Tras cada reapertura el
// enfriamiento se duplica hasta un tope.
type Breaker struct {
	name        string
	maxFailures int
	baseCool    time.Duration
	maxCool     time.Duration
	now         func() time.Time

	mu          sync.Mutex
	state       string
	consecutive int
	cooldown    time.Duration
	openedAt    time.Time
	probing     bool
}

// NewBreaker construye el cortacircuitos. Valores no positivos toman los
// defaults: 5 fallas, enfriamiento de 60s con tope de 10min.
func NewBreaker(name string, maxFailures int, baseCooldown, maxCooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if baseCooldown <= 0 {
		baseCooldown = 60 * time.Second
	}
	if maxCooldown <= 0 {
		maxCooldown = 10 * time.Minute
	}
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		baseCool:    baseCooldown,
		maxCool:     maxCooldown,
		now:         time.Now,
		state:       StateClosed,
		cooldown:    baseCooldown,
	}
}

// Allow decide si la llamada puede salir a la red. Con el circuito abierto y
// el enfriamiento vencido pasa a semiabierto y concede UNA sonda; las demás
// llamadas reciben ErrOpen hasta que la sonda resuelva.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return fmt.Errorf("%s: %w", b.name, ErrOpen)
		}
		b.state = StateHalfOpen
		b.probing = true
		return nil
	default: // semiabierto
		if b.probing {
			return fmt.Errorf("%s: sonda en vuelo: %w", b.name, ErrOpen)
		}
		b.probing = true
		return nil
	}
}

// Success registra una llamada que llegó al sistema remoto. Cierra el
// circuito desde semiabierto y restablece el enfriamiento base.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive = 0
	b.probing = false
	if b.state != StateClosed {
		b.state = StateClosed
		b.cooldown = b.baseCool
	}
}

// Neutral registra una llamada con desenlace permanente (4xx): el sistema
// remoto respondió, pero esa falla no dice nada de su disponibilidad, así
// que el conteo de fallas transitorias no avanza ni se reinicia. En
// semiabierto libera la sonda sin cerrar ni reabrir; la siguiente llamada
// vuelve a sondear.
func (b *Breaker) Neutral() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
}

// Failure registra una falla transitoria. En cerrado abre al llegar al
// umbral; en semiabierto reabre de inmediato con el enfriamiento duplicado.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.consecutive++
		if b.consecutive >= b.maxFailures {
			b.open(b.baseCool)
		}
	case StateHalfOpen:
		next := b.cooldown * 2
		if next > b.maxCool {
			next = b.maxCool
		}
		b.open(next)
	}
}

func (b *Breaker) open(cooldown time.Duration) {
	b.state = StateOpen
	b.cooldown = cooldown
	b.openedAt = b.now()
	b.consecutive = 0
	b.probing = false
}

// State estado actual, para el endpoint de salud y los logs.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}
