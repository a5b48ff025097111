package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound      = errors.New("recurso no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrDuplicateHold = errors.New("posible duplicado pendiente de confirmación")
	ErrUnbalanced    = errors.New("asiento descuadrado: débitos y créditos no coinciden")
)

// RemoteError representa una falla del servicio contable externo, con la
// clase de estado HTTP que permite distinguir errores transitorios
// (timeout, 5xx) de permanentes (4xx). StatusCode 0 significa falla de red
// o timeout, sin respuesta HTTP.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("servicio externo inalcanzable: %s", e.Message)
	}
	return fmt.Sprintf("servicio externo respondió %d: %s", e.StatusCode, e.Message)
}

// Transient indica si la falla amerita reintento: fallas de red/timeout y 5xx
// son culpa del sistema remoto; los 4xx son culpa del caller y no se reintentan.
func (e *RemoteError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// IsTransientRemote reporta si err es una falla remota reintentable.
func IsTransientRemote(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Transient()
	}
	return false
}

// IsPermanentRemote reporta si err es una falla remota NO reintentable (4xx).
func IsPermanentRemote(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return !re.Transient()
	}
	return false
}
