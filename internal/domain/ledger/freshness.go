package ledger

import "time"

// IsStale indica si un lote ingresado en intake supera la edad máxima (en días)
// a la fecha asOf. El aviso de frescura no bloquea la salida: solo marca el
// registro para que el colaborador de alertas lo consuma.
func IsStale(intake, asOf time.Time, maxAgeDays int) bool {
	if maxAgeDays <= 0 {
		return false
	}
	return asOf.Sub(intake) > time.Duration(maxAgeDays)*24*time.Hour
}
