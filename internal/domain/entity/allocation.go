package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation es el registro inmutable de una salida: una cantidad tomada de un
// lote concreto para satisfacer un despacho. Invariante: Quantity <= Remaining
// del lote al momento de crearse; la suma de salidas de un lote nunca supera su
// Original. Se crea en la misma transacción que el decremento del lote; borrarla
// equivale a reversar la salida.
type Allocation struct {
	ID           string
	BatchID      string
	Category     string
	Quantity     decimal.Decimal
	Destination  string    // cliente o destino del despacho
	DispatchDate time.Time // fecha del despacho (no la de creación del registro)
	Stale        bool      // aviso de frescura: el lote superó la edad configurada
	CreatedAt    time.Time
	CreatedBy    string // UserID
}
