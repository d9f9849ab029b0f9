// Package event define los avisos que el núcleo de inventario entrega a
// colaboradores externos. El núcleo no persiste ni renderiza alertas: las
// emite de forma síncrona y explícita desde la operación que las origina
// (sin hooks implícitos), y el colaborador decide qué hacer con ellas.
package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// LowStock se emite cuando un pool cruza (o queda en) su umbral mínimo.
type LowStock struct {
	Category string
	Quantity decimal.Decimal
	Minimum  decimal.Decimal
	At       time.Time
}

// Freshness se emite cuando una salida consume un lote que superó la edad
// configurada. Es un aviso, no bloquea la asignación.
type Freshness struct {
	BatchID  string
	Category string
	AgeDays  int
	At       time.Time
}
