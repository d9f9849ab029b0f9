package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de recurso de un pool. Determinan el orden de consumo FIFO:
// HUEVO consume por fecha de ingreso; ALIMENTO por fecha de vencimiento (FEFO).
const (
	PoolKindHuevo    = "HUEVO"    // huevo clasificado por categoría (AA, A, B, C, ...)
	PoolKindAlimento = "ALIMENTO" // alimento/concentrado por tipo
)

// StockPool es la cantidad agregada de una categoría de recurso (ej. huevo AA,
// concentrado de levante). Invariante: Quantity == suma de Remaining de los
// lotes activos de la categoría; la mantiene el Allocator, no un constraint de BD.
// Nunca se elimina físicamente: solo se desactiva.
type StockPool struct {
	Category      string // clave única (ej. "HUEVO-AA", "ALIMENTO-LEVANTE")
	Kind          string // HUEVO | ALIMENTO
	Quantity      decimal.Decimal
	Minimum       decimal.Decimal // umbral de alerta de stock bajo
	AutoMinimum   bool            // recalcular el mínimo automáticamente
	MinimumFactor decimal.Decimal // factor × ingreso diario promedio
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BelowMinimum indica si la cantidad actual está en o bajo el umbral de alerta.
func (p *StockPool) BelowMinimum() bool {
	return p.Quantity.LessThanOrEqual(p.Minimum)
}
