package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplyBatch es una unidad discreta de ingreso (una postura clasificada, una
// compra de alimento). Es la unidad de consumo FIFO. Invariante:
// 0 <= Remaining <= Original; Remaining solo baja por asignación y solo sube
// por reversa explícita de una salida.
type SupplyBatch struct {
	ID         string
	Category   string
	Original   decimal.Decimal
	Remaining  decimal.Decimal
	IntakeDate time.Time
	Expiration *time.Time // vencimiento (alimento); nil para huevo
	SourceRef  string     // referencia al registro de producción o compra de origen
	Seq        int64      // secuencia de inserción: desempate determinista del orden FIFO
	CreatedAt  time.Time
}

// Exhausted indica si el lote ya no tiene remanente.
func (b *SupplyBatch) Exhausted() bool {
	return b.Remaining.LessThanOrEqual(decimal.Zero)
}

// AgeDays devuelve la edad del lote en días a la fecha dada.
func (b *SupplyBatch) AgeDays(asOf time.Time) int {
	return int(asOf.Sub(b.IntakeDate).Hours() / 24)
}
