// Package ledger contiene los servicios de dominio puros del motor de
// inventario: planeación FIFO, orden de consumo, frescura y mínimo automático.
// Ninguna función hace I/O; la orquestación transaccional vive en application.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/granjapro/avicola-api/internal/domain"
	"github.com/granjapro/avicola-api/internal/domain/entity"
)

// Take es una toma planificada: cuánto consumir de qué lote.
type Take struct {
	Batch    *entity.SupplyBatch
	Quantity decimal.Decimal
}

// SortBatchesFIFO ordena los lotes en el orden de consumo, in place.
// HUEVO: fecha de ingreso ascendente (el más viejo primero).
// ALIMENTO: vencimiento ascendente (el más próximo a vencer primero); sin
// vencimiento, cae a fecha de ingreso. Desempate por Seq para determinismo.
func SortBatchesFIFO(kind string, batches []*entity.SupplyBatch) {
	key := func(b *entity.SupplyBatch) time.Time {
		if kind == entity.PoolKindAlimento && b.Expiration != nil {
			return *b.Expiration
		}
		return b.IntakeDate
	}
	sort.SliceStable(batches, func(i, j int) bool {
		ki, kj := key(batches[i]), key(batches[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return batches[i].Seq < batches[j].Seq
	})
}

// PlanAllocation recorre los lotes (ya en orden de consumo) y arma el plan de
// tomas para satisfacer requested. Es todo-o-nada: si la suma de remanentes no
// alcanza, retorna InsufficientSupplyError con cifras y no planifica nada.
// No muta los lotes; aplicar el plan es responsabilidad del caller.
// Garantía: la suma de las tomas es exactamente requested.
func PlanAllocation(category string, batches []*entity.SupplyBatch, requested decimal.Decimal) ([]Take, error) {
	if !requested.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	available := decimal.Zero
	for _, b := range batches {
		if !b.Exhausted() {
			available = available.Add(b.Remaining)
		}
	}
	if available.LessThan(requested) {
		return nil, &domain.InsufficientSupplyError{
			Category:  category,
			Available: available,
			Requested: requested,
		}
	}

	var plan []Take
	pending := requested
	for _, b := range batches {
		if b.Exhausted() {
			continue
		}
		take := decimal.Min(pending, b.Remaining)
		plan = append(plan, Take{Batch: b, Quantity: take})
		pending = pending.Sub(take)
		if pending.IsZero() {
			break
		}
	}
	return plan, nil
}

// SumRemaining suma los remanentes de los lotes.
func SumRemaining(batches []*entity.SupplyBatch) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range batches {
		sum = sum.Add(b.Remaining)
	}
	return sum
}

// CheckConservation verifica el invariante pool == suma de remanentes.
// Al detectar deriva retorna InvariantViolationError: la operación debe
// abortar, nunca "corregir" los datos en silencio.
func CheckConservation(pool *entity.StockPool, batches []*entity.SupplyBatch) error {
	sum := SumRemaining(batches)
	if !pool.Quantity.Equal(sum) {
		return &domain.InvariantViolationError{
			Category:     pool.Category,
			PoolQuantity: pool.Quantity,
			BatchSum:     sum,
		}
	}
	return nil
}
