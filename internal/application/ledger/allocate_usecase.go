package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/granjapro/avicola-api/internal/domain"
	"github.com/granjapro/avicola-api/internal/domain/entity"
	"github.com/granjapro/avicola-api/internal/domain/event"
	ledgerdom "github.com/granjapro/avicola-api/internal/domain/ledger"
	"github.com/granjapro/avicola-api/internal/domain/repository"
)

// Config parámetros del motor de asignación.
type Config struct {
	StalenessDays        int             // edad (días) a partir de la cual una salida genera aviso de frescura
	MinimumFactor        decimal.Decimal // factor por defecto del mínimo automático
	ThroughputWindowDays int             // ventana de historial para el mínimo automático
}

// AllocateUseCase satisface despachos contra una categoría consumiendo los
// lotes más viejos primero (FIFO; FEFO para alimento), con rastro auditable.
// Serializa por categoría: bloquea la fila del pool antes de leer lotes y la
// mantiene hasta confirmar salidas y decremento del pool.
type AllocateUseCase struct {
	txRunner TxRunner
	notifier AlertNotifier
	audit    AuditSink
	cfg      Config
}

// NewAllocateUseCase construye el caso de uso.
func NewAllocateUseCase(txRunner TxRunner, notifier AlertNotifier, audit AuditSink, cfg Config) *AllocateUseCase {
	return &AllocateUseCase{txRunner: txRunner, notifier: notifier, audit: audit, cfg: cfg}
}

// DispatchInput entrada para Allocate.
type DispatchInput struct {
	Category    string
	Quantity    decimal.Decimal
	Destination string
	AsOfDate    time.Time // fecha del despacho; evalúa frescura, no se muta
	UserID      string
}

// Allocate despacha la cantidad solicitada contra la categoría. Todo-o-nada:
// valida el suministro agregado antes de tocar cualquier lote; un fallo de
// persistencia a mitad del recorrido revierte todos los decrementos parciales.
// Garantía de salida: las cantidades de las salidas retornadas suman exactamente
// lo solicitado y los remanentes quedan decrementados de forma durable al retornar.
func (uc *AllocateUseCase) Allocate(ctx context.Context, in DispatchInput) ([]*entity.Allocation, error) {
	if in.Category == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	asOf := in.AsOfDate
	if asOf.IsZero() {
		asOf = time.Now()
	}

	var allocations []*entity.Allocation
	var events PendingEvents

	err := uc.txRunner.Run(ctx, func(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		allocRepo repository.AllocationRepository,
	) error {
		var err error
		allocations, events, err = uc.AllocateInTx(poolRepo, batchRepo, allocRepo,
			in.Category, in.Quantity, in.Destination, asOf, in.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Avisos y auditoría solo después de confirmar la transacción
	uc.emit(events)
	return allocations, nil
}

// AllocateInTx ejecuta la asignación con los repositorios del caller (misma
// transacción). Lo usa Allocate y el motor de pedidos para descontar stock de
// líneas por la misma vía atómica. Bloquea la fila del pool, carga los lotes
// disponibles FOR UPDATE en orden de consumo, verifica el invariante de
// conservación, planifica todo-o-nada y aplica el plan.
func (uc *AllocateUseCase) AllocateInTx(
	poolRepo repository.StockPoolRepository,
	batchRepo repository.SupplyBatchRepository,
	allocRepo repository.AllocationRepository,
	category string,
	quantity decimal.Decimal,
	destination string,
	asOf time.Time,
	userID string,
) ([]*entity.Allocation, PendingEvents, error) {
	var events PendingEvents

	// Serializa la categoría: ningún otro despacho ni ajuste puede pasar el
	// chequeo de suficiencia mientras este no confirme o revierta.
	pool, err := poolRepo.GetForUpdate(category)
	if err != nil {
		return nil, events, err
	}
	if pool == nil || !pool.Active {
		return nil, events, domain.ErrNotFound
	}

	batches, err := batchRepo.ListAvailableForUpdate(category, pool.Kind)
	if err != nil {
		return nil, events, err
	}

	// Defensivo: deriva entre pool y lotes aborta la operación
	if err := ledgerdom.CheckConservation(pool, batches); err != nil {
		return nil, events, err
	}

	plan, err := ledgerdom.PlanAllocation(category, batches, quantity)
	if err != nil {
		return nil, events, err
	}

	now := time.Now()
	allocations := make([]*entity.Allocation, 0, len(plan))
	for _, take := range plan {
		batch := take.Batch
		oldRemaining := batch.Remaining
		batch.Remaining = batch.Remaining.Sub(take.Quantity)
		if err := batchRepo.UpdateRemaining(batch); err != nil {
			return nil, events, err
		}

		stale := ledgerdom.IsStale(batch.IntakeDate, asOf, uc.cfg.StalenessDays)
		alloc := &entity.Allocation{
			ID:           uuid.New().String(),
			BatchID:      batch.ID,
			Category:     category,
			Quantity:     take.Quantity,
			Destination:  destination,
			DispatchDate: asOf,
			Stale:        stale,
			CreatedAt:    now,
			CreatedBy:    userID,
		}
		if err := allocRepo.Create(alloc); err != nil {
			return nil, events, err
		}
		allocations = append(allocations, alloc)

		if stale {
			events.freshness = append(events.freshness, event.Freshness{
				BatchID:  batch.ID,
				Category: category,
				AgeDays:  batch.AgeDays(asOf),
				At:       now,
			})
		}
		events.changes = append(events.changes,
			entity.ChangeRecord{Entity: "supply_batch", EntityID: batch.ID, Field: "remaining",
				Old: oldRemaining.String(), New: batch.Remaining.String(), At: now, Operation: "allocate"},
			entity.ChangeRecord{Entity: "allocation", EntityID: alloc.ID, Field: "quantity",
				Old: "", New: alloc.Quantity.String(), At: now, Operation: "allocate"},
		)
	}

	oldQty := pool.Quantity
	pool.Quantity = pool.Quantity.Sub(quantity)
	pool.UpdatedAt = now
	if err := poolRepo.Upsert(pool); err != nil {
		return nil, events, err
	}
	events.changes = append(events.changes, entity.ChangeRecord{
		Entity: "stock_pool", EntityID: pool.Category, Field: "quantity",
		Old: oldQty.String(), New: pool.Quantity.String(), At: now, Operation: "allocate",
	})

	if pool.BelowMinimum() {
		events.lowStock = append(events.lowStock, event.LowStock{
			Category: pool.Category,
			Quantity: pool.Quantity,
			Minimum:  pool.Minimum,
			At:       now,
		})
	}
	return allocations, events, nil
}

// Reverse restaura la cantidad de una salida sobre su lote de origen (con tope
// en la cantidad original), acredita el pool y elimina el registro. Un segundo
// intento sobre la misma salida falla con AlreadyReversedError y no acredita
// doble. Los errores de la reversa siempre se propagan: tragarlos corrompería
// el invariante del ledger.
func (uc *AllocateUseCase) Reverse(ctx context.Context, allocationID string) error {
	if allocationID == "" {
		return domain.ErrInvalidInput
	}

	var events PendingEvents
	err := uc.txRunner.Run(ctx, func(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		allocRepo repository.AllocationRepository,
	) error {
		var err error
		events, err = uc.reverseOneInTx(poolRepo, batchRepo, allocRepo, allocationID)
		return err
	})
	if err != nil {
		return err
	}
	uc.emit(events)
	return nil
}

func (uc *AllocateUseCase) reverseOneInTx(
	poolRepo repository.StockPoolRepository,
	batchRepo repository.SupplyBatchRepository,
	allocRepo repository.AllocationRepository,
	allocationID string,
) (PendingEvents, error) {
	var events PendingEvents

	alloc, err := allocRepo.GetByIDForUpdate(allocationID)
	if err != nil {
		return events, err
	}
	if alloc == nil {
		// El registro ya no existe: la salida ya fue reversada
		return events, &domain.AlreadyReversedError{AllocationID: allocationID}
	}

	pool, err := poolRepo.GetForUpdate(alloc.Category)
	if err != nil {
		return events, err
	}
	if pool == nil {
		return events, domain.ErrNotFound
	}

	batch, err := batchRepo.GetByID(alloc.BatchID)
	if err != nil {
		return events, err
	}
	if batch == nil {
		return events, domain.ErrNotFound
	}

	now := time.Now()
	oldRemaining := batch.Remaining
	restored := decimal.Min(alloc.Quantity, batch.Original.Sub(batch.Remaining))
	batch.Remaining = batch.Remaining.Add(restored)
	if err := batchRepo.UpdateRemaining(batch); err != nil {
		return events, err
	}

	// Se acredita al pool lo mismo que al lote para conservar el invariante
	oldQty := pool.Quantity
	pool.Quantity = pool.Quantity.Add(restored)
	pool.UpdatedAt = now
	if err := poolRepo.Upsert(pool); err != nil {
		return events, err
	}

	if err := allocRepo.Delete(alloc.ID); err != nil {
		return events, err
	}

	events.changes = append(events.changes,
		entity.ChangeRecord{Entity: "supply_batch", EntityID: batch.ID, Field: "remaining",
			Old: oldRemaining.String(), New: batch.Remaining.String(), At: now, Operation: "reverse"},
		entity.ChangeRecord{Entity: "stock_pool", EntityID: pool.Category, Field: "quantity",
			Old: oldQty.String(), New: pool.Quantity.String(), At: now, Operation: "reverse"},
		entity.ChangeRecord{Entity: "allocation", EntityID: alloc.ID, Field: "deleted",
			Old: "false", New: "true", At: now, Operation: "reverse"},
	)
	return events, nil
}

// ReverseByDestinationInTx reversa todas las salidas de un destino con los
// repositorios del caller (misma transacción). Lo usa el motor de pedidos al
// eliminar líneas o cancelar pedidos.
func (uc *AllocateUseCase) ReverseByDestinationInTx(
	poolRepo repository.StockPoolRepository,
	batchRepo repository.SupplyBatchRepository,
	allocRepo repository.AllocationRepository,
	destination string,
) (PendingEvents, error) {
	var events PendingEvents

	allocs, err := allocRepo.ListByDestination(destination)
	if err != nil {
		return events, err
	}
	for _, alloc := range allocs {
		evs, err := uc.reverseOneInTx(poolRepo, batchRepo, allocRepo, alloc.ID)
		if err != nil {
			return events, err
		}
		events.Append(evs)
	}
	return events, nil
}

// Emit publica avisos y auditoría de una transacción ya confirmada.
// Expuesto para los casos de uso que comparten transacción (pedidos).
func (uc *AllocateUseCase) Emit(events PendingEvents) { uc.emit(events) }

func (uc *AllocateUseCase) emit(events PendingEvents) {
	if uc.notifier != nil {
		for _, e := range events.lowStock {
			uc.notifier.LowStock(e)
		}
		for _, e := range events.freshness {
			uc.notifier.Freshness(e)
		}
	}
	if uc.audit != nil && len(events.changes) > 0 {
		uc.audit.Record(events.changes)
	}
}

// PendingEvents acumula avisos y auditoría durante la transacción; se publican
// solo si la transacción confirma.
type PendingEvents struct {
	lowStock  []event.LowStock
	freshness []event.Freshness
	changes   []entity.ChangeRecord
}

func (p *PendingEvents) Append(other PendingEvents) {
	p.lowStock = append(p.lowStock, other.lowStock...)
	p.freshness = append(p.freshness, other.freshness...)
	p.changes = append(p.changes, other.changes...)
}
