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

// historyLimit lotes de historial considerados para el mínimo automático.
const historyLimit = 1000

// PoolUseCase administra el Ledger Store: ingresos (lotes), ajustes y umbral
// mínimo por categoría. Los ingresos crean el pool si no existe (cantidad cero,
// mínimo por defecto) y lo acreditan junto con el lote, en una transacción.
type PoolUseCase struct {
	txRunner  TxRunner
	poolRepo  repository.StockPoolRepository
	batchRepo repository.SupplyBatchRepository
	allocator *AllocateUseCase
	notifier  AlertNotifier
	audit     AuditSink
	cfg       Config
}

// NewPoolUseCase construye el caso de uso. poolRepo y batchRepo son los
// repositorios sin transacción (consultas); las mutaciones pasan por txRunner.
func NewPoolUseCase(
	txRunner TxRunner,
	poolRepo repository.StockPoolRepository,
	batchRepo repository.SupplyBatchRepository,
	allocator *AllocateUseCase,
	notifier AlertNotifier,
	audit AuditSink,
	cfg Config,
) *PoolUseCase {
	return &PoolUseCase{
		txRunner:  txRunner,
		poolRepo:  poolRepo,
		batchRepo: batchRepo,
		allocator: allocator,
		notifier:  notifier,
		audit:     audit,
		cfg:       cfg,
	}
}

// IntakeInput entrada para RegisterIntake.
type IntakeInput struct {
	Category   string
	Kind       string // HUEVO | ALIMENTO
	Quantity   decimal.Decimal
	IntakeDate time.Time
	Expiration *time.Time // solo alimento
	SourceRef  string
	UserID     string
}

// RegisterIntake registra un ingreso: crea el lote, acredita el pool de la
// categoría (creándolo si es el primer ingreso) y, si el pool tiene mínimo
// automático, lo recalcula sobre el historial. Todo en una transacción.
func (uc *PoolUseCase) RegisterIntake(ctx context.Context, in IntakeInput) (*entity.SupplyBatch, error) {
	if in.Category == "" || !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	switch in.Kind {
	case entity.PoolKindHuevo:
		if in.Expiration != nil {
			return nil, domain.ErrInvalidInput
		}
	case entity.PoolKindAlimento:
		// vencimiento opcional; sin él se consume por fecha de ingreso
	default:
		return nil, domain.ErrInvalidInput
	}
	intakeDate := in.IntakeDate
	if intakeDate.IsZero() {
		intakeDate = time.Now()
	}

	var batch *entity.SupplyBatch
	var events PendingEvents
	err := uc.txRunner.Run(ctx, func(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		_ repository.AllocationRepository,
	) error {
		var err error
		batch, events, err = uc.intakeInTx(poolRepo, batchRepo, in, intakeDate)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.emit(events)
	return batch, nil
}

func (uc *PoolUseCase) intakeInTx(
	poolRepo repository.StockPoolRepository,
	batchRepo repository.SupplyBatchRepository,
	in IntakeInput,
	intakeDate time.Time,
) (*entity.SupplyBatch, PendingEvents, error) {
	var events PendingEvents

	pool, err := poolRepo.GetOrCreateForUpdate(in.Category, in.Kind)
	if err != nil {
		return nil, events, err
	}
	if pool.Kind != in.Kind {
		return nil, events, domain.ErrConflict
	}

	now := time.Now()
	batch := &entity.SupplyBatch{
		ID:         uuid.New().String(),
		Category:   in.Category,
		Original:   in.Quantity,
		Remaining:  in.Quantity,
		IntakeDate: intakeDate,
		Expiration: in.Expiration,
		SourceRef:  in.SourceRef,
		CreatedAt:  now,
	}
	if err := batchRepo.Create(batch); err != nil {
		return nil, events, err
	}

	oldQty := pool.Quantity
	pool.Quantity = pool.Quantity.Add(in.Quantity)
	pool.UpdatedAt = now

	if pool.AutoMinimum {
		history, err := batchRepo.ListByCategory(in.Category, historyLimit, 0)
		if err != nil {
			return nil, events, err
		}
		factor := pool.MinimumFactor
		if !factor.GreaterThan(decimal.Zero) {
			factor = uc.cfg.MinimumFactor
		}
		pool.Minimum = ledgerdom.RecomputeMinimum(history, uc.cfg.ThroughputWindowDays, factor, now)
	}
	if err := poolRepo.Upsert(pool); err != nil {
		return nil, events, err
	}

	events.changes = append(events.changes,
		entity.ChangeRecord{Entity: "supply_batch", EntityID: batch.ID, Field: "remaining",
			Old: "", New: batch.Remaining.String(), At: now, Operation: "intake"},
		entity.ChangeRecord{Entity: "stock_pool", EntityID: pool.Category, Field: "quantity",
			Old: oldQty.String(), New: pool.Quantity.String(), At: now, Operation: "intake"},
	)

	// Un crédito también puede dejar al pool en o bajo el mínimo; el aviso
	// depende de la cantidad resultante, no del signo del movimiento.
	if pool.BelowMinimum() {
		events.lowStock = append(events.lowStock, event.LowStock{
			Category: pool.Category,
			Quantity: pool.Quantity,
			Minimum:  pool.Minimum,
			At:       now,
		})
	}
	return batch, events, nil
}

// Adjust aplica un delta (positivo o negativo) a la categoría sin perder el
// invariante de conservación: un delta positivo ingresa un lote de ajuste; un
// delta negativo consume lotes por la misma vía FIFO del Allocator. Falla con
// InsufficientStockError si el resultado quedaría negativo. Si la cantidad
// resultante queda en o bajo el mínimo, emite el aviso de stock bajo.
func (uc *PoolUseCase) Adjust(ctx context.Context, category string, delta decimal.Decimal, reason, userID string) (*entity.StockPool, error) {
	if category == "" || delta.IsZero() {
		return nil, domain.ErrInvalidInput
	}

	var events PendingEvents
	err := uc.txRunner.Run(ctx, func(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		allocRepo repository.AllocationRepository,
	) error {
		pool, err := poolRepo.GetForUpdate(category)
		if err != nil {
			return err
		}
		if pool == nil || !pool.Active {
			return domain.ErrNotFound
		}

		if delta.GreaterThan(decimal.Zero) {
			sourceRef := reason
			if sourceRef == "" {
				sourceRef = "ajuste"
			}
			_, evs, err := uc.intakeInTx(poolRepo, batchRepo, IntakeInput{
				Category:  category,
				Kind:      pool.Kind,
				Quantity:  delta,
				SourceRef: sourceRef,
				UserID:    userID,
			}, time.Now())
			if err != nil {
				return err
			}
			events.Append(evs)
			return nil
		}

		needed := delta.Neg()
		if pool.Quantity.LessThan(needed) {
			return &domain.InsufficientStockError{
				Category:  category,
				Available: pool.Quantity,
				Requested: needed,
			}
		}
		_, evs, err := uc.allocator.AllocateInTx(poolRepo, batchRepo, allocRepo,
			category, needed, "ajuste:"+reason, time.Now(), userID)
		if err != nil {
			return err
		}
		events.Append(evs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.emit(events)
	return uc.poolRepo.Get(category)
}

// RecomputeMinimum recalcula y persiste el umbral mínimo de la categoría como
// factor × ingreso diario promedio sobre la ventana configurada. Función pura
// del historial de lotes; repetirla con el mismo historial da el mismo valor.
func (uc *PoolUseCase) RecomputeMinimum(ctx context.Context, category string) (decimal.Decimal, error) {
	if category == "" {
		return decimal.Zero, domain.ErrInvalidInput
	}
	var newMinimum decimal.Decimal
	err := uc.txRunner.Run(ctx, func(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		_ repository.AllocationRepository,
	) error {
		pool, err := poolRepo.GetForUpdate(category)
		if err != nil {
			return err
		}
		if pool == nil {
			return domain.ErrNotFound
		}
		history, err := batchRepo.ListByCategory(category, historyLimit, 0)
		if err != nil {
			return err
		}
		factor := pool.MinimumFactor
		if !factor.GreaterThan(decimal.Zero) {
			factor = uc.cfg.MinimumFactor
		}
		newMinimum = ledgerdom.RecomputeMinimum(history, uc.cfg.ThroughputWindowDays, factor, time.Now())
		pool.Minimum = newMinimum
		pool.UpdatedAt = time.Now()
		return poolRepo.Upsert(pool)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newMinimum, nil
}

// DeactivatePool desactiva un pool. Los pools nunca se borran físicamente:
// la desactivación los saca de los listados y rechaza nuevos despachos.
func (uc *PoolUseCase) DeactivatePool(ctx context.Context, category string) error {
	if category == "" {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.Run(ctx, func(
		poolRepo repository.StockPoolRepository,
		_ repository.SupplyBatchRepository,
		_ repository.AllocationRepository,
	) error {
		pool, err := poolRepo.GetForUpdate(category)
		if err != nil {
			return err
		}
		if pool == nil {
			return domain.ErrNotFound
		}
		return poolRepo.Deactivate(category)
	})
}

// GetPool consulta un pool por categoría (solo lectura).
func (uc *PoolUseCase) GetPool(ctx context.Context, category string) (*entity.StockPool, error) {
	pool, err := uc.poolRepo.Get(category)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, domain.ErrNotFound
	}
	return pool, nil
}

// ListPools lista los pools (solo lectura).
func (uc *PoolUseCase) ListPools(ctx context.Context, onlyActive bool) ([]*entity.StockPool, error) {
	return uc.poolRepo.List(onlyActive)
}

// ListBatches lista los lotes de una categoría, incluidos los agotados.
func (uc *PoolUseCase) ListBatches(ctx context.Context, category string, limit, offset int) ([]*entity.SupplyBatch, error) {
	return uc.batchRepo.ListByCategory(category, limit, offset)
}

func (uc *PoolUseCase) emit(events PendingEvents) {
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

