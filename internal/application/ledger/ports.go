package ledger

import (
	"context"

	"github.com/granjapro/avicola-api/internal/domain/entity"
	"github.com/granjapro/avicola-api/internal/domain/event"
	"github.com/granjapro/avicola-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// inventario: cualquier error dentro de fn revierte todos los decrementos
// parciales (la frontera transaccional abarca toda la asignación).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		allocRepo repository.AllocationRepository,
	) error) error
}

// AlertNotifier recibe los avisos del núcleo (colaborador externo de alertas).
// El núcleo no persiste ni renderiza alertas; las emite tras confirmar la
// transacción que las originó.
type AlertNotifier interface {
	LowStock(e event.LowStock)
	Freshness(e event.Freshness)
}

// AuditSink recibe los registros de cambio tipados de cada operación mutadora.
type AuditSink interface {
	Record(changes []entity.ChangeRecord)
}
