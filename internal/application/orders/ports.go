package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/granjapro/avicola-api/internal/application/ledger"
	"github.com/granjapro/avicola-api/internal/domain/entity"
	"github.com/granjapro/avicola-api/internal/domain/repository"
)

// OrderTxRunner ejecuta una función dentro de una transacción con los
// repositorios de pedidos e inventario atados a esa tx. Cada mutación de línea
// es una unidad de trabajo atómica: línea, total del pedido y stock del pool
// confirman o revierten juntos.
type OrderTxRunner interface {
	RunOrders(ctx context.Context, fn func(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		allocRepo repository.AllocationRepository,
		orderRepo repository.OrderRepository,
		itemRepo repository.OrderItemRepository,
	) error) error
}

// LedgerService es la vía única de mutación de stock que usa el motor de
// pedidos: descuenta consumiendo lotes FIFO y restaura reversando salidas,
// con los repositorios de la transacción del caller. La implementa
// ledger.AllocateUseCase.
type LedgerService interface {
	AllocateInTx(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		allocRepo repository.AllocationRepository,
		category string,
		quantity decimal.Decimal,
		destination string,
		asOf time.Time,
		userID string,
	) ([]*entity.Allocation, ledger.PendingEvents, error)
	ReverseByDestinationInTx(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		allocRepo repository.AllocationRepository,
		destination string,
	) (ledger.PendingEvents, error)
	Emit(events ledger.PendingEvents)
}
