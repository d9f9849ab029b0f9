package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/granjapro/avicola-api/internal/application/ledger"
	"github.com/granjapro/avicola-api/internal/application/orders"
	"github.com/granjapro/avicola-api/internal/domain/repository"
)

// Ensure TxRunner implements ledger.TxRunner and orders.OrderTxRunner.
var _ ledger.TxRunner = (*TxRunner)(nil)
var _ orders.OrderTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Fija lock_timeout por transacción: un SELECT FOR UPDATE que no obtenga el
// bloqueo dentro del plazo falla con 55P03, que los repositorios mapean a
// LockTimeoutError (fallar rápido en vez de bloquear indefinido).
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool y la espera máxima por bloqueos.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	poolRepo repository.StockPoolRepository,
	batchRepo repository.SupplyBatchRepository,
	allocRepo repository.AllocationRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.setLockTimeout(ctx, tx); err != nil {
		return err
	}

	if err := fn(NewStockPoolRepository(tx), NewSupplyBatchRepository(tx), NewAllocationRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunOrders inicia una transacción con los repos de pedidos e inventario
// (mutaciones de líneas: línea, total y stock confirman o revierten juntos).
func (r *TxRunner) RunOrders(ctx context.Context, fn func(
	poolRepo repository.StockPoolRepository,
	batchRepo repository.SupplyBatchRepository,
	allocRepo repository.AllocationRepository,
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.setLockTimeout(ctx, tx); err != nil {
		return err
	}

	if err := fn(
		NewStockPoolRepository(tx),
		NewSupplyBatchRepository(tx),
		NewAllocationRepository(tx),
		NewOrderRepository(tx),
		NewOrderItemRepository(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *TxRunner) setLockTimeout(ctx context.Context, q Querier) error {
	if r.lockTimeout <= 0 {
		return nil
	}
	// SET LOCAL aplica solo a la transacción actual
	_, err := q.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}
	return nil
}
