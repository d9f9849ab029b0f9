package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/granjapro/avicola-api/internal/domain"
	"github.com/granjapro/avicola-api/internal/domain/entity"
	"github.com/granjapro/avicola-api/internal/domain/repository"
	"github.com/granjapro/avicola-api/internal/infrastructure/memory"
)

func seedPool(t *testing.T, s *memory.Store, category string, qty int64) {
	t.Helper()
	err := s.Run(context.Background(), func(
		pools repository.StockPoolRepository,
		batches repository.SupplyBatchRepository,
		_ repository.AllocationRepository,
	) error {
		pool, err := pools.GetOrCreateForUpdate(category, entity.PoolKindHuevo)
		if err != nil {
			return err
		}
		pool.Quantity = decimal.NewFromInt(qty)
		return pools.Upsert(pool)
	})
	require.NoError(t, err)
}

// Un error dentro de la transacción descarta todas las escrituras del clon.
func TestStore_RollbackDescartaEscrituras(t *testing.T) {
	s := memory.NewStore(time.Second)
	seedPool(t, s, "HUEVO-AA", 100)

	sentinel := domain.ErrConflict
	err := s.Run(context.Background(), func(
		pools repository.StockPoolRepository,
		batches repository.SupplyBatchRepository,
		_ repository.AllocationRepository,
	) error {
		pool, err := pools.GetForUpdate("HUEVO-AA")
		require.NoError(t, err)
		pool.Quantity = decimal.NewFromInt(7)
		require.NoError(t, pools.Upsert(pool))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	got, err := s.Pools().Get("HUEVO-AA")
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(100)),
		"la transacción fallida no debe dejar rastro")
}

// Una transacción confirmada queda visible fuera de ella.
func TestStore_CommitPublicaEscrituras(t *testing.T) {
	s := memory.NewStore(time.Second)
	seedPool(t, s, "HUEVO-AA", 100)

	got, err := s.Pools().Get("HUEVO-AA")
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(100)))
}

// El bloqueo del almacén es exclusivo: una transacción anidada no puede
// tomarlo y falla con LockTimeoutError dentro del plazo configurado.
func TestStore_TransaccionAnidadaAgotaElBloqueo(t *testing.T) {
	s := memory.NewStore(50 * time.Millisecond)
	seedPool(t, s, "HUEVO-AA", 100)

	err := s.Run(context.Background(), func(
		pools repository.StockPoolRepository,
		batches repository.SupplyBatchRepository,
		allocs repository.AllocationRepository,
	) error {
		// Intento de segunda transacción mientras la primera sigue abierta
		return s.Run(context.Background(), func(
			_ repository.StockPoolRepository,
			_ repository.SupplyBatchRepository,
			_ repository.AllocationRepository,
		) error {
			return nil
		})
	})
	assert.ErrorIs(t, err, domain.ErrLockTimeout)
}
