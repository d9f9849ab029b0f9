package repository

import (
	"time"

	"github.com/granjapro/avicola-api/internal/domain/entity"
)

// AllocationRepository define el puerto de persistencia para salidas.
// Las salidas son inmutables: solo Create, lectura y Delete (reversa).
type AllocationRepository interface {
	Create(allocation *entity.Allocation) error
	GetByID(id string) (*entity.Allocation, error)
	// GetByIDForUpdate bloquea el registro para la reversa (evita doble reversa concurrente).
	GetByIDForUpdate(id string) (*entity.Allocation, error)
	ListByCategory(category string, from, to *time.Time, limit, offset int) ([]*entity.Allocation, error)
	ListByBatch(batchID string) ([]*entity.Allocation, error)
	// ListByDestination recupera las salidas de un destino (ej. "pedido:<itemID>")
	// para reversarlas al eliminar una línea o cancelar un pedido.
	ListByDestination(destination string) ([]*entity.Allocation, error)
	Delete(id string) error
}
