package repository

import "github.com/granjapro/avicola-api/internal/domain/entity"

// SupplyBatchRepository define el puerto de persistencia para lotes de ingreso.
type SupplyBatchRepository interface {
	Create(batch *entity.SupplyBatch) error
	GetByID(id string) (*entity.SupplyBatch, error)
	// ListAvailableForUpdate devuelve los lotes con remanente > 0 de la
	// categoría, bloqueados (FOR UPDATE), en el orden de consumo: fecha de
	// ingreso ascendente para HUEVO, vencimiento ascendente para ALIMENTO,
	// con la secuencia de inserción como desempate determinista.
	ListAvailableForUpdate(category, kind string) ([]*entity.SupplyBatch, error)
	// ListByCategory incluye lotes agotados; historial para mínimos y reportes.
	ListByCategory(category string, limit, offset int) ([]*entity.SupplyBatch, error)
	UpdateRemaining(batch *entity.SupplyBatch) error
}
