package repository

import "github.com/granjapro/avicola-api/internal/domain/entity"

// StockPoolRepository define el puerto para consultar/actualizar pools de stock
// por categoría. Las mutaciones se usan dentro de transacciones para garantizar
// consistencia con los lotes.
type StockPoolRepository interface {
	Get(category string) (*entity.StockPool, error)
	// GetForUpdate bloquea la fila del pool (SELECT FOR UPDATE con espera
	// acotada). Con contención devuelve LockTimeoutError, no bloquea indefinido.
	GetForUpdate(category string) (*entity.StockPool, error)
	// GetOrCreateForUpdate como GetForUpdate pero crea el pool (cantidad cero,
	// mínimo por defecto) si la categoría no existe aún.
	GetOrCreateForUpdate(category, kind string) (*entity.StockPool, error)
	Upsert(pool *entity.StockPool) error
	List(onlyActive bool) ([]*entity.StockPool, error)
	// Deactivate marca el pool como inactivo (nunca se borra físicamente).
	Deactivate(category string) error
}
