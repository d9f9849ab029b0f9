package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/granjapro/avicola-api/internal/domain"
	"github.com/granjapro/avicola-api/internal/domain/entity"
	"github.com/granjapro/avicola-api/internal/domain/repository"
)

var _ repository.StockPoolRepository = (*StockPoolRepo)(nil)

const poolColumns = `category, kind, quantity, minimum, auto_minimum, minimum_factor, active, created_at, updated_at`

// StockPoolRepo implementación de StockPoolRepository sobre PostgreSQL (usable con pool o tx).
type StockPoolRepo struct {
	q Querier
}

// NewStockPoolRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockPoolRepository(q Querier) *StockPoolRepo {
	return &StockPoolRepo{q: q}
}

func scanPool(row pgx.Row) (*entity.StockPool, error) {
	var p entity.StockPool
	err := row.Scan(&p.Category, &p.Kind, &p.Quantity, &p.Minimum, &p.AutoMinimum,
		&p.MinimumFactor, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get obtiene el pool de una categoría; nil si no existe.
func (r *StockPoolRepo) Get(category string) (*entity.StockPool, error) {
	query := `SELECT ` + poolColumns + ` FROM stock_pools WHERE category = $1`
	p, err := scanPool(r.q.QueryRow(context.Background(), query, category))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pool: %w", err)
	}
	return p, nil
}

// GetForUpdate obtiene el pool y bloquea la fila (SELECT FOR UPDATE). Con el
// lock_timeout de la transacción vencido retorna LockTimeoutError.
func (r *StockPoolRepo) GetForUpdate(category string) (*entity.StockPool, error) {
	query := `SELECT ` + poolColumns + ` FROM stock_pools WHERE category = $1 FOR UPDATE`
	p, err := scanPool(r.q.QueryRow(context.Background(), query, category))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isLockNotAvailable(err) {
			return nil, &domain.LockTimeoutError{Category: category}
		}
		return nil, fmt.Errorf("get pool for update: %w", err)
	}
	return p, nil
}

// GetOrCreateForUpdate como GetForUpdate, creando el pool si no existe
// (cantidad cero, mínimo automático). El INSERT ... ON CONFLICT DO NOTHING
// seguido del SELECT FOR UPDATE tolera la creación concurrente.
func (r *StockPoolRepo) GetOrCreateForUpdate(category, kind string) (*entity.StockPool, error) {
	insert := `
		INSERT INTO stock_pools (category, kind, quantity, minimum, auto_minimum, minimum_factor, active, created_at, updated_at)
		VALUES ($1, $2, 0, 0, true, 0, true, now(), now())
		ON CONFLICT (category) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), insert, category, kind); err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return r.GetForUpdate(category)
}

// Upsert inserta o actualiza el pool por categoría.
func (r *StockPoolRepo) Upsert(pool *entity.StockPool) error {
	query := `
		INSERT INTO stock_pools (category, kind, quantity, minimum, auto_minimum, minimum_factor, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (category)
		DO UPDATE SET quantity = EXCLUDED.quantity, minimum = EXCLUDED.minimum,
			auto_minimum = EXCLUDED.auto_minimum, minimum_factor = EXCLUDED.minimum_factor,
			active = EXCLUDED.active, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		pool.Category, pool.Kind, pool.Quantity, pool.Minimum, pool.AutoMinimum,
		pool.MinimumFactor, pool.Active)
	if err != nil {
		return fmt.Errorf("upsert pool: %w", err)
	}
	return nil
}

// List lista los pools, opcionalmente solo los activos.
func (r *StockPoolRepo) List(onlyActive bool) ([]*entity.StockPool, error) {
	query := `SELECT ` + poolColumns + ` FROM stock_pools`
	if onlyActive {
		query += ` WHERE active`
	}
	query += ` ORDER BY category`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockPool
	for rows.Next() {
		var p entity.StockPool
		if err := rows.Scan(&p.Category, &p.Kind, &p.Quantity, &p.Minimum, &p.AutoMinimum,
			&p.MinimumFactor, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// Deactivate marca el pool como inactivo (nunca se borra físicamente).
func (r *StockPoolRepo) Deactivate(category string) error {
	query := `UPDATE stock_pools SET active = false, updated_at = now() WHERE category = $1`
	_, err := r.q.Exec(context.Background(), query, category)
	if err != nil {
		return fmt.Errorf("deactivate pool: %w", err)
	}
	return nil
}
