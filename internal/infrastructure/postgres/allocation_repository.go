package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/granjapro/avicola-api/internal/domain"
	"github.com/granjapro/avicola-api/internal/domain/entity"
	"github.com/granjapro/avicola-api/internal/domain/repository"
)

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

const allocationColumns = `id, batch_id, category, quantity, destination, dispatch_date, stale, created_at, created_by`

// AllocationRepo implementación de AllocationRepository sobre PostgreSQL.
type AllocationRepo struct {
	q Querier
}

// NewAllocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAllocationRepository(q Querier) *AllocationRepo {
	return &AllocationRepo{q: q}
}

// Create persiste una salida.
func (r *AllocationRepo) Create(a *entity.Allocation) error {
	query := `
		INSERT INTO allocations (id, batch_id, category, quantity, destination, dispatch_date, stale, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		a.ID, a.BatchID, a.Category, a.Quantity, a.Destination,
		a.DispatchDate, a.Stale, a.CreatedAt, a.CreatedBy)
	if err != nil {
		return fmt.Errorf("create allocation: %w", err)
	}
	return nil
}

func scanAllocation(row pgx.Row) (*entity.Allocation, error) {
	var a entity.Allocation
	err := row.Scan(&a.ID, &a.BatchID, &a.Category, &a.Quantity, &a.Destination,
		&a.DispatchDate, &a.Stale, &a.CreatedAt, &a.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID obtiene una salida por ID; nil si no existe (o ya fue reversada).
func (r *AllocationRepo) GetByID(id string) (*entity.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = $1`
	a, err := scanAllocation(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get allocation: %w", err)
	}
	return a, nil
}

// GetByIDForUpdate bloquea la salida; nil si no existe. El bloqueo serializa
// reversas concurrentes del mismo registro.
func (r *AllocationRepo) GetByIDForUpdate(id string) (*entity.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = $1 FOR UPDATE`
	a, err := scanAllocation(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isLockNotAvailable(err) {
			return nil, &domain.LockTimeoutError{}
		}
		return nil, fmt.Errorf("lock allocation: %w", err)
	}
	return a, nil
}

func (r *AllocationRepo) queryList(query string, args ...any) ([]*entity.Allocation, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ListByCategory lista las salidas de una categoría, filtrables por rango de
// fecha de despacho, más recientes primero.
func (r *AllocationRepo) ListByCategory(category string, from, to *time.Time, limit, offset int) ([]*entity.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE category = $1`
	args := []any{category}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND dispatch_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND dispatch_date <= $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY dispatch_date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return r.queryList(query, args...)
}

// ListByBatch lista las salidas de un lote, en orden de creación.
func (r *AllocationRepo) ListByBatch(batchID string) ([]*entity.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE batch_id = $1 ORDER BY created_at ASC`
	return r.queryList(query, batchID)
}

// ListByDestination lista las salidas de un destino, en orden de creación.
func (r *AllocationRepo) ListByDestination(destination string) ([]*entity.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE destination = $1 ORDER BY created_at ASC`
	return r.queryList(query, destination)
}

// Delete elimina el registro de salida (reversa).
func (r *AllocationRepo) Delete(id string) error {
	tag, err := r.q.Exec(context.Background(), `DELETE FROM allocations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
