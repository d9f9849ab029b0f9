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

var _ repository.SupplyBatchRepository = (*SupplyBatchRepo)(nil)

const batchColumns = `id, category, original, remaining, intake_date, expiration, source_ref, seq, created_at`

// SupplyBatchRepo implementación de SupplyBatchRepository sobre PostgreSQL (usable con pool o tx).
type SupplyBatchRepo struct {
	q Querier
}

// NewSupplyBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSupplyBatchRepository(q Querier) *SupplyBatchRepo {
	return &SupplyBatchRepo{q: q}
}

// Create persiste un lote. seq lo asigna la secuencia de la tabla (BIGSERIAL)
// y se lee de vuelta: es el desempate determinista del orden FIFO.
func (r *SupplyBatchRepo) Create(batch *entity.SupplyBatch) error {
	query := `
		INSERT INTO supply_batches (id, category, original, remaining, intake_date, expiration, source_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`
	sourceRef := (*string)(nil)
	if batch.SourceRef != "" {
		sourceRef = &batch.SourceRef
	}
	err := r.q.QueryRow(context.Background(), query,
		batch.ID, batch.Category, batch.Original, batch.Remaining,
		batch.IntakeDate, batch.Expiration, sourceRef, batch.CreatedAt,
	).Scan(&batch.Seq)
	if err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

func scanBatch(row pgx.Row) (*entity.SupplyBatch, error) {
	var b entity.SupplyBatch
	var sourceRef *string
	err := row.Scan(&b.ID, &b.Category, &b.Original, &b.Remaining, &b.IntakeDate,
		&b.Expiration, &sourceRef, &b.Seq, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sourceRef != nil {
		b.SourceRef = *sourceRef
	}
	return &b, nil
}

// GetByID obtiene un lote por ID; nil si no existe.
func (r *SupplyBatchRepo) GetByID(id string) (*entity.SupplyBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM supply_batches WHERE id = $1`
	b, err := scanBatch(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// ListAvailableForUpdate devuelve los lotes con remanente > 0 de la categoría,
// bloqueados, en el orden de consumo: HUEVO por fecha de ingreso, ALIMENTO por
// vencimiento (sin vencimiento cae a fecha de ingreso), con seq como desempate.
func (r *SupplyBatchRepo) ListAvailableForUpdate(category, kind string) ([]*entity.SupplyBatch, error) {
	orderBy := `intake_date ASC, seq ASC`
	if kind == entity.PoolKindAlimento {
		orderBy = `COALESCE(expiration, intake_date) ASC, seq ASC`
	}
	query := `SELECT ` + batchColumns + `
		FROM supply_batches WHERE category = $1 AND remaining > 0
		ORDER BY ` + orderBy + `
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, category)
	if err != nil {
		if isLockNotAvailable(err) {
			return nil, &domain.LockTimeoutError{Category: category}
		}
		return nil, fmt.Errorf("list available batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.SupplyBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		if isLockNotAvailable(err) {
			return nil, &domain.LockTimeoutError{Category: category}
		}
		return nil, err
	}
	return list, nil
}

// ListByCategory lista los lotes de una categoría (incluye agotados), más recientes primero.
func (r *SupplyBatchRepo) ListByCategory(category string, limit, offset int) ([]*entity.SupplyBatch, error) {
	query := `SELECT ` + batchColumns + `
		FROM supply_batches WHERE category = $1
		ORDER BY intake_date DESC, seq DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.SupplyBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// UpdateRemaining persiste el remanente de un lote.
func (r *SupplyBatchRepo) UpdateRemaining(batch *entity.SupplyBatch) error {
	query := `UPDATE supply_batches SET remaining = $2 WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, batch.ID, batch.Remaining)
	if err != nil {
		return fmt.Errorf("update batch remaining: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
