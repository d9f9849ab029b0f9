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

var (
	_ repository.OrderRepository     = (*OrderRepo)(nil)
	_ repository.OrderItemRepository = (*OrderItemRepo)(nil)
)

const orderColumns = `id, client_name, client_ref, status, total, created_at, updated_at, created_by`

// OrderRepo implementación de OrderRepository sobre PostgreSQL.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

func (r *OrderRepo) Create(o *entity.SalesOrder) error {
	query := `
		INSERT INTO sales_orders (id, client_name, client_ref, status, total, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		o.ID, o.ClientName, o.ClientRef, o.Status, o.Total, o.CreatedAt, o.UpdatedAt, o.CreatedBy)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*entity.SalesOrder, error) {
	var o entity.SalesOrder
	err := row.Scan(&o.ID, &o.ClientName, &o.ClientRef, &o.Status, &o.Total,
		&o.CreatedAt, &o.UpdatedAt, &o.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) GetByID(id string) (*entity.SalesOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM sales_orders WHERE id = $1`
	o, err := scanOrder(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// GetByIDForUpdate bloquea el pedido; nil si no existe. Serializa mutaciones
// concurrentes de líneas y estado del mismo pedido.
func (r *OrderRepo) GetByIDForUpdate(id string) (*entity.SalesOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM sales_orders WHERE id = $1 FOR UPDATE`
	o, err := scanOrder(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isLockNotAvailable(err) {
			return nil, &domain.LockTimeoutError{}
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return o, nil
}

func (r *OrderRepo) Update(o *entity.SalesOrder) error {
	query := `
		UPDATE sales_orders
		SET client_name = $2, client_ref = $3, status = $4, total = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		o.ID, o.ClientName, o.ClientRef, o.Status, o.Total, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista pedidos, filtrables por estado, más recientes primero.
func (r *OrderRepo) List(status string, limit, offset int) ([]*entity.SalesOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM sales_orders`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += ` WHERE status = $1`
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.SalesOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// OrderItemRepo implementación de OrderItemRepository sobre PostgreSQL.
type OrderItemRepo struct {
	q Querier
}

// NewOrderItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderItemRepository(q Querier) *OrderItemRepo {
	return &OrderItemRepo{q: q}
}

const itemColumns = `id, order_id, category, quantity, unit_price, subtotal`

func (r *OrderItemRepo) Create(i *entity.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, category, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		i.ID, i.OrderID, i.Category, i.Quantity, i.UnitPrice, i.Subtotal)
	if err != nil {
		return fmt.Errorf("create order item: %w", err)
	}
	return nil
}

func scanItem(row pgx.Row) (*entity.OrderItem, error) {
	var i entity.OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.Category, &i.Quantity, &i.UnitPrice, &i.Subtotal)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *OrderItemRepo) GetByID(id string) (*entity.OrderItem, error) {
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE id = $1`
	i, err := scanItem(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	return i, nil
}

// ListByOrder lista las líneas de un pedido en orden de creación.
func (r *OrderItemRepo) ListByOrder(orderID string) ([]*entity.OrderItem, error) {
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY id ASC`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	var list []*entity.OrderItem
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		list = append(list, i)
	}
	return list, rows.Err()
}

func (r *OrderItemRepo) Update(i *entity.OrderItem) error {
	query := `UPDATE order_items SET quantity = $2, unit_price = $3, subtotal = $4 WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, i.ID, i.Quantity, i.UnitPrice, i.Subtotal)
	if err != nil {
		return fmt.Errorf("update order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderItemRepo) Delete(id string) error {
	tag, err := r.q.Exec(context.Background(), `DELETE FROM order_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
