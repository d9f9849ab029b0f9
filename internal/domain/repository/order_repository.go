package repository

import "github.com/granjapro/avicola-api/internal/domain/entity"

// OrderRepository define el puerto de persistencia para pedidos de venta.
type OrderRepository interface {
	Create(order *entity.SalesOrder) error
	GetByID(id string) (*entity.SalesOrder, error)
	// GetByIDForUpdate bloquea el pedido mientras se mutan sus líneas o estado.
	GetByIDForUpdate(id string) (*entity.SalesOrder, error)
	Update(order *entity.SalesOrder) error
	List(status string, limit, offset int) ([]*entity.SalesOrder, error)
}

// OrderItemRepository define el puerto de persistencia para líneas de pedido.
type OrderItemRepository interface {
	Create(item *entity.OrderItem) error
	GetByID(id string) (*entity.OrderItem, error)
	ListByOrder(orderID string) ([]*entity.OrderItem, error)
	Update(item *entity.OrderItem) error
	Delete(id string) error
}
