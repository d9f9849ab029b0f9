package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pedido de venta. Camino feliz solo hacia adelante:
// PENDIENTE -> CONFIRMADO -> EN_PREPARACION -> LISTO -> ENTREGADO.
// CANCELADO solo es alcanzable desde PENDIENTE o CONFIRMADO.
const (
	OrderStatusPendiente     = "PENDIENTE"
	OrderStatusConfirmado    = "CONFIRMADO"
	OrderStatusEnPreparacion = "EN_PREPARACION"
	OrderStatusListo         = "LISTO"
	OrderStatusEntregado     = "ENTREGADO"
	OrderStatusCancelado     = "CANCELADO"
)

// orderTransitions máquina de estados del pedido.
var orderTransitions = map[string][]string{
	OrderStatusPendiente:     {OrderStatusConfirmado, OrderStatusCancelado},
	OrderStatusConfirmado:    {OrderStatusEnPreparacion, OrderStatusCancelado},
	OrderStatusEnPreparacion: {OrderStatusListo},
	OrderStatusListo:         {OrderStatusEntregado},
	OrderStatusEntregado:     {},
	OrderStatusCancelado:     {},
}

// CanTransition indica si el cambio de estado from -> to está permitido.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidOrderStatus indica si el string es un estado conocido.
func ValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// SalesOrder es un pedido de venta (punto de venta de la granja).
// Invariante: Total == suma de Subtotal de sus líneas no eliminadas; se
// recalcula y persiste en cada mutación de línea, dentro de la misma transacción.
type SalesOrder struct {
	ID         string
	ClientName string
	ClientRef  string // teléfono o documento del cliente
	Status     string
	Total      decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CreatedBy  string // UserID
}

// Mutable indica si el pedido aún admite cambios en sus líneas.
func (o *SalesOrder) Mutable() bool {
	return o.Status == OrderStatusPendiente || o.Status == OrderStatusConfirmado
}
