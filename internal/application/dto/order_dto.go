package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	ClientName string `json:"client_name"`
	ClientRef  string `json:"client_ref,omitempty"`
}

// AddItemRequest body para POST /api/orders/:id/items.
type AddItemRequest struct {
	Category  string          `json:"category"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// UpdateItemRequest body para PUT /api/orders/:id/items/:itemID.
type UpdateItemRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// TransitionRequest body para POST /api/orders/:id/status.
type TransitionRequest struct {
	Status string `json:"status"`
}

// OrderItemResponse una línea de pedido.
type OrderItemResponse struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderResponse pedido con sus líneas y total derivado.
type OrderResponse struct {
	ID         string              `json:"id"`
	ClientName string              `json:"client_name"`
	ClientRef  string              `json:"client_ref,omitempty"`
	Status     string              `json:"status"`
	Total      decimal.Decimal     `json:"total"`
	Items      []OrderItemResponse `json:"items,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}
