package entity

import "github.com/shopspring/decimal"

// OrderItem es una línea de un pedido: referencia un pool por categoría.
// Subtotal = Quantity × UnitPrice, calculado al guardar. Al crearse decrementa
// el pool referenciado; al eliminarse lo acredita de vuelta.
type OrderItem struct {
	ID        string
	OrderID   string
	Category  string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// ComputeSubtotal recalcula Subtotal a partir de cantidad y precio unitario.
func (i *OrderItem) ComputeSubtotal() {
	i.Subtotal = i.Quantity.Mul(i.UnitPrice)
}
