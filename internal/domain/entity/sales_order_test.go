package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/granjapro/avicola-api/internal/domain/entity"
)

// Camino feliz solo hacia adelante; CANCELADO solo desde PENDIENTE o CONFIRMADO.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{entity.OrderStatusPendiente, entity.OrderStatusConfirmado, true},
		{entity.OrderStatusConfirmado, entity.OrderStatusEnPreparacion, true},
		{entity.OrderStatusEnPreparacion, entity.OrderStatusListo, true},
		{entity.OrderStatusListo, entity.OrderStatusEntregado, true},
		{entity.OrderStatusPendiente, entity.OrderStatusCancelado, true},
		{entity.OrderStatusConfirmado, entity.OrderStatusCancelado, true},

		// Sin saltos ni retrocesos
		{entity.OrderStatusPendiente, entity.OrderStatusEnPreparacion, false},
		{entity.OrderStatusConfirmado, entity.OrderStatusPendiente, false},
		{entity.OrderStatusEnPreparacion, entity.OrderStatusCancelado, false},
		{entity.OrderStatusListo, entity.OrderStatusCancelado, false},
		{entity.OrderStatusEntregado, entity.OrderStatusCancelado, false},
		{entity.OrderStatusCancelado, entity.OrderStatusPendiente, false},
		{entity.OrderStatusEntregado, entity.OrderStatusEntregado, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, entity.CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestMutable(t *testing.T) {
	o := &entity.SalesOrder{Status: entity.OrderStatusPendiente}
	assert.True(t, o.Mutable())
	o.Status = entity.OrderStatusConfirmado
	assert.True(t, o.Mutable())
	o.Status = entity.OrderStatusEnPreparacion
	assert.False(t, o.Mutable())
}
