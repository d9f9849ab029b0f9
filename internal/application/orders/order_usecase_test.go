package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/granjapro/avicola-api/internal/application/ledger"
	"github.com/granjapro/avicola-api/internal/application/orders"
	"github.com/granjapro/avicola-api/internal/domain"
	"github.com/granjapro/avicola-api/internal/domain/entity"
	"github.com/granjapro/avicola-api/internal/domain/event"
	"github.com/granjapro/avicola-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type nopNotifier struct{}

func (nopNotifier) LowStock(event.LowStock)   {}
func (nopNotifier) Freshness(event.Freshness) {}

type nopAudit struct{}

func (nopAudit) Record([]entity.ChangeRecord) {}

type fixture struct {
	store  *memory.Store
	pools  *ledger.PoolUseCase
	orders *orders.OrderUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(time.Second)
	cfg := ledger.Config{StalenessDays: 15, MinimumFactor: decimal.NewFromInt(2), ThroughputWindowDays: 30}
	allocate := ledger.NewAllocateUseCase(store, nopNotifier{}, nopAudit{}, cfg)
	pools := ledger.NewPoolUseCase(store, store.Pools(), store.Batches(), allocate, nopNotifier{}, nopAudit{}, cfg)
	orderUC := orders.NewOrderUseCase(store, allocate, store.Orders(), store.Items())
	return &fixture{store: store, pools: pools, orders: orderUC}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) seedPool(t *testing.T, category string, qty string) {
	t.Helper()
	_, err := f.pools.RegisterIntake(context.Background(), ledger.IntakeInput{
		Category: category,
		Kind:     entity.PoolKindHuevo,
		Quantity: dec(qty),
		UserID:   "u1",
	})
	require.NoError(t, err)
}

func (f *fixture) poolQty(t *testing.T, category string) decimal.Decimal {
	t.Helper()
	pool, err := f.pools.GetPool(context.Background(), category)
	require.NoError(t, err)
	return pool.Quantity
}

func (f *fixture) newOrder(t *testing.T) *entity.SalesOrder {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), "Distribuidora El Galpón", "3001112233", "u1")
	require.NoError(t, err)
	return order
}

func (f *fixture) total(t *testing.T, orderID string) decimal.Decimal {
	t.Helper()
	order, _, err := f.orders.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	return order.Total
}

// ──────────────────────────────────────────────────────────────────────────────
// Total del pedido
// ──────────────────────────────────────────────────────────────────────────────

// Escenario del contrato de totales: agregar 5 × 5.00 deja 25.00; agregar
// 2 × 2.00 sube a 29.00; eliminar la primera línea baja a 4.00. El stock
// acompaña cada mutación.
func TestOrder_TotalSigueALasLineas(t *testing.T) {
	f := newFixture(t)
	f.seedPool(t, "HUEVO-AA", "100")
	f.seedPool(t, "HUEVO-B", "100")
	order := f.newOrder(t)

	itemA, err := f.orders.AddItem(context.Background(), order.ID, "HUEVO-AA", dec("5"), dec("5.00"), "u1")
	require.NoError(t, err)
	assert.True(t, itemA.Subtotal.Equal(dec("25.00")))
	assert.True(t, f.total(t, order.ID).Equal(dec("25.00")))
	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec("95")), "agregar la línea reserva stock")

	_, err = f.orders.AddItem(context.Background(), order.ID, "HUEVO-B", dec("2"), dec("2.00"), "u1")
	require.NoError(t, err)
	assert.True(t, f.total(t, order.ID).Equal(dec("29.00")))

	require.NoError(t, f.orders.RemoveItem(context.Background(), order.ID, itemA.ID))
	assert.True(t, f.total(t, order.ID).Equal(dec("4.00")))
	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec("100")), "eliminar la línea restituye el stock")
}

func TestOrder_UpdateItemRecalculaSubtotalYStock(t *testing.T) {
	f := newFixture(t)
	f.seedPool(t, "HUEVO-AA", "100")
	order := f.newOrder(t)

	item, err := f.orders.AddItem(context.Background(), order.ID, "HUEVO-AA", dec("10"), dec("1.50"), "u1")
	require.NoError(t, err)
	require.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec("90")))

	updated, err := f.orders.UpdateItem(context.Background(), order.ID, item.ID, dec("4"), "u1")
	require.NoError(t, err)
	assert.True(t, updated.Subtotal.Equal(dec("6.00")))
	assert.True(t, f.total(t, order.ID).Equal(dec("6.00")))
	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec("96")), "bajar la cantidad libera la diferencia")
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock insuficiente
// ──────────────────────────────────────────────────────────────────────────────

func TestOrder_AddItemSinStockNoMutaNada(t *testing.T) {
	f := newFixture(t)
	f.seedPool(t, "HUEVO-AA", "10")
	order := f.newOrder(t)

	_, err := f.orders.AddItem(context.Background(), order.ID, "HUEVO-AA", dec("15"), dec("1.00"), "u1")
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, stockErr.Available.Equal(dec("10")))
	assert.True(t, stockErr.Requested.Equal(dec("15")))

	assert.True(t, f.total(t, order.ID).Equal(decimal.Zero), "el pedido no debe cambiar")
	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec("10")), "el pool no debe cambiar")
	_, items, err := f.orders.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Empty(t, items, "la línea no debe quedar creada")
}

func TestOrder_UpdateItemSinStockParaElDelta(t *testing.T) {
	f := newFixture(t)
	f.seedPool(t, "HUEVO-AA", "10")
	order := f.newOrder(t)

	item, err := f.orders.AddItem(context.Background(), order.ID, "HUEVO-AA", dec("8"), dec("1.00"), "u1")
	require.NoError(t, err)

	// Disponible 2; subir de 8 a 12 pide un delta de 4
	_, err = f.orders.UpdateItem(context.Background(), order.ID, item.ID, dec("12"), "u1")
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec("2")), "el fallo no debe mover stock")
	assert.True(t, f.total(t, order.ID).Equal(dec("8.00")), "la línea conserva su cantidad anterior")
}

// ──────────────────────────────────────────────────────────────────────────────
// Máquina de estados
// ──────────────────────────────────────────────────────────────────────────────

func TestOrder_CaminoFelizDeEstados(t *testing.T) {
	f := newFixture(t)
	f.seedPool(t, "HUEVO-AA", "50")
	order := f.newOrder(t)
	_, err := f.orders.AddItem(context.Background(), order.ID, "HUEVO-AA", dec("10"), dec("1.00"), "u1")
	require.NoError(t, err)

	for _, status := range []string{
		entity.OrderStatusConfirmado,
		entity.OrderStatusEnPreparacion,
		entity.OrderStatusListo,
		entity.OrderStatusEntregado,
	} {
		updated, err := f.orders.Transition(context.Background(), order.ID, status)
		require.NoError(t, err, "transición a %s", status)
		assert.Equal(t, status, updated.Status)
	}

	// ENTREGADO no mueve stock: quedó descontado al agregar la línea
	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec("40")))
}

func TestOrder_TransicionInvalida(t *testing.T) {
	f := newFixture(t)
	order := f.newOrder(t)

	_, err := f.orders.Transition(context.Background(), order.ID, entity.OrderStatusEntregado)
	var transErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transErr, "PENDIENTE no salta directo a ENTREGADO")
	assert.Equal(t, entity.OrderStatusPendiente, transErr.From)
	assert.Equal(t, entity.OrderStatusEntregado, transErr.To)
}

func TestOrder_CancelarDesdePreparacionNoEstaPermitido(t *testing.T) {
	f := newFixture(t)
	f.seedPool(t, "HUEVO-AA", "50")
	order := f.newOrder(t)
	_, err := f.orders.AddItem(context.Background(), order.ID, "HUEVO-AA", dec("10"), dec("1.00"), "u1")
	require.NoError(t, err)

	_, err = f.orders.Transition(context.Background(), order.ID, entity.OrderStatusConfirmado)
	require.NoError(t, err)
	_, err = f.orders.Transition(context.Background(), order.ID, entity.OrderStatusEnPreparacion)
	require.NoError(t, err)

	_, err = f.orders.Transition(context.Background(), order.ID, entity.OrderStatusCancelado)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestOrder_CancelarRestituyeElStock(t *testing.T) {
	f := newFixture(t)
	f.seedPool(t, "HUEVO-AA", "50")
	order := f.newOrder(t)
	_, err := f.orders.AddItem(context.Background(), order.ID, "HUEVO-AA", dec("10"), dec("1.00"), "u1")
	require.NoError(t, err)
	_, err = f.orders.AddItem(context.Background(), order.ID, "HUEVO-AA", dec("5"), dec("1.00"), "u1")
	require.NoError(t, err)
	require.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec("35")))

	updated, err := f.orders.Transition(context.Background(), order.ID, entity.OrderStatusCancelado)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelado, updated.Status)
	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec("50")),
		"cancelar libera la reserva de todas las líneas")
}

// ──────────────────────────────────────────────────────────────────────────────
// Pedidos no mutables
// ──────────────────────────────────────────────────────────────────────────────

func TestOrder_NoAdmiteLineasDespuesDePreparacion(t *testing.T) {
	f := newFixture(t)
	f.seedPool(t, "HUEVO-AA", "50")
	order := f.newOrder(t)
	_, err := f.orders.AddItem(context.Background(), order.ID, "HUEVO-AA", dec("10"), dec("1.00"), "u1")
	require.NoError(t, err)

	_, err = f.orders.Transition(context.Background(), order.ID, entity.OrderStatusConfirmado)
	require.NoError(t, err)
	_, err = f.orders.Transition(context.Background(), order.ID, entity.OrderStatusEnPreparacion)
	require.NoError(t, err)

	_, err = f.orders.AddItem(context.Background(), order.ID, "HUEVO-AA", dec("1"), dec("1.00"), "u1")
	assert.ErrorIs(t, err, domain.ErrConflict, "en preparación las líneas quedan congeladas")
}

func TestOrder_PedidoInexistente(t *testing.T) {
	f := newFixture(t)
	f.seedPool(t, "HUEVO-AA", "50")

	_, err := f.orders.AddItem(context.Background(), "no-existe", "HUEVO-AA", dec("1"), dec("1.00"), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
