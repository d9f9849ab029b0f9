package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/granjapro/avicola-api/internal/application/ledger"
	"github.com/granjapro/avicola-api/internal/domain"
	"github.com/granjapro/avicola-api/internal/domain/entity"
	"github.com/granjapro/avicola-api/internal/domain/repository"
)

// OrderUseCase mantiene sincronizados el total del pedido con sus líneas y el
// stock de los pools con el ciclo de vida de las líneas, en una unidad de
// trabajo atómica por mutación.
//
// Política de stock (uniforme en todos los caminos): reserva al crear la
// línea, liberación al cancelar. Agregar una línea descuenta stock vía el
// Allocator (lotes FIFO, destino "pedido:<itemID>"); cancelar el pedido
// reversa las salidas de todas sus líneas; ENTREGADO no mueve stock porque ya
// quedó descontado al agregar.
type OrderUseCase struct {
	txRunner  OrderTxRunner
	ledgerSvc LedgerService
	orderRepo repository.OrderRepository
	itemRepo  repository.OrderItemRepository
}

// NewOrderUseCase construye el caso de uso. orderRepo e itemRepo son los
// repositorios sin transacción (consultas).
func NewOrderUseCase(
	txRunner OrderTxRunner,
	ledgerSvc LedgerService,
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
) *OrderUseCase {
	return &OrderUseCase{
		txRunner:  txRunner,
		ledgerSvc: ledgerSvc,
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
	}
}

// destinationFor referencia de salida de inventario para una línea de pedido.
func destinationFor(itemID string) string { return "pedido:" + itemID }

// CreateOrder crea un pedido vacío en estado PENDIENTE con total cero.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, clientName, clientRef, userID string) (*entity.SalesOrder, error) {
	if clientName == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	order := &entity.SalesOrder{
		ID:         uuid.New().String(),
		ClientName: clientName,
		ClientRef:  clientRef,
		Status:     entity.OrderStatusPendiente,
		Total:      decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  userID,
	}
	if err := uc.orderRepo.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

// AddItem agrega una línea: verifica y descuenta el stock del pool por la
// misma vía atómica del Allocator (el chequeo y el decremento ocurren bajo el
// bloqueo de fila del pool, sin ventana de carrera), crea la línea con
// subtotal = cantidad × precio unitario y recalcula el total del pedido.
// Todo confirma o revierte junto.
func (uc *OrderUseCase) AddItem(ctx context.Context, orderID string, category string, quantity, unitPrice decimal.Decimal, userID string) (*entity.OrderItem, error) {
	if orderID == "" || category == "" || !quantity.GreaterThan(decimal.Zero) || unitPrice.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	item := &entity.OrderItem{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		Category:  category,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	item.ComputeSubtotal()

	var events ledger.PendingEvents
	err := uc.txRunner.RunOrders(ctx, func(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		allocRepo repository.AllocationRepository,
		orderRepo repository.OrderRepository,
		itemRepo repository.OrderItemRepository,
	) error {
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !order.Mutable() {
			return domain.ErrConflict
		}

		// Chequeo con cifras antes de mutar nada: el pool está bloqueado, así
		// que el chequeo y el decremento son una sola operación atómica.
		pool, err := poolRepo.GetForUpdate(category)
		if err != nil {
			return err
		}
		if pool == nil || !pool.Active {
			return domain.ErrNotFound
		}
		if pool.Quantity.LessThan(quantity) {
			return &domain.InsufficientStockError{
				Category:  category,
				Available: pool.Quantity,
				Requested: quantity,
			}
		}

		_, evs, err := uc.ledgerSvc.AllocateInTx(poolRepo, batchRepo, allocRepo,
			category, quantity, destinationFor(item.ID), time.Now(), userID)
		if err != nil {
			return err
		}
		events.Append(evs)

		if err := itemRepo.Create(item); err != nil {
			return err
		}
		return uc.recomputeTotal(orderRepo, itemRepo, order)
	})
	if err != nil {
		return nil, err
	}
	uc.ledgerSvc.Emit(events)
	return item, nil
}

// UpdateItem cambia la cantidad de una línea. Se implementa como reversa de
// las salidas de la línea seguida de una nueva asignación por la cantidad
// nueva: el efecto neto es el delta y el rastro de salidas queda consistente.
// Un aumento que exceda el stock disponible falla sin mutar nada.
func (uc *OrderUseCase) UpdateItem(ctx context.Context, orderID, itemID string, newQuantity decimal.Decimal, userID string) (*entity.OrderItem, error) {
	if orderID == "" || itemID == "" || !newQuantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	var updated *entity.OrderItem
	var events ledger.PendingEvents
	err := uc.txRunner.RunOrders(ctx, func(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		allocRepo repository.AllocationRepository,
		orderRepo repository.OrderRepository,
		itemRepo repository.OrderItemRepository,
	) error {
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !order.Mutable() {
			return domain.ErrConflict
		}

		item, err := itemRepo.GetByID(itemID)
		if err != nil {
			return err
		}
		if item == nil || item.OrderID != orderID {
			return domain.ErrNotFound
		}

		// Si crece, el stock disponible debe cubrir el delta; la reversa
		// inmediata repone la cantidad vieja, así que alcanza con comparar
		// contra disponible + cantidad vieja bajo el mismo bloqueo.
		pool, err := poolRepo.GetForUpdate(item.Category)
		if err != nil {
			return err
		}
		if pool == nil {
			return domain.ErrNotFound
		}
		delta := newQuantity.Sub(item.Quantity)
		if delta.GreaterThan(pool.Quantity) {
			return &domain.InsufficientStockError{
				Category:  item.Category,
				Available: pool.Quantity,
				Requested: delta,
			}
		}

		evs, err := uc.ledgerSvc.ReverseByDestinationInTx(poolRepo, batchRepo, allocRepo, destinationFor(item.ID))
		if err != nil {
			return err
		}
		events.Append(evs)

		_, evs2, err := uc.ledgerSvc.AllocateInTx(poolRepo, batchRepo, allocRepo,
			item.Category, newQuantity, destinationFor(item.ID), time.Now(), userID)
		if err != nil {
			return err
		}
		events.Append(evs2)

		item.Quantity = newQuantity
		item.ComputeSubtotal()
		if err := itemRepo.Update(item); err != nil {
			return err
		}
		updated = item
		return uc.recomputeTotal(orderRepo, itemRepo, order)
	})
	if err != nil {
		return nil, err
	}
	uc.ledgerSvc.Emit(events)
	return updated, nil
}

// RemoveItem elimina una línea: reversa sus salidas (el stock vuelve al pool y
// a los lotes de origen), borra la línea y recalcula el total del pedido.
func (uc *OrderUseCase) RemoveItem(ctx context.Context, orderID, itemID string) error {
	if orderID == "" || itemID == "" {
		return domain.ErrInvalidInput
	}

	var events ledger.PendingEvents
	err := uc.txRunner.RunOrders(ctx, func(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		allocRepo repository.AllocationRepository,
		orderRepo repository.OrderRepository,
		itemRepo repository.OrderItemRepository,
	) error {
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !order.Mutable() {
			return domain.ErrConflict
		}

		item, err := itemRepo.GetByID(itemID)
		if err != nil {
			return err
		}
		if item == nil || item.OrderID != orderID {
			return domain.ErrNotFound
		}

		evs, err := uc.ledgerSvc.ReverseByDestinationInTx(poolRepo, batchRepo, allocRepo, destinationFor(item.ID))
		if err != nil {
			return err
		}
		events.Append(evs)

		if err := itemRepo.Delete(item.ID); err != nil {
			return err
		}
		return uc.recomputeTotal(orderRepo, itemRepo, order)
	})
	if err != nil {
		return err
	}
	uc.ledgerSvc.Emit(events)
	return nil
}

// Transition cambia el estado del pedido según la máquina de estados.
// CANCELADO reversa las salidas de todas las líneas (liberación de la reserva);
// ENTREGADO no mueve stock: ya quedó descontado al agregar cada línea.
func (uc *OrderUseCase) Transition(ctx context.Context, orderID, newStatus string) (*entity.SalesOrder, error) {
	if orderID == "" || !entity.ValidOrderStatus(newStatus) {
		return nil, domain.ErrInvalidInput
	}

	var updated *entity.SalesOrder
	var events ledger.PendingEvents
	err := uc.txRunner.RunOrders(ctx, func(
		poolRepo repository.StockPoolRepository,
		batchRepo repository.SupplyBatchRepository,
		allocRepo repository.AllocationRepository,
		orderRepo repository.OrderRepository,
		itemRepo repository.OrderItemRepository,
	) error {
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !entity.CanTransition(order.Status, newStatus) {
			return &domain.InvalidTransitionError{From: order.Status, To: newStatus}
		}

		if newStatus == entity.OrderStatusCancelado {
			items, err := itemRepo.ListByOrder(order.ID)
			if err != nil {
				return err
			}
			for _, item := range items {
				evs, err := uc.ledgerSvc.ReverseByDestinationInTx(poolRepo, batchRepo, allocRepo, destinationFor(item.ID))
				if err != nil {
					return err
				}
				events.Append(evs)
			}
		}

		order.Status = newStatus
		order.UpdatedAt = time.Now()
		if err := orderRepo.Update(order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.ledgerSvc.Emit(events)
	return updated, nil
}

// GetOrder consulta un pedido con sus líneas (solo lectura).
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID string) (*entity.SalesOrder, []*entity.OrderItem, error) {
	order, err := uc.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, domain.ErrNotFound
	}
	items, err := uc.itemRepo.ListByOrder(orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

// ListOrders lista pedidos, opcionalmente por estado (solo lectura).
func (uc *OrderUseCase) ListOrders(ctx context.Context, status string, limit, offset int) ([]*entity.SalesOrder, error) {
	return uc.orderRepo.List(status, limit, offset)
}

// recomputeTotal rederiva y persiste el total como la suma de subtotales de
// las líneas vigentes, dentro de la transacción de la mutación que lo originó.
func (uc *OrderUseCase) recomputeTotal(
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	order *entity.SalesOrder,
) error {
	items, err := itemRepo.ListByOrder(order.ID)
	if err != nil {
		return err
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	order.Total = total
	order.UpdatedAt = time.Now()
	return orderRepo.Update(order)
}
