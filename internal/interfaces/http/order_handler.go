package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/granjapro/avicola-api/internal/application/dto"
	"github.com/granjapro/avicola-api/internal/application/orders"
	"github.com/granjapro/avicola-api/internal/domain/entity"
)

// OrderHandler maneja las peticiones HTTP del punto de venta: pedidos,
// líneas y transiciones de estado.
type OrderHandler struct {
	uc *orders.OrderUseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *orders.OrderUseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// Create godoc
// @Summary      Crear pedido
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "client_name, client_ref"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ClientName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "client_name es requerido"})
	}
	order, err := h.uc.CreateOrder(c.Context(), in.ClientName, in.ClientRef, GetUserID(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(order, nil))
}

// AddItem godoc
// @Summary      Agregar línea a un pedido
// @Description  Reserva stock de la categoría al crear la línea (consume lotes
//               FIFO). Si el pool no alcanza, responde 409 con cifras y el
//               pedido no cambia.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.AddItemRequest  true  "category, quantity, unit_price"
// @Success      201   {object}  dto.OrderItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/items [post]
func (h *OrderHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Category == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "category es requerido"})
	}
	item, err := h.uc.AddItem(c.Context(), c.Params("id"), in.Category, in.Quantity, in.UnitPrice, GetUserID(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toItemResponse(item))
}

// UpdateItem godoc
// @Summary      Cambiar la cantidad de una línea
// @Description  Reversa la reserva anterior y reasigna con la nueva cantidad;
//               el subtotal y el total del pedido se recalculan en la misma
//               transacción.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string  true  "ID del pedido"
// @Param        itemID  path  string  true  "ID de la línea"
// @Param        body    body  dto.UpdateItemRequest  true  "quantity"
// @Success      200   {object}  dto.OrderItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/items/{itemID} [put]
func (h *OrderHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.uc.UpdateItem(c.Context(), c.Params("id"), c.Params("itemID"), in.Quantity, GetUserID(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toItemResponse(item))
}

// RemoveItem godoc
// @Summary      Eliminar una línea
// @Description  Restituye el stock reservado por la línea y recalcula el total.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id      path  string  true  "ID del pedido"
// @Param        itemID  path  string  true  "ID de la línea"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/items/{itemID} [delete]
func (h *OrderHandler) RemoveItem(c *fiber.Ctx) error {
	if err := h.uc.RemoveItem(c.Context(), c.Params("id"), c.Params("itemID")); err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "línea eliminada"})
}

// Transition godoc
// @Summary      Cambiar el estado de un pedido
// @Description  Respeta la máquina de estados (PENDIENTE → CONFIRMADO →
//               EN_PREPARACION → LISTO → ENTREGADO; CANCELADO solo desde
//               PENDIENTE o CONFIRMADO). Cancelar restituye el stock reservado.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.TransitionRequest  true  "status destino"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/status [post]
func (h *OrderHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if !entity.ValidOrderStatus(in.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "estado desconocido: " + in.Status})
	}
	order, err := h.uc.Transition(c.Context(), c.Params("id"), in.Status)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toOrderResponse(order, nil))
}

// GetByID godoc
// @Summary      Consultar un pedido con sus líneas
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	order, items, err := h.uc.GetOrder(c.Context(), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toOrderResponse(order, items))
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "filtrar por estado"
// @Param        limit   query  int     false  "por defecto 20, máx 100"
// @Param        offset  query  int     false  "por defecto 0"
// @Success      200  {array}  dto.OrderResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && !entity.ValidOrderStatus(status) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "estado desconocido: " + status})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.uc.ListOrders(c.Context(), status, page.Limit, page.Offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	out := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderResponse(o, nil))
	}
	return c.JSON(out)
}

func toItemResponse(i *entity.OrderItem) dto.OrderItemResponse {
	return dto.OrderItemResponse{
		ID:        i.ID,
		Category:  i.Category,
		Quantity:  i.Quantity,
		UnitPrice: i.UnitPrice,
		Subtotal:  i.Subtotal,
	}
}

func toOrderResponse(o *entity.SalesOrder, items []*entity.OrderItem) dto.OrderResponse {
	out := dto.OrderResponse{
		ID:         o.ID,
		ClientName: o.ClientName,
		ClientRef:  o.ClientRef,
		Status:     o.Status,
		Total:      o.Total,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for _, i := range items {
		out.Items = append(out.Items, toItemResponse(i))
	}
	return out
}
