package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/granjapro/avicola-api/internal/application/dto"
	"github.com/granjapro/avicola-api/internal/application/ledger"
	"github.com/granjapro/avicola-api/internal/domain/entity"
)

// LedgerHandler maneja las peticiones HTTP del núcleo de inventario:
// ingresos, despachos FIFO, reversas, ajustes y consultas de pools y lotes.
type LedgerHandler struct {
	pools    *ledger.PoolUseCase
	allocate *ledger.AllocateUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(pools *ledger.PoolUseCase, allocate *ledger.AllocateUseCase) *LedgerHandler {
	return &LedgerHandler{pools: pools, allocate: allocate}
}

// RegisterIntake godoc
// @Summary      Registrar ingreso
// @Description  Crea un lote de ingreso y acredita el pool de la categoría
//               (lo crea si es el primer ingreso).
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterIntakeRequest  true  "category, kind (HUEVO|ALIMENTO), quantity, intake_date, expiration, source_ref"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/intakes [post]
func (h *LedgerHandler) RegisterIntake(c *fiber.Ctx) error {
	var in dto.RegisterIntakeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Category == "" || in.Kind == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "category y kind son requeridos"})
	}
	intakeDate := time.Now()
	if in.IntakeDate != nil {
		intakeDate = *in.IntakeDate
	}
	batch, err := h.pools.RegisterIntake(c.Context(), ledger.IntakeInput{
		Category:   in.Category,
		Kind:       in.Kind,
		Quantity:   in.Quantity,
		IntakeDate: intakeDate,
		Expiration: in.Expiration,
		SourceRef:  in.SourceRef,
		UserID:     GetUserID(c),
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBatchResponse(batch))
}

// Dispatch godoc
// @Summary      Despachar contra una categoría
// @Description  Consume lotes en orden FIFO (HUEVO por fecha de ingreso,
//               ALIMENTO por vencimiento). Todo-o-nada: si el suministro no
//               alcanza, ningún lote se modifica y responde 409 con cifras.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DispatchRequest  true  "category, quantity, destination, as_of_date"
// @Success      201   {array}   dto.AllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/ledger/dispatches [post]
func (h *LedgerHandler) Dispatch(c *fiber.Ctx) error {
	var in dto.DispatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Category == "" || in.Destination == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "category y destination son requeridos"})
	}
	asOf := time.Now()
	if in.AsOfDate != nil {
		asOf = *in.AsOfDate
	}
	allocations, err := h.allocate.Allocate(c.Context(), ledger.DispatchInput{
		Category:    in.Category,
		Quantity:    in.Quantity,
		Destination: in.Destination,
		AsOfDate:    asOf,
		UserID:      GetUserID(c),
	})
	if err != nil {
		return respondDomainError(c, err)
	}
	out := make([]dto.AllocationResponse, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, toAllocationResponse(a))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ReverseAllocation godoc
// @Summary      Reversar una salida
// @Description  Restituye la cantidad al lote origen (tope: su cantidad
//               original) y acredita el pool. Una segunda reversa de la misma
//               salida responde 409.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/ledger/allocations/{id} [delete]
func (h *LedgerHandler) ReverseAllocation(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.allocate.Reverse(c.Context(), id); err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "salida reversada"})
}

// Adjust godoc
// @Summary      Ajustar un pool
// @Description  Delta positivo crea un lote de ajuste; delta negativo consume
//               lotes en orden FIFO. Nunca deja el pool en negativo.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        category  path  string  true  "categoría del pool"
// @Param        body      body  dto.AdjustRequest  true  "delta, reason"
// @Success      200   {object}  dto.PoolResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/pools/{category}/adjust [post]
func (h *LedgerHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	pool, err := h.pools.Adjust(c.Context(), c.Params("category"), in.Delta, in.Reason, GetUserID(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toPoolResponse(pool))
}

// RecomputeMinimum godoc
// @Summary      Recalcular el mínimo automático de un pool
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        category  path  string  true  "categoría del pool"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/pools/{category}/recompute-minimum [post]
func (h *LedgerHandler) RecomputeMinimum(c *fiber.Ctx) error {
	minimum, err := h.pools.RecomputeMinimum(c.Context(), c.Params("category"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"category": c.Params("category"), "minimum": minimum.String()})
}

// DeactivatePool godoc
// @Summary      Desactivar un pool
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        category  path  string  true  "categoría del pool"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/pools/{category} [delete]
func (h *LedgerHandler) DeactivatePool(c *fiber.Ctx) error {
	if err := h.pools.DeactivatePool(c.Context(), c.Params("category")); err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Pool desactivado"})
}

// GetPool godoc
// @Summary      Consultar un pool
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        category  path  string  true  "categoría del pool"
// @Success      200  {object}  dto.PoolResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/pools/{category} [get]
func (h *LedgerHandler) GetPool(c *fiber.Ctx) error {
	pool, err := h.pools.GetPool(c.Context(), c.Params("category"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(toPoolResponse(pool))
}

// ListPools godoc
// @Summary      Listar pools
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        all  query  bool  false  "incluir pools desactivados"
// @Success      200  {array}  dto.PoolResponse
// @Router       /api/ledger/pools [get]
func (h *LedgerHandler) ListPools(c *fiber.Ctx) error {
	onlyActive := !c.QueryBool("all", false)
	pools, err := h.pools.ListPools(c.Context(), onlyActive)
	if err != nil {
		return respondDomainError(c, err)
	}
	out := make([]dto.PoolResponse, 0, len(pools))
	for _, p := range pools {
		out = append(out, toPoolResponse(p))
	}
	return c.JSON(out)
}

// ListBatches godoc
// @Summary      Listar lotes de una categoría
// @Description  Incluye lotes agotados; más recientes primero.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        category  path   string  true   "categoría del pool"
// @Param        limit     query  int     false  "por defecto 20, máx 100"
// @Param        offset    query  int     false  "por defecto 0"
// @Success      200  {array}  dto.BatchResponse
// @Router       /api/ledger/pools/{category}/batches [get]
func (h *LedgerHandler) ListBatches(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	batches, err := h.pools.ListBatches(c.Context(), c.Params("category"), page.Limit, page.Offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	out := make([]dto.BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, toBatchResponse(b))
	}
	return c.JSON(out)
}

func toPoolResponse(p *entity.StockPool) dto.PoolResponse {
	return dto.PoolResponse{
		Category:    p.Category,
		Kind:        p.Kind,
		Quantity:    p.Quantity,
		Minimum:     p.Minimum,
		AutoMinimum: p.AutoMinimum,
		Active:      p.Active,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toBatchResponse(b *entity.SupplyBatch) dto.BatchResponse {
	return dto.BatchResponse{
		ID:         b.ID,
		Category:   b.Category,
		Original:   b.Original,
		Remaining:  b.Remaining,
		IntakeDate: b.IntakeDate,
		Expiration: b.Expiration,
		SourceRef:  b.SourceRef,
	}
}

func toAllocationResponse(a *entity.Allocation) dto.AllocationResponse {
	return dto.AllocationResponse{
		ID:           a.ID,
		BatchID:      a.BatchID,
		Category:     a.Category,
		Quantity:     a.Quantity,
		Destination:  a.Destination,
		DispatchDate: a.DispatchDate,
		Stale:        a.Stale,
	}
}
