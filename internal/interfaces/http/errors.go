package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/granjapro/avicola-api/internal/application/dto"
	"github.com/granjapro/avicola-api/internal/domain"
)

// respondDomainError traduce los errores del núcleo de inventario a HTTP.
// Los errores con cifras (stock/suministro insuficiente) exponen
// disponible/solicitado en Details para que el cliente reintente ajustado.
func respondDomainError(c *fiber.Ctx, err error) error {
	var supplyErr *domain.InsufficientSupplyError
	if errors.As(err, &supplyErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_SUPPLY",
			Message: supplyErr.Error(),
			Details: map[string]string{
				"category":  supplyErr.Category,
				"available": supplyErr.Available.String(),
				"requested": supplyErr.Requested.String(),
			},
		})
	}
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: stockErr.Error(),
			Details: map[string]string{
				"category":  stockErr.Category,
				"available": stockErr.Available.String(),
				"requested": stockErr.Requested.String(),
			},
		})
	}
	var transErr *domain.InvalidTransitionError
	if errors.As(err, &transErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INVALID_TRANSITION",
			Message: transErr.Error(),
			Details: map[string]string{"from": transErr.From, "to": transErr.To},
		})
	}
	switch {
	case errors.Is(err, domain.ErrAlreadyReversed):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_REVERSED", Message: err.Error()})
	case errors.Is(err, domain.ErrLockTimeout):
		// 423 Locked: contención sobre el ledger, distinto de falta de stock.
		return c.Status(fiber.StatusLocked).JSON(dto.ErrorResponse{Code: "LOCK_TIMEOUT", Message: err.Error()})
	case errors.Is(err, domain.ErrInvariantViolation):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVARIANT_VIOLATION", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
