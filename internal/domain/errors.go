package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// Sentinelas del ledger: los errores tipados de abajo responden errors.Is contra estos.
	ErrInsufficientSupply = errors.New("suministro insuficiente en los lotes")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrAlreadyReversed    = errors.New("la salida ya fue reversada")
	ErrLockTimeout        = errors.New("tiempo de espera por bloqueo agotado")
	ErrInvariantViolation = errors.New("inconsistencia entre pool y lotes")
	ErrInvalidTransition  = errors.New("transición de estado no permitida")
)

// InsufficientSupplyError indica que la suma de remanentes de los lotes de una
// categoría no alcanza la cantidad solicitada. Reporta cifras concretas para que
// el usuario pueda reintentar con una cantidad ajustada. Ningún lote se modifica.
type InsufficientSupplyError struct {
	Category  string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientSupplyError) Error() string {
	return fmt.Sprintf("suministro insuficiente en %s: disponible %s, solicitado %s",
		e.Category, e.Available.String(), e.Requested.String())
}

// Is permite errors.Is(err, ErrInsufficientSupply).
func (e *InsufficientSupplyError) Is(target error) bool { return target == ErrInsufficientSupply }

// InsufficientStockError indica que un decremento dejaría el pool en negativo.
type InsufficientStockError struct {
	Category  string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en %s: disponible %s, solicitado %s",
		e.Category, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// AlreadyReversedError indica un doble intento de reversa sobre la misma salida.
type AlreadyReversedError struct {
	AllocationID string
}

func (e *AlreadyReversedError) Error() string {
	return fmt.Sprintf("la salida %s ya fue reversada", e.AllocationID)
}

func (e *AlreadyReversedError) Is(target error) bool { return target == ErrAlreadyReversed }

// LockTimeoutError indica contención sobre el pool: no se obtuvo el bloqueo
// de fila dentro del tiempo configurado. Distinto de falta de stock.
type LockTimeoutError struct {
	Category string
}

func (e *LockTimeoutError) Error() string {
	if e.Category == "" {
		return "tiempo de espera agotado por bloqueo del ledger"
	}
	return fmt.Sprintf("tiempo de espera agotado por bloqueo del pool %s", e.Category)
}

func (e *LockTimeoutError) Is(target error) bool { return target == ErrLockTimeout }

// InvariantViolationError indica deriva entre la cantidad del pool y la suma de
// remanentes de sus lotes. Es defensivo: si el Allocator es la única vía de
// mutación nunca debe ocurrir; al detectarse, la operación aborta sin "arreglar"
// los datos en silencio.
type InvariantViolationError struct {
	Category     string
	PoolQuantity decimal.Decimal
	BatchSum     decimal.Decimal
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("inconsistencia en %s: pool %s vs suma de lotes %s",
		e.Category, e.PoolQuantity.String(), e.BatchSum.String())
}

func (e *InvariantViolationError) Is(target error) bool { return target == ErrInvariantViolation }

// InvalidTransitionError indica un cambio de estado de pedido fuera de la máquina de estados.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición de pedido no permitida: %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
