package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/granjapro/avicola-api/internal/application/auth"
	"github.com/granjapro/avicola-api/internal/application/ledger"
	"github.com/granjapro/avicola-api/internal/application/orders"
	"github.com/granjapro/avicola-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	PoolUC     *ledger.PoolUseCase
	AllocateUC *ledger.AllocateUseCase
	OrderUC    *orders.OrderUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Galpón: quien registra ingresos y despachos
	galpon := RequireRole(entity.RoleAdmin, entity.RoleGalponero)
	// Ventas: quien arma y mueve pedidos
	ventas := RequireRole(entity.RoleAdmin, entity.RoleVendedor)

	// Ledger de inventario (protegido)
	ledgerGroup := protected.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.PoolUC, deps.AllocateUC)
	ledgerGroup.Post("/intakes", galpon, ledgerHandler.RegisterIntake)
	ledgerGroup.Post("/dispatches", galpon, ledgerHandler.Dispatch)
	ledgerGroup.Delete("/allocations/:id", galpon, ledgerHandler.ReverseAllocation)
	ledgerGroup.Get("/pools", ledgerHandler.ListPools)
	ledgerGroup.Get("/pools/:category", ledgerHandler.GetPool)
	ledgerGroup.Delete("/pools/:category", RequireRole(entity.RoleAdmin), ledgerHandler.DeactivatePool)
	ledgerGroup.Get("/pools/:category/batches", ledgerHandler.ListBatches)
	ledgerGroup.Post("/pools/:category/adjust", galpon, ledgerHandler.Adjust)
	ledgerGroup.Post("/pools/:category/recompute-minimum", galpon, ledgerHandler.RecomputeMinimum)

	// Pedidos (protegido)
	ordersGroup := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC)
	ordersGroup.Post("/", ventas, orderHandler.Create)
	ordersGroup.Get("/", orderHandler.List)
	ordersGroup.Get("/:id", orderHandler.GetByID)
	ordersGroup.Post("/:id/items", ventas, orderHandler.AddItem)
	ordersGroup.Put("/:id/items/:itemID", ventas, orderHandler.UpdateItem)
	ordersGroup.Delete("/:id/items/:itemID", ventas, orderHandler.RemoveItem)
	ordersGroup.Post("/:id/status", ventas, orderHandler.Transition)
}
