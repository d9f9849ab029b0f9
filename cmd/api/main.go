package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/granjapro/avicola-api/internal/application/auth"
	"github.com/granjapro/avicola-api/internal/application/ledger"
	"github.com/granjapro/avicola-api/internal/application/orders"
	"github.com/granjapro/avicola-api/internal/domain/repository"
	"github.com/granjapro/avicola-api/internal/infrastructure/memory"
	"github.com/granjapro/avicola-api/internal/infrastructure/notify"
	"github.com/granjapro/avicola-api/internal/infrastructure/postgres"
	httpRouter "github.com/granjapro/avicola-api/internal/interfaces/http"
	"github.com/granjapro/avicola-api/pkg/config"
	"github.com/granjapro/avicola-api/pkg/logger"
)

func main() {
	memMode := flag.Bool("memoria", false, "usar el store en memoria en lugar de PostgreSQL (modo desarrollo, estado volátil)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Bool("memoria", *memMode).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner  ledger.TxRunner
		orderTx   orders.OrderTxRunner
		userRepo  repository.UserRepository
		poolRepo  repository.StockPoolRepository
		batchRepo repository.SupplyBatchRepository
		orderRepo repository.OrderRepository
		itemRepo  repository.OrderItemRepository
	)
	if *memMode {
		store := memory.NewStore(cfg.Inventory.LockTimeout)
		txRunner, orderTx = store, store
		userRepo = store.Users()
		poolRepo, batchRepo = store.Pools(), store.Batches()
		orderRepo, itemRepo = store.Orders(), store.Items()
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		pgTx := postgres.NewTxRunner(pool, cfg.Inventory.LockTimeout)
		txRunner, orderTx = pgTx, pgTx
		userRepo = postgres.NewUserRepository(pool)
		poolRepo = postgres.NewStockPoolRepository(pool)
		batchRepo = postgres.NewSupplyBatchRepository(pool)
		orderRepo = postgres.NewOrderRepository(pool)
		itemRepo = postgres.NewOrderItemRepository(pool)
	}

	notifier := notify.NewLogNotifier(log)
	auditSink := notify.NewLogAuditSink(log)

	ledgerCfg := ledger.Config{
		StalenessDays:        cfg.Inventory.StalenessDays,
		MinimumFactor:        decimal.NewFromFloat(cfg.Inventory.MinimumFactor),
		ThroughputWindowDays: cfg.Inventory.ThroughputWindowDays,
	}
	allocateUC := ledger.NewAllocateUseCase(txRunner, notifier, auditSink, ledgerCfg)
	poolUC := ledger.NewPoolUseCase(txRunner, poolRepo, batchRepo, allocateUC, notifier, auditSink, ledgerCfg)
	orderUC := orders.NewOrderUseCase(orderTx, allocateUC, orderRepo, itemRepo)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	// Solo si el JSON generado existe; un checkout limpio debe poder arrancar.
	const swaggerFile = "./docs/swagger.json"
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Avícola API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado, UI de docs deshabilitada")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		PoolUC:     poolUC,
		AllocateUC: allocateUC,
		OrderUC:    orderUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
