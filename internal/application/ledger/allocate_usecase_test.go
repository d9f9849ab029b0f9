package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/granjapro/avicola-api/internal/application/ledger"
	"github.com/granjapro/avicola-api/internal/domain"
	"github.com/granjapro/avicola-api/internal/domain/entity"
	"github.com/granjapro/avicola-api/internal/domain/event"
	"github.com/granjapro/avicola-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type fakeNotifier struct {
	lowStock  []event.LowStock
	freshness []event.Freshness
}

func (f *fakeNotifier) LowStock(e event.LowStock)   { f.lowStock = append(f.lowStock, e) }
func (f *fakeNotifier) Freshness(e event.Freshness) { f.freshness = append(f.freshness, e) }

type fakeAudit struct {
	changes []entity.ChangeRecord
}

func (f *fakeAudit) Record(cs []entity.ChangeRecord) { f.changes = append(f.changes, cs...) }

type fixture struct {
	store    *memory.Store
	allocate *ledger.AllocateUseCase
	pools    *ledger.PoolUseCase
	notifier *fakeNotifier
	audit    *fakeAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(time.Second)
	notifier := &fakeNotifier{}
	audit := &fakeAudit{}
	cfg := ledger.Config{
		StalenessDays:        15,
		MinimumFactor:        decimal.NewFromInt(2),
		ThroughputWindowDays: 30,
	}
	allocate := ledger.NewAllocateUseCase(store, notifier, audit, cfg)
	pools := ledger.NewPoolUseCase(store, store.Pools(), store.Batches(), allocate, notifier, audit, cfg)
	return &fixture{store: store, allocate: allocate, pools: pools, notifier: notifier, audit: audit}
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// intake registra un ingreso con fecha relativa a hoy (daysAgo días atrás).
func (f *fixture) intake(t *testing.T, category, kind string, qty int64, daysAgo int) *entity.SupplyBatch {
	t.Helper()
	batch, err := f.pools.RegisterIntake(context.Background(), ledger.IntakeInput{
		Category:   category,
		Kind:       kind,
		Quantity:   dec(qty),
		IntakeDate: time.Now().AddDate(0, 0, -daysAgo),
		UserID:     "u1",
	})
	require.NoError(t, err)
	return batch
}

func (f *fixture) poolQty(t *testing.T, category string) decimal.Decimal {
	t.Helper()
	pool, err := f.pools.GetPool(context.Background(), category)
	require.NoError(t, err)
	return pool.Quantity
}

// sumRemaining suma los remanentes de los lotes de la categoría (para verificar
// conservación: cantidad del pool == suma de remanentes).
func (f *fixture) sumRemaining(t *testing.T, category string) decimal.Decimal {
	t.Helper()
	batches, err := f.pools.ListBatches(context.Background(), category, 100, 0)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, b := range batches {
		sum = sum.Add(b.Remaining)
	}
	return sum
}

// ──────────────────────────────────────────────────────────────────────────────
// Ingresos
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterIntake_CreaPoolYAcredita(t *testing.T) {
	f := newFixture(t)

	batch := f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 0)
	require.NotNil(t, batch)
	assert.True(t, batch.Remaining.Equal(dec(100)))

	pool, err := f.pools.GetPool(context.Background(), "HUEVO-AA")
	require.NoError(t, err)
	assert.Equal(t, entity.PoolKindHuevo, pool.Kind)
	assert.True(t, pool.Quantity.Equal(dec(100)), "el primer ingreso debe dejar el pool en 100")
	assert.NotEmpty(t, f.audit.changes, "el ingreso debe dejar rastro de auditoría")
}

func TestRegisterIntake_HuevoConVencimientoEsInvalido(t *testing.T) {
	f := newFixture(t)
	exp := time.Now().AddDate(0, 1, 0)
	_, err := f.pools.RegisterIntake(context.Background(), ledger.IntakeInput{
		Category:   "HUEVO-AA",
		Kind:       entity.PoolKindHuevo,
		Quantity:   dec(10),
		Expiration: &exp,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "los lotes de huevo no llevan vencimiento")
}

func TestRegisterIntake_KindDistintoAlDelPool(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 10, 0)

	_, err := f.pools.RegisterIntake(context.Background(), ledger.IntakeInput{
		Category: "HUEVO-AA",
		Kind:     entity.PoolKindAlimento,
		Quantity: dec(10),
	})
	assert.ErrorIs(t, err, domain.ErrConflict, "el kind de la categoría no puede cambiar")
}

// ──────────────────────────────────────────────────────────────────────────────
// Despachos FIFO
// ──────────────────────────────────────────────────────────────────────────────

// Escenario del contrato: lotes de 100 (más viejo) y 50; despachar 120 agota el
// primero, toma 20 del segundo y deja el pool en 30.
func TestAllocate_ConsumeFIFOMultiLote(t *testing.T) {
	f := newFixture(t)
	b1 := f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 4)
	b2 := f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 50, 2)

	allocs, err := f.allocate.Allocate(context.Background(), ledger.DispatchInput{
		Category:    "HUEVO-AA",
		Quantity:    dec(120),
		Destination: "cliente-1",
		UserID:      "u1",
	})
	require.NoError(t, err)
	require.Len(t, allocs, 2)

	assert.Equal(t, b1.ID, allocs[0].BatchID)
	assert.True(t, allocs[0].Quantity.Equal(dec(100)), "debe agotar el lote más viejo")
	assert.Equal(t, b2.ID, allocs[1].BatchID)
	assert.True(t, allocs[1].Quantity.Equal(dec(20)), "del segundo solo toma el faltante")

	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec(30)))
	assert.True(t, f.sumRemaining(t, "HUEVO-AA").Equal(dec(30)),
		"conservación: pool == suma de remanentes")
}

// Todo-o-nada: si el suministro agregado no alcanza, ningún lote cambia y el
// error trae las cifras para reintentar ajustado.
func TestAllocate_SuministroInsuficienteNoMutaNada(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 2)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 50, 1)
	audited := len(f.audit.changes)

	_, err := f.allocate.Allocate(context.Background(), ledger.DispatchInput{
		Category:    "HUEVO-AA",
		Quantity:    dec(200),
		Destination: "cliente-1",
	})
	var supplyErr *domain.InsufficientSupplyError
	require.ErrorAs(t, err, &supplyErr)
	assert.True(t, supplyErr.Available.Equal(dec(150)))
	assert.True(t, supplyErr.Requested.Equal(dec(200)))

	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec(150)), "el pool no debe cambiar")
	assert.True(t, f.sumRemaining(t, "HUEVO-AA").Equal(dec(150)), "ningún lote debe cambiar")
	assert.Len(t, f.audit.changes, audited, "una transacción fallida no publica auditoría")
}

func TestAllocate_CategoriaInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.allocate.Allocate(context.Background(), ledger.DispatchInput{
		Category:    "HUEVO-ZZ",
		Quantity:    dec(10),
		Destination: "cliente-1",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ALIMENTO consume por vencimiento más próximo, no por fecha de ingreso.
func TestAllocate_AlimentoConsumePorVencimiento(t *testing.T) {
	f := newFixture(t)
	expFar := time.Now().AddDate(0, 2, 0)
	expNear := time.Now().AddDate(0, 0, 10)

	// Ingresado primero pero vence después
	bOld, err := f.pools.RegisterIntake(context.Background(), ledger.IntakeInput{
		Category: "ALIMENTO-LEVANTE", Kind: entity.PoolKindAlimento,
		Quantity: dec(40), IntakeDate: time.Now().AddDate(0, 0, -5), Expiration: &expFar,
	})
	require.NoError(t, err)
	bNear, err := f.pools.RegisterIntake(context.Background(), ledger.IntakeInput{
		Category: "ALIMENTO-LEVANTE", Kind: entity.PoolKindAlimento,
		Quantity: dec(40), IntakeDate: time.Now(), Expiration: &expNear,
	})
	require.NoError(t, err)

	allocs, err := f.allocate.Allocate(context.Background(), ledger.DispatchInput{
		Category:    "ALIMENTO-LEVANTE",
		Quantity:    dec(50),
		Destination: "galpon-3",
	})
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, bNear.ID, allocs[0].BatchID, "primero el lote que vence antes")
	assert.Equal(t, bOld.ID, allocs[1].BatchID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Avisos
// ──────────────────────────────────────────────────────────────────────────────

func TestAllocate_AvisoDeFrescura(t *testing.T) {
	f := newFixture(t)
	// 20 días de edad con umbral de 15: el despacho sale pero avisa
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 20)

	allocs, err := f.allocate.Allocate(context.Background(), ledger.DispatchInput{
		Category:    "HUEVO-AA",
		Quantity:    dec(30),
		Destination: "cliente-1",
	})
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].Stale, "la salida debe quedar marcada como no fresca")

	require.Len(t, f.notifier.freshness, 1)
	assert.Equal(t, "HUEVO-AA", f.notifier.freshness[0].Category)
	assert.GreaterOrEqual(t, f.notifier.freshness[0].AgeDays, 15)
}

func TestAllocate_AvisoDeStockBajo(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 0)

	// Fijar un mínimo manual de 50 (sin recalculo automático)
	pool, err := f.pools.GetPool(context.Background(), "HUEVO-AA")
	require.NoError(t, err)
	pool.Minimum = dec(50)
	pool.AutoMinimum = false
	require.NoError(t, f.store.Pools().Upsert(pool))

	_, err = f.allocate.Allocate(context.Background(), ledger.DispatchInput{
		Category:    "HUEVO-AA",
		Quantity:    dec(60),
		Destination: "cliente-1",
	})
	require.NoError(t, err)

	require.Len(t, f.notifier.lowStock, 1, "quedar en 40 con mínimo 50 debe avisar")
	assert.True(t, f.notifier.lowStock[0].Quantity.Equal(dec(40)))
	assert.True(t, f.notifier.lowStock[0].Minimum.Equal(dec(50)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Reversas
// ──────────────────────────────────────────────────────────────────────────────

func TestReverse_RestituyeLoteYPool(t *testing.T) {
	f := newFixture(t)
	b := f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 0)

	allocs, err := f.allocate.Allocate(context.Background(), ledger.DispatchInput{
		Category:    "HUEVO-AA",
		Quantity:    dec(40),
		Destination: "cliente-1",
	})
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	require.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec(60)))

	require.NoError(t, f.allocate.Reverse(context.Background(), allocs[0].ID))

	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec(100)), "la reversa acredita el pool")
	got, err := f.store.Batches().GetByID(b.ID)
	require.NoError(t, err)
	assert.True(t, got.Remaining.Equal(dec(100)), "la reversa restituye el lote origen")
}

func TestReverse_SegundaVezFalla(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 0)

	allocs, err := f.allocate.Allocate(context.Background(), ledger.DispatchInput{
		Category:    "HUEVO-AA",
		Quantity:    dec(40),
		Destination: "cliente-1",
	})
	require.NoError(t, err)
	require.NoError(t, f.allocate.Reverse(context.Background(), allocs[0].ID))

	err = f.allocate.Reverse(context.Background(), allocs[0].ID)
	var reversedErr *domain.AlreadyReversedError
	require.ErrorAs(t, err, &reversedErr, "la segunda reversa debe fallar")
	assert.Equal(t, allocs[0].ID, reversedErr.AllocationID)
	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec(100)), "no debe acreditar doble")
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjust_PositivoCreaLoteDeAjuste(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 0)

	pool, err := f.pools.Adjust(context.Background(), "HUEVO-AA", dec(25), "conteo físico", "u1")
	require.NoError(t, err)
	assert.True(t, pool.Quantity.Equal(dec(125)))
	assert.True(t, f.sumRemaining(t, "HUEVO-AA").Equal(dec(125)),
		"el ajuste positivo entra como lote para conservar el invariante")
}

func TestAdjust_PositivoQueSigueBajoElMinimoAvisa(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 1, 0)

	// Mínimo manual muy por encima del stock actual
	pool, err := f.pools.GetPool(context.Background(), "HUEVO-AA")
	require.NoError(t, err)
	pool.Minimum = dec(7)
	pool.AutoMinimum = false
	require.NoError(t, f.store.Pools().Upsert(pool))
	before := len(f.notifier.lowStock)

	// El crédito deja el pool en 3, todavía en o bajo el mínimo: debe avisar.
	pool, err = f.pools.Adjust(context.Background(), "HUEVO-AA", dec(2), "conteo físico", "u1")
	require.NoError(t, err)
	assert.True(t, pool.Quantity.Equal(dec(3)))

	require.Len(t, f.notifier.lowStock, before+1,
		"el aviso depende de la cantidad resultante, no del signo del delta")
	last := f.notifier.lowStock[len(f.notifier.lowStock)-1]
	assert.True(t, last.Quantity.Equal(dec(3)))
	assert.True(t, last.Minimum.Equal(dec(7)))
}

func TestAdjust_NegativoConsumeFIFO(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 3)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 50, 1)

	pool, err := f.pools.Adjust(context.Background(), "HUEVO-AA", dec(-120), "rotura", "u1")
	require.NoError(t, err)
	assert.True(t, pool.Quantity.Equal(dec(30)))
	assert.True(t, f.sumRemaining(t, "HUEVO-AA").Equal(dec(30)))
}

func TestAdjust_NegativoMayorQueElStock(t *testing.T) {
	f := newFixture(t)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 0)

	_, err := f.pools.Adjust(context.Background(), "HUEVO-AA", dec(-130), "rotura", "u1")
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr, "el ajuste nunca deja el pool en negativo")
	assert.True(t, stockErr.Available.Equal(dec(100)))
	assert.True(t, stockErr.Requested.Equal(dec(130)))
	assert.True(t, f.poolQty(t, "HUEVO-AA").Equal(dec(100)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Mínimo automático
// ──────────────────────────────────────────────────────────────────────────────

func TestRecomputeMinimum_FactorPorIngresoPromedio(t *testing.T) {
	f := newFixture(t)
	// 300 unidades en la ventana de 30 días → promedio 10/día, factor 2 → mínimo 20
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 25)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 15)
	f.intake(t, "HUEVO-AA", entity.PoolKindHuevo, 100, 5)

	minimum, err := f.pools.RecomputeMinimum(context.Background(), "HUEVO-AA")
	require.NoError(t, err)
	assert.True(t, minimum.Equal(dec(20)), "mínimo = factor × ingreso diario promedio, fue %s", minimum)
}
