// Package memory provee una implementación transaccional en memoria de los
// puertos de persistencia. La usan los tests de casos de uso y el modo de
// desarrollo sin PostgreSQL. Cada transacción trabaja sobre un clon del estado
// y lo intercambia al confirmar; un error descarta el clon (rollback real).
package memory

import (
	"context"
	"time"

	"github.com/granjapro/avicola-api/internal/domain"
	"github.com/granjapro/avicola-api/internal/domain/entity"
	"github.com/granjapro/avicola-api/internal/domain/repository"
)

// state es el estado completo del almacén. Los clones son copias profundas a
// nivel de struct (los campos decimal e *time.Time no se mutan in place).
type state struct {
	pools       map[string]*entity.StockPool
	batches     map[string]*entity.SupplyBatch
	allocations map[string]*entity.Allocation
	orders      map[string]*entity.SalesOrder
	items       map[string]*entity.OrderItem
	users       map[string]*entity.User
	seq         int64
}

func newState() *state {
	return &state{
		pools:       map[string]*entity.StockPool{},
		batches:     map[string]*entity.SupplyBatch{},
		allocations: map[string]*entity.Allocation{},
		orders:      map[string]*entity.SalesOrder{},
		items:       map[string]*entity.OrderItem{},
		users:       map[string]*entity.User{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.pools {
		cp := *v
		c.pools[k] = &cp
	}
	for k, v := range s.batches {
		cp := *v
		c.batches[k] = &cp
	}
	for k, v := range s.allocations {
		cp := *v
		c.allocations[k] = &cp
	}
	for k, v := range s.orders {
		cp := *v
		c.orders[k] = &cp
	}
	for k, v := range s.items {
		cp := *v
		c.items[k] = &cp
	}
	for k, v := range s.users {
		cp := *v
		c.users[k] = &cp
	}
	return c
}

// Store es el almacén en memoria. El bloqueo es a nivel de almacén: hace las
// veces del bloqueo de fila del pool, serializando toda transacción. La espera
// por el bloqueo está acotada por lockTimeout, igual que en PostgreSQL.
type Store struct {
	sem         chan struct{}
	lockTimeout time.Duration
	state       *state
}

// NewStore construye el almacén vacío.
func NewStore(lockTimeout time.Duration) *Store {
	s := &Store{
		sem:         make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		state:       newState(),
	}
	return s
}

// acquire toma el bloqueo del almacén o falla con LockTimeoutError.
func (s *Store) acquire(ctx context.Context) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return &domain.LockTimeoutError{}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() { <-s.sem }

// Run implementa ledger.TxRunner: clona el estado, ejecuta fn con repos atados
// al clon y confirma (swap) solo si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(
	poolRepo repository.StockPoolRepository,
	batchRepo repository.SupplyBatchRepository,
	allocRepo repository.AllocationRepository,
) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	tx := s.state.clone()
	err := fn(&poolRepo{st: tx}, &batchRepo{st: tx}, &allocRepo{st: tx})
	if err != nil {
		return err
	}
	s.state = tx
	return nil
}

// RunOrders implementa orders.OrderTxRunner con los cinco repositorios.
func (s *Store) RunOrders(ctx context.Context, fn func(
	pools repository.StockPoolRepository,
	batches repository.SupplyBatchRepository,
	allocs repository.AllocationRepository,
	orders repository.OrderRepository,
	items repository.OrderItemRepository,
) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	tx := s.state.clone()
	err := fn(&poolRepo{st: tx}, &batchRepo{st: tx}, &allocRepo{st: tx}, &orderRepo{st: tx}, &itemRepo{st: tx})
	if err != nil {
		return err
	}
	s.state = tx
	return nil
}

// Pools devuelve el repositorio de pools de solo consulta.
func (s *Store) Pools() repository.StockPoolRepository { return &poolRepo{store: s} }

// Batches devuelve el repositorio de lotes de solo consulta.
func (s *Store) Batches() repository.SupplyBatchRepository { return &batchRepo{store: s} }

// Allocations devuelve el repositorio de salidas de solo consulta.
func (s *Store) Allocations() repository.AllocationRepository { return &allocRepo{store: s} }

// Orders devuelve el repositorio de pedidos de solo consulta.
func (s *Store) Orders() repository.OrderRepository { return &orderRepo{store: s} }

// Items devuelve el repositorio de líneas de solo consulta.
func (s *Store) Items() repository.OrderItemRepository { return &itemRepo{store: s} }

// Users devuelve el repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return &userRepo{store: s} }
