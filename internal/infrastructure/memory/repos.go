package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/granjapro/avicola-api/internal/domain/entity"
	ledgerdom "github.com/granjapro/avicola-api/internal/domain/ledger"
)

// runLocked ejecuta fn sobre el estado correcto: el de la transacción si el
// repo está atado a una, o el del almacén con el bloqueo tomado si no.
func runLocked(store *Store, st *state, fn func(st *state) error) error {
	if st != nil {
		return fn(st)
	}
	if err := store.acquire(context.Background()); err != nil {
		return err
	}
	defer store.release()
	return fn(store.state)
}

// ──────────────────────────────────────────────────────────────────────────────
// StockPoolRepository
// ──────────────────────────────────────────────────────────────────────────────

type poolRepo struct {
	store *Store
	st    *state
}

func (r *poolRepo) Get(category string) (*entity.StockPool, error) {
	var out *entity.StockPool
	err := runLocked(r.store, r.st, func(st *state) error {
		if p, ok := st.pools[category]; ok {
			cp := *p
			out = &cp
		}
		return nil
	})
	return out, err
}

// GetForUpdate en memoria equivale a Get dentro de la transacción: el bloqueo
// del almacén ya serializa la categoría.
func (r *poolRepo) GetForUpdate(category string) (*entity.StockPool, error) {
	return r.Get(category)
}

func (r *poolRepo) GetOrCreateForUpdate(category, kind string) (*entity.StockPool, error) {
	var out *entity.StockPool
	err := runLocked(r.store, r.st, func(st *state) error {
		if p, ok := st.pools[category]; ok {
			cp := *p
			out = &cp
			return nil
		}
		now := time.Now()
		p := &entity.StockPool{
			Category:    category,
			Kind:        kind,
			Quantity:    decimal.Zero,
			Minimum:     decimal.Zero,
			AutoMinimum: true,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		st.pools[category] = p
		cp := *p
		out = &cp
		return nil
	})
	return out, err
}

func (r *poolRepo) Upsert(pool *entity.StockPool) error {
	return runLocked(r.store, r.st, func(st *state) error {
		cp := *pool
		st.pools[pool.Category] = &cp
		return nil
	})
}

func (r *poolRepo) List(onlyActive bool) ([]*entity.StockPool, error) {
	var out []*entity.StockPool
	err := runLocked(r.store, r.st, func(st *state) error {
		for _, p := range st.pools {
			if onlyActive && !p.Active {
				continue
			}
			cp := *p
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, err
}

func (r *poolRepo) Deactivate(category string) error {
	return runLocked(r.store, r.st, func(st *state) error {
		if p, ok := st.pools[category]; ok {
			p.Active = false
			p.UpdatedAt = time.Now()
		}
		return nil
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// SupplyBatchRepository
// ──────────────────────────────────────────────────────────────────────────────

type batchRepo struct {
	store *Store
	st    *state
}

func (r *batchRepo) Create(batch *entity.SupplyBatch) error {
	return runLocked(r.store, r.st, func(st *state) error {
		st.seq++
		batch.Seq = st.seq
		cp := *batch
		st.batches[batch.ID] = &cp
		return nil
	})
}

func (r *batchRepo) GetByID(id string) (*entity.SupplyBatch, error) {
	var out *entity.SupplyBatch
	err := runLocked(r.store, r.st, func(st *state) error {
		if b, ok := st.batches[id]; ok {
			cp := *b
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *batchRepo) ListAvailableForUpdate(category, kind string) ([]*entity.SupplyBatch, error) {
	var out []*entity.SupplyBatch
	err := runLocked(r.store, r.st, func(st *state) error {
		for _, b := range st.batches {
			if b.Category == category && !b.Exhausted() {
				cp := *b
				out = append(out, &cp)
			}
		}
		return nil
	})
	ledgerdom.SortBatchesFIFO(kind, out)
	return out, err
}

func (r *batchRepo) ListByCategory(category string, limit, offset int) ([]*entity.SupplyBatch, error) {
	var out []*entity.SupplyBatch
	err := runLocked(r.store, r.st, func(st *state) error {
		for _, b := range st.batches {
			if b.Category == category {
				cp := *b
				out = append(out, &cp)
			}
		}
		return nil
	})
	// Más recientes primero, como los listados históricos de la API
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IntakeDate.Equal(out[j].IntakeDate) {
			return out[i].IntakeDate.After(out[j].IntakeDate)
		}
		return out[i].Seq > out[j].Seq
	})
	if offset >= len(out) {
		return nil, err
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, err
}

func (r *batchRepo) UpdateRemaining(batch *entity.SupplyBatch) error {
	return runLocked(r.store, r.st, func(st *state) error {
		if b, ok := st.batches[batch.ID]; ok {
			b.Remaining = batch.Remaining
		}
		return nil
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// AllocationRepository
// ──────────────────────────────────────────────────────────────────────────────

type allocRepo struct {
	store *Store
	st    *state
}

func (r *allocRepo) Create(allocation *entity.Allocation) error {
	return runLocked(r.store, r.st, func(st *state) error {
		cp := *allocation
		st.allocations[allocation.ID] = &cp
		return nil
	})
}

func (r *allocRepo) GetByID(id string) (*entity.Allocation, error) {
	var out *entity.Allocation
	err := runLocked(r.store, r.st, func(st *state) error {
		if a, ok := st.allocations[id]; ok {
			cp := *a
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *allocRepo) GetByIDForUpdate(id string) (*entity.Allocation, error) {
	return r.GetByID(id)
}

func (r *allocRepo) ListByCategory(category string, from, to *time.Time, limit, offset int) ([]*entity.Allocation, error) {
	var out []*entity.Allocation
	err := runLocked(r.store, r.st, func(st *state) error {
		for _, a := range st.allocations {
			if a.Category != category {
				continue
			}
			if from != nil && a.DispatchDate.Before(*from) {
				continue
			}
			if to != nil && a.DispatchDate.After(*to) {
				continue
			}
			cp := *a
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DispatchDate.After(out[j].DispatchDate) })
	if offset >= len(out) {
		return nil, err
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, err
}

func (r *allocRepo) ListByBatch(batchID string) ([]*entity.Allocation, error) {
	var out []*entity.Allocation
	err := runLocked(r.store, r.st, func(st *state) error {
		for _, a := range st.allocations {
			if a.BatchID == batchID {
				cp := *a
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *allocRepo) ListByDestination(destination string) ([]*entity.Allocation, error) {
	var out []*entity.Allocation
	err := runLocked(r.store, r.st, func(st *state) error {
		for _, a := range st.allocations {
			if strings.EqualFold(a.Destination, destination) {
				cp := *a
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *allocRepo) Delete(id string) error {
	return runLocked(r.store, r.st, func(st *state) error {
		delete(st.allocations, id)
		return nil
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// OrderRepository / OrderItemRepository
// ──────────────────────────────────────────────────────────────────────────────

type orderRepo struct {
	store *Store
	st    *state
}

func (r *orderRepo) Create(order *entity.SalesOrder) error {
	return runLocked(r.store, r.st, func(st *state) error {
		cp := *order
		st.orders[order.ID] = &cp
		return nil
	})
}

func (r *orderRepo) GetByID(id string) (*entity.SalesOrder, error) {
	var out *entity.SalesOrder
	err := runLocked(r.store, r.st, func(st *state) error {
		if o, ok := st.orders[id]; ok {
			cp := *o
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *orderRepo) GetByIDForUpdate(id string) (*entity.SalesOrder, error) {
	return r.GetByID(id)
}

func (r *orderRepo) Update(order *entity.SalesOrder) error {
	return runLocked(r.store, r.st, func(st *state) error {
		cp := *order
		st.orders[order.ID] = &cp
		return nil
	})
}

func (r *orderRepo) List(status string, limit, offset int) ([]*entity.SalesOrder, error) {
	var out []*entity.SalesOrder
	err := runLocked(r.store, r.st, func(st *state) error {
		for _, o := range st.orders {
			if status != "" && o.Status != status {
				continue
			}
			cp := *o
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, err
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, err
}

type itemRepo struct {
	store *Store
	st    *state
}

func (r *itemRepo) Create(item *entity.OrderItem) error {
	return runLocked(r.store, r.st, func(st *state) error {
		cp := *item
		st.items[item.ID] = &cp
		return nil
	})
}

func (r *itemRepo) GetByID(id string) (*entity.OrderItem, error) {
	var out *entity.OrderItem
	err := runLocked(r.store, r.st, func(st *state) error {
		if it, ok := st.items[id]; ok {
			cp := *it
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *itemRepo) ListByOrder(orderID string) ([]*entity.OrderItem, error) {
	var out []*entity.OrderItem
	err := runLocked(r.store, r.st, func(st *state) error {
		for _, it := range st.items {
			if it.OrderID == orderID {
				cp := *it
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *itemRepo) Update(item *entity.OrderItem) error {
	return runLocked(r.store, r.st, func(st *state) error {
		cp := *item
		st.items[item.ID] = &cp
		return nil
	})
}

func (r *itemRepo) Delete(id string) error {
	return runLocked(r.store, r.st, func(st *state) error {
		delete(st.items, id)
		return nil
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// UserRepository
// ──────────────────────────────────────────────────────────────────────────────

type userRepo struct {
	store *Store
	st    *state
}

func (r *userRepo) Create(user *entity.User) error {
	return runLocked(r.store, r.st, func(st *state) error {
		cp := *user
		st.users[user.ID] = &cp
		return nil
	})
}

func (r *userRepo) GetByID(id string) (*entity.User, error) {
	var out *entity.User
	err := runLocked(r.store, r.st, func(st *state) error {
		if u, ok := st.users[id]; ok {
			cp := *u
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(email string) (*entity.User, error) {
	var out *entity.User
	err := runLocked(r.store, r.st, func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				cp := *u
				out = &cp
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) Update(user *entity.User) error {
	return runLocked(r.store, r.st, func(st *state) error {
		cp := *user
		st.users[user.ID] = &cp
		return nil
	})
}

func (r *userRepo) List(limit, offset int) ([]*entity.User, error) {
	var out []*entity.User
	err := runLocked(r.store, r.st, func(st *state) error {
		for _, u := range st.users {
			cp := *u
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	if offset >= len(out) {
		return nil, err
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, err
}
