package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/repository"
)

type OrderRepository struct {
	mu     sync.Mutex
	orders map[uint64]*domain.Order
	nextID uint64
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[uint64]*domain.Order)}
}

func (r *OrderRepository) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insert(order)
	return nil
}

func (r *OrderRepository) SaveBatch(_ context.Context, orders []*domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range orders {
		r.insert(o)
	}
	return nil
}

func (r *OrderRepository) insert(order *domain.Order) {
	r.nextID++
	order.ID = r.nextID
	if order.Version == 0 {
		order.Version = 1
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}
	cp := *order
	r.orders[order.ID] = &cp
}

func (r *OrderRepository) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id uint64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *OrderRepository) FindByProductId(_ context.Context, id uint64) ([]domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.ProductId == id }), nil
}

func (r *OrderRepository) ListByBuyer(_ context.Context, buyerID uint64) ([]domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.BuyerID == buyerID }), nil
}

func (r *OrderRepository) ListByFarmer(_ context.Context, farmerID uint64) ([]domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.FarmerID == farmerID }), nil
}

func (r *OrderRepository) filter(keep func(*domain.Order) bool) []domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Order, 0)
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *OrderRepository) UpdateStatus(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok || stored.Version != order.Version {
		return fmt.Errorf("%w: order %d version %d", domain.ErrConflict, order.ID, order.Version)
	}
	order.Version++
	stored.Status = order.Status
	stored.Version = order.Version
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

// Count is a test convenience.
func (r *OrderRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}
