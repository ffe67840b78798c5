// Package memory keeps every entity in process memory. It backs tests and
// local runs without a database and upholds the same invariants as the SQL
// repositories: each repository serializes its writes through one mutex.
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

type ProductRepository struct {
	mu       sync.Mutex
	products map[uint64]*domain.Product
	nextID   uint64
	now      func() time.Time
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[uint64]*domain.Product), now: time.Now}
}

func (r *ProductRepository) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	now := r.now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *ProductRepository) UpdateDetails(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.products[p.ID]
	if !ok {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, p.ID)
	}
	stored.Name = p.Name
	stored.Category = p.Category
	stored.Description = p.Description
	stored.Location = p.Location
	stored.Price = p.Price
	stored.Unit = p.Unit
	stored.IsNegotiable = p.IsNegotiable
	stored.UpdatedAt = r.now()
	return nil
}

func (r *ProductRepository) FindByID(_ context.Context, id uint64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *ProductRepository) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if f.Matches(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *ProductRepository) DecrementStock(_ context.Context, id uint64, qty int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	if p.Status == domain.ProductDelisted {
		return nil, fmt.Errorf("%w: product %d is delisted", domain.ErrProductUnavailable, id)
	}
	if p.Stock < qty {
		return nil, fmt.Errorf("%w: product %d has %d left, %d requested", domain.ErrOutOfStock, id, p.Stock, qty)
	}
	p.Stock -= qty
	if p.Stock == 0 {
		p.Status = domain.ProductSold
	}
	p.UpdatedAt = r.now()
	cp := *p
	return &cp, nil
}

func (r *ProductRepository) IncrementStock(_ context.Context, id uint64, qty int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	p.Stock += qty
	if p.Status == domain.ProductSold && p.Stock > 0 {
		p.Status = domain.ProductActive
	}
	p.UpdatedAt = r.now()
	cp := *p
	return &cp, nil
}

func (r *ProductRepository) MarkSold(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	if p.Stock == 0 && p.Status == domain.ProductActive {
		p.Status = domain.ProductSold
		p.UpdatedAt = r.now()
	}
	return nil
}

func (r *ProductRepository) SetStatus(_ context.Context, id uint64, status domain.ProductStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	p.Status = status
	p.UpdatedAt = r.now()
	return nil
}
