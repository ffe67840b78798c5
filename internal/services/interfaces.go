package services

import (
	"context"

	"marketplace-service/internal/domain"
)

// EventEmitter hands events to the notification collaborator without
// waiting for, or depending on, their delivery.
type EventEmitter interface {
	Emit(ctx context.Context, eventType domain.EventType, data any)
}

// ProductCache is an optional read cache in front of catalog lookups.
type ProductCache interface {
	Get(ctx context.Context, id uint64) (*domain.Product, bool)
	Set(ctx context.Context, p *domain.Product)
	Invalidate(ctx context.Context, id uint64)
}

type CartStore interface {
	Load(ctx context.Context, buyerID uint64) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, buyerID uint64) error
}

// Inventory is the slice of the catalog that bids, orders and carts depend on.
type Inventory interface {
	// Product reads the authoritative record, bypassing any cache.
	Product(ctx context.Context, id uint64) (*domain.Product, error)
	ReserveStock(ctx context.Context, productID uint64, qty int) (*domain.Reservation, error)
	ReleaseStock(ctx context.Context, productID uint64, qty int) error
}

var _ Inventory = (*CatalogService)(nil)

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, domain.EventType, any) {}

type noopCache struct{}

func (noopCache) Get(context.Context, uint64) (*domain.Product, bool) { return nil, false }
func (noopCache) Set(context.Context, *domain.Product)                {}
func (noopCache) Invalidate(context.Context, uint64)                  {}
