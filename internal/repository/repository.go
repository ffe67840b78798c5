package repository

import (
	"context"
	"time"

	"marketplace-service/internal/domain"
)

// Lookups return (nil, nil) when a row does not exist; callers decide
// whether that is an error.

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	// UpdateDetails persists listing fields. Stock and status are never written here.
	UpdateDetails(ctx context.Context, p *domain.Product) error
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
	List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
	// DecrementStock atomically takes qty from stock, failing with
	// domain.ErrOutOfStock rather than going negative, and marks the
	// product sold when stock reaches zero.
	DecrementStock(ctx context.Context, id uint64, qty int) (*domain.Product, error)
	// IncrementStock returns qty to the pool; a sold product becomes active again.
	IncrementStock(ctx context.Context, id uint64, qty int) (*domain.Product, error)
	MarkSold(ctx context.Context, id uint64) error
	SetStatus(ctx context.Context, id uint64, status domain.ProductStatus) error
}

type BidRepository interface {
	Create(ctx context.Context, b *domain.Bid) error
	FindByID(ctx context.Context, id uint64) (*domain.Bid, error)
	// PlacePending keeps at most one pending bid per (product, buyer). Under a
	// lock on the product it revises the live pending bid with b's terms, or
	// inserts b when there is none. A pending bid idle since staleBefore is
	// expired first. b holds the stored bid afterwards; revised reports which
	// path was taken.
	PlacePending(ctx context.Context, b *domain.Bid, staleBefore time.Time) (revised bool, err error)
	// Update writes b if the stored version still equals b.Version, then
	// bumps b.Version. A stale version yields domain.ErrConflict.
	Update(ctx context.Context, b *domain.Bid) error
	ListByProduct(ctx context.Context, productID uint64) ([]domain.Bid, error)
	ListByBuyer(ctx context.Context, buyerID uint64) ([]domain.Bid, error)
	// ExpirePendingBefore moves pending bids last touched before cutoff to expired.
	ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	// SaveBatch persists all orders or none of them.
	SaveBatch(ctx context.Context, orders []*domain.Order) error
	Delete(ctx context.Context, id uint64) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindByProductId(ctx context.Context, id uint64) ([]domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID uint64) ([]domain.Order, error)
	ListByFarmer(ctx context.Context, farmerID uint64) ([]domain.Order, error)
	// UpdateStatus is a versioned write of Status, like BidRepository.Update.
	UpdateStatus(ctx context.Context, order *domain.Order) error
}
