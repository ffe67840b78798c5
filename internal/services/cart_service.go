package services

import (
	"context"
	"fmt"

	"marketplace-service/internal/domain"

	"go.uber.org/zap"
)

// CartService keeps each buyer's advisory cart. Stock is only consulted to
// clamp quantities; nothing is reserved until checkout.
type CartService struct {
	store     CartStore
	inventory Inventory
	log       *zap.Logger
}

func NewCartService(store CartStore, inv Inventory, log *zap.Logger) *CartService {
	return &CartService{store: store, inventory: inv, log: log}
}

func (s *CartService) Get(ctx context.Context, buyer domain.Actor) (*domain.Cart, error) {
	if err := domain.RequireRole(buyer, domain.RoleBuyer); err != nil {
		return nil, err
	}
	return s.store.Load(ctx, buyer.ID)
}

// Add puts qty units of a product in the cart, merging with any existing line.
func (s *CartService) Add(ctx context.Context, buyer domain.Actor, productID uint64, qty int) (*domain.Cart, error) {
	if err := domain.RequireRole(buyer, domain.RoleBuyer); err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}
	prod, err := s.inventory.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if prod.Status == domain.ProductDelisted {
		return nil, fmt.Errorf("%w: product %d was delisted", domain.ErrProductUnavailable, productID)
	}
	if !prod.Sellable() || prod.Stock < 1 {
		return nil, fmt.Errorf("%w: product %d", domain.ErrOutOfStock, productID)
	}

	cart, err := s.store.Load(ctx, buyer.ID)
	if err != nil {
		return nil, err
	}
	cart.Add(productID, qty, prod.Stock)
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SetQuantity replaces a line's quantity, clamped to [1, current stock].
func (s *CartService) SetQuantity(ctx context.Context, buyer domain.Actor, productID uint64, qty int) (*domain.Cart, error) {
	if err := domain.RequireRole(buyer, domain.RoleBuyer); err != nil {
		return nil, err
	}
	cart, err := s.store.Load(ctx, buyer.ID)
	if err != nil {
		return nil, err
	}
	max := 0
	if prod, err := s.inventory.Product(ctx, productID); err == nil {
		max = prod.Stock
	}
	if _, ok := cart.SetQuantity(productID, qty, max); !ok {
		return nil, fmt.Errorf("%w: product %d is not in the cart", domain.ErrNotFound, productID)
	}
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Remove(ctx context.Context, buyer domain.Actor, productID uint64) (*domain.Cart, error) {
	if err := domain.RequireRole(buyer, domain.RoleBuyer); err != nil {
		return nil, err
	}
	cart, err := s.store.Load(ctx, buyer.ID)
	if err != nil {
		return nil, err
	}
	if !cart.Remove(productID) {
		return nil, fmt.Errorf("%w: product %d is not in the cart", domain.ErrNotFound, productID)
	}
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, buyer domain.Actor) error {
	if err := domain.RequireRole(buyer, domain.RoleBuyer); err != nil {
		return err
	}
	return s.store.Delete(ctx, buyer.ID)
}
