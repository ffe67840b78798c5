package services

import (
	"context"
	"fmt"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/infra/metrics"
	"marketplace-service/pkg/logger"

	"go.uber.org/zap"
)

// Marketplace is the single entry point clients talk to. It composes the
// catalog, negotiation, cart and order components and owns the multi-product
// checkout.
type Marketplace struct {
	Catalog *CatalogService
	Bids    *BidService
	Orders  *OrderService
	Carts   *CartService

	events EventEmitter
	log    *zap.Logger
}

func NewMarketplace(catalog *CatalogService, bids *BidService, orders *OrderService, carts *CartService, events EventEmitter, log *zap.Logger) *Marketplace {
	if events == nil {
		events = noopEmitter{}
	}
	return &Marketplace{
		Catalog: catalog,
		Bids:    bids,
		Orders:  orders,
		Carts:   carts,
		events:  events,
		log:     log,
	}
}

// Checkout turns cart entries into one order per product, all or nothing.
// On failure the returned *domain.CheckoutError lists every offending product
// and no order from the call persists.
func (m *Marketplace) Checkout(ctx context.Context, buyer domain.Actor, entries []domain.CartEntry, address string, method domain.PaymentMethod) ([]*domain.Order, error) {
	orders, err := m.checkout(ctx, buyer, entries, address, method)
	metrics.RecordCheckout(ErrorCode(err))
	return orders, err
}

func (m *Marketplace) checkout(ctx context.Context, buyer domain.Actor, entries []domain.CartEntry, address string, method domain.PaymentMethod) ([]*domain.Order, error) {
	if err := domain.RequireRole(buyer, domain.RoleBuyer); err != nil {
		return nil, err
	}
	var bad []domain.ItemFailure
	for _, e := range entries {
		if e.Quantity < 1 {
			bad = append(bad, domain.ItemFailure{
				ProductID: e.ProductID,
				Quantity:  e.Quantity,
				Err:       fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation),
			})
		}
	}
	if len(bad) > 0 {
		return nil, &domain.CheckoutError{Failures: bad}
	}
	merged := domain.MergeEntries(entries)
	if len(merged) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}
	if method == "" {
		method = domain.PaymentCash
	}
	if err := domain.ValidateDelivery(address, method); err != nil {
		return nil, err
	}

	reqs := make([]domain.OrderRequest, 0, len(merged))
	for _, e := range merged {
		reqs = append(reqs, domain.OrderRequest{
			ProductID:       e.ProductID,
			Quantity:        e.Quantity,
			DeliveryAddress: address,
			PaymentMethod:   method,
		})
	}

	log := logger.FromContext(ctx, m.log)
	orders, err := m.Orders.placeBatch(ctx, buyer.ID, reqs)
	if err != nil {
		log.Warn("checkout failed", zap.Uint64("buyer_id", buyer.ID), zap.Error(err))
		return nil, err
	}

	for _, o := range orders {
		m.events.Emit(ctx, domain.EventOrderCreated, domain.NewOrderCreatedEvent(o))
	}
	log.Info("checkout completed",
		zap.Uint64("buyer_id", buyer.ID),
		zap.Int("orders", len(orders)))
	return orders, nil
}

// CheckoutCart checks out the buyer's stored cart and empties it on success.
// A failed checkout leaves the cart as it was.
func (m *Marketplace) CheckoutCart(ctx context.Context, buyer domain.Actor, address string, method domain.PaymentMethod) ([]*domain.Order, error) {
	cart, err := m.Carts.Get(ctx, buyer)
	if err != nil {
		return nil, err
	}
	orders, err := m.Checkout(ctx, buyer, cart.Entries, address, method)
	if err != nil {
		return nil, err
	}
	if err := m.Carts.Clear(ctx, buyer); err != nil {
		logger.FromContext(ctx, m.log).Error("failed to clear cart after checkout",
			zap.Uint64("buyer_id", buyer.ID), zap.Error(err))
	}
	return orders, nil
}

// OrderIDs is a convenience for callers that only need identifiers.
func OrderIDs(orders []*domain.Order) []uint64 {
	ids := make([]uint64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}
