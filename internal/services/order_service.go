package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/infra/metrics"
	"marketplace-service/internal/repository"
	"marketplace-service/pkg/logger"

	"go.uber.org/zap"
)

var ErrOrderNotFound = fmt.Errorf("%w: order", domain.ErrNotFound)

const maxStatusAttempts = 3

type OrderService struct {
	repo      repository.OrderRepository
	inventory Inventory
	events    EventEmitter
	log       *zap.Logger
	now       func() time.Time
}

func NewOrderService(r repository.OrderRepository, inv Inventory, events EventEmitter, log *zap.Logger) *OrderService {
	if events == nil {
		events = noopEmitter{}
	}
	return &OrderService{
		repo:      r,
		inventory: inv,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

// CreateOrder buys a product outright at its listed price.
func (s *OrderService) CreateOrder(ctx context.Context, buyer domain.Actor, req domain.OrderRequest) (*domain.Order, error) {
	if err := domain.RequireRole(buyer, domain.RoleBuyer); err != nil {
		return nil, err
	}
	order, err := s.place(ctx, buyer.ID, req)
	if err != nil {
		return nil, err
	}
	s.events.Emit(ctx, domain.EventOrderCreated, domain.NewOrderCreatedEvent(order))
	return order, nil
}

// place reserves stock and persists one order. No order exists unless the
// reservation succeeded, and a failed insert gives the units back.
func (s *OrderService) place(ctx context.Context, buyerID uint64, req domain.OrderRequest) (*domain.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	prod, err := s.inventory.Product(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if prod.FarmerID == buyerID {
		return nil, fmt.Errorf("%w: cannot buy your own product", domain.ErrNotAuthorized)
	}

	if _, err := s.inventory.ReserveStock(ctx, req.ProductID, req.Quantity); err != nil {
		return nil, err
	}

	order := s.newOrder(buyerID, prod, req)
	if err := s.repo.Save(ctx, order); err != nil {
		s.release(ctx, req.ProductID, req.Quantity)
		return nil, err
	}

	logger.FromContext(ctx, s.log).Info("order created",
		zap.Uint64("order_id", order.ID),
		zap.Uint64("product_id", order.ProductId),
		zap.Int("quantity", order.Quantity),
		zap.Int64("unit_price", order.UnitPrice))
	return order, nil
}

// placeBatch turns several requests into orders as a unit. Every request is
// attempted so the caller learns about all offending products; if any fails,
// each reservation taken here is released and nothing is persisted.
func (s *OrderService) placeBatch(ctx context.Context, buyerID uint64, reqs []domain.OrderRequest) ([]*domain.Order, error) {
	type reserved struct {
		req  domain.OrderRequest
		prod *domain.Product
	}
	held := make([]reserved, 0, len(reqs))
	var failures []domain.ItemFailure

	for _, req := range reqs {
		fail := func(err error) {
			failures = append(failures, domain.ItemFailure{ProductID: req.ProductID, Quantity: req.Quantity, Err: err})
		}
		if err := req.Validate(); err != nil {
			fail(err)
			continue
		}
		prod, err := s.inventory.Product(ctx, req.ProductID)
		if err != nil {
			fail(err)
			continue
		}
		if prod.FarmerID == buyerID {
			fail(fmt.Errorf("%w: cannot buy your own product", domain.ErrNotAuthorized))
			continue
		}
		if _, err := s.inventory.ReserveStock(ctx, req.ProductID, req.Quantity); err != nil {
			fail(err)
			continue
		}
		held = append(held, reserved{req: req, prod: prod})
	}

	releaseHeld := func() {
		for _, h := range held {
			s.release(ctx, h.req.ProductID, h.req.Quantity)
		}
	}

	if len(failures) > 0 {
		releaseHeld()
		return nil, &domain.CheckoutError{Failures: failures}
	}

	orders := make([]*domain.Order, 0, len(held))
	for _, h := range held {
		orders = append(orders, s.newOrder(buyerID, h.prod, h.req))
	}
	if err := s.repo.SaveBatch(ctx, orders); err != nil {
		releaseHeld()
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) newOrder(buyerID uint64, prod *domain.Product, req domain.OrderRequest) *domain.Order {
	unitPrice := prod.Price
	if req.UnitPriceOverride != nil {
		unitPrice = *req.UnitPriceOverride
	}
	now := s.now()
	return &domain.Order{
		ProductId:       prod.ID,
		BuyerID:         buyerID,
		FarmerID:        prod.FarmerID,
		BidID:           req.BidID,
		Quantity:        req.Quantity,
		UnitPrice:       unitPrice,
		TotalPrice:      unitPrice * int64(req.Quantity),
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		Status:          domain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// discard undoes place for an order that must not survive, e.g. when the bid
// it was created for could not be marked accepted.
func (s *OrderService) discard(ctx context.Context, order *domain.Order) {
	if err := s.repo.Delete(ctx, order.ID); err != nil {
		logger.FromContext(ctx, s.log).Error("failed to discard order",
			zap.Uint64("order_id", order.ID), zap.Error(err))
	}
	s.release(ctx, order.ProductId, order.Quantity)
}

func (s *OrderService) release(ctx context.Context, productID uint64, qty int) {
	if err := s.inventory.ReleaseStock(ctx, productID, qty); err != nil {
		logger.FromContext(ctx, s.log).Error("failed to release reserved stock",
			zap.Uint64("product_id", productID),
			zap.Int("quantity", qty),
			zap.Error(err))
	}
}

// UpdateStatus moves an order forward along pending → confirmed → shipped →
// delivered, or cancels it from pending/confirmed. Only the farmer advances an
// order; either party may cancel.
func (s *OrderService) UpdateStatus(ctx context.Context, actor domain.Actor, orderID uint64, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidTransition, next)
	}

	for attempt := 1; attempt <= maxStatusAttempts; attempt++ {
		o, err := s.find(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if err := authorizeTransition(actor, o, next); err != nil {
			return nil, err
		}
		if !o.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: order %d cannot go from %s to %s", domain.ErrInvalidTransition, o.ID, o.Status, next)
		}

		prev := o.Status
		o.Status = next
		o.UpdatedAt = s.now()
		err = s.repo.UpdateStatus(ctx, o)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if next == domain.StatusCancelled {
			// The order is cancelled either way; a failed release is logged for repair.
			s.release(ctx, o.ProductId, o.Quantity)
		}
		metrics.RecordOrderTransition(string(next))
		logger.FromContext(ctx, s.log).Info("order status changed",
			zap.Uint64("order_id", o.ID),
			zap.String("from", string(prev)),
			zap.String("to", string(next)),
			zap.Uint64("actor_id", actor.ID))
		s.events.Emit(ctx, domain.EventOrderStatusChanged, domain.OrderStatusChangedEvent{
			OrderID:   o.ID,
			ProductId: o.ProductId,
			From:      prev,
			To:        next,
			ActorID:   actor.ID,
		})
		return o, nil
	}
	return nil, fmt.Errorf("%w: order %d kept changing, giving up", domain.ErrConflict, orderID)
}

func authorizeTransition(actor domain.Actor, o *domain.Order, next domain.OrderStatus) error {
	if next == domain.StatusCancelled && actor.Owns(o.BuyerID) {
		return nil
	}
	return domain.Authorize(actor, o.FarmerID, "the product of this order")
}

func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, id uint64) (*domain.Order, error) {
	o, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(o.BuyerID) && !actor.Owns(o.FarmerID) {
		return nil, fmt.Errorf("%w: order %d belongs to someone else", domain.ErrNotAuthorized, id)
	}
	return o, nil
}

// ListOrders shows a buyer their purchases and a farmer the orders placed on their products.
func (s *OrderService) ListOrders(ctx context.Context, actor domain.Actor) ([]domain.Order, error) {
	switch actor.Role {
	case domain.RoleBuyer:
		return s.repo.ListByBuyer(ctx, actor.ID)
	case domain.RoleFarmer:
		return s.repo.ListByFarmer(ctx, actor.ID)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrNotAuthorized, actor.Role)
	}
}

func (s *OrderService) GetOrderByProductId(ctx context.Context, farmer domain.Actor, productID uint64) ([]domain.Order, error) {
	prod, err := s.inventory.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(farmer, prod.FarmerID, "product"); err != nil {
		return nil, err
	}
	return s.repo.FindByProductId(ctx, productID)
}

func (s *OrderService) find(ctx context.Context, id uint64) (*domain.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}
