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

// BidInput is what a buyer offers for a negotiable product.
type BidInput struct {
	ProductID       uint64
	Amount          int64
	Quantity        int
	Message         string
	DeliveryAddress string
	PaymentMethod   domain.PaymentMethod
}

type BidService struct {
	repo      repository.BidRepository
	inventory Inventory
	orders    *OrderService
	events    EventEmitter
	log       *zap.Logger
	ttl       time.Duration
	now       func() time.Time
}

// NewBidService wires the negotiation manager. A zero ttl disables expiry.
func NewBidService(r repository.BidRepository, inv Inventory, orders *OrderService, events EventEmitter, ttl time.Duration, log *zap.Logger) *BidService {
	if events == nil {
		events = noopEmitter{}
	}
	return &BidService{
		repo:      r,
		inventory: inv,
		orders:    orders,
		events:    events,
		log:       log,
		ttl:       ttl,
		now:       time.Now,
	}
}

// cutoff is the last touch time a pending bid may have and still be expired.
// It is zero when expiry is disabled.
func (s *BidService) cutoff(now time.Time) time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(-s.ttl)
}

// PlaceBid opens a bid, or revises the buyer's pending bid on the same product.
func (s *BidService) PlaceBid(ctx context.Context, buyer domain.Actor, in BidInput) (*domain.Bid, error) {
	if err := domain.RequireRole(buyer, domain.RoleBuyer); err != nil {
		return nil, err
	}
	if err := domain.ValidateBidTerms(in.Amount, in.Quantity, in.Message); err != nil {
		return nil, err
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentCash
	}
	if err := domain.ValidateDelivery(in.DeliveryAddress, in.PaymentMethod); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBid, err)
	}

	prod, err := s.inventory.Product(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if prod.FarmerID == buyer.ID {
		return nil, fmt.Errorf("%w: cannot bid on your own product", domain.ErrInvalidBid)
	}
	if prod.Status != domain.ProductActive || !prod.IsNegotiable {
		return nil, fmt.Errorf("%w: product %d is not open for bidding", domain.ErrInvalidBid, prod.ID)
	}
	// Soft check only; acceptance validates against the stock of that moment.
	if in.Quantity > prod.Stock {
		return nil, fmt.Errorf("%w: only %d units available", domain.ErrInvalidBid, prod.Stock)
	}

	now := s.now()
	bid := &domain.Bid{
		ProductID:       in.ProductID,
		BuyerID:         buyer.ID,
		Amount:          in.Amount,
		Quantity:        in.Quantity,
		Message:         in.Message,
		DeliveryAddress: in.DeliveryAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          domain.BidPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	revised, err := s.repo.PlacePending(ctx, bid, s.cutoff(now))
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.log).Info("bid placed",
		zap.Uint64("bid_id", bid.ID),
		zap.Uint64("product_id", bid.ProductID),
		zap.Int64("amount", bid.Amount),
		zap.Int("quantity", bid.Quantity),
		zap.Bool("revised", revised))
	s.events.Emit(ctx, domain.EventBidPlaced, domain.BidPlacedEvent{
		BidID:     bid.ID,
		ProductID: bid.ProductID,
		BuyerID:   bid.BuyerID,
		Amount:    bid.Amount,
		Quantity:  bid.Quantity,
		Revised:   revised,
	})
	return bid, nil
}

// ResolveBid records the farmer's decision. Accepting creates exactly one order
// at the bid's price and quantity; if any step fails the bid stays pending and
// stock is back where it was.
func (s *BidService) ResolveBid(ctx context.Context, farmer domain.Actor, bidID uint64, decision domain.BidDecision) (*domain.Bid, error) {
	bid, err := s.resolve(ctx, farmer, bidID, decision)
	outcome := "ok"
	if err != nil {
		outcome = ErrorCode(err)
	}
	metrics.RecordBidResolution(string(decision), outcome)
	return bid, err
}

func (s *BidService) resolve(ctx context.Context, farmer domain.Actor, bidID uint64, decision domain.BidDecision) (*domain.Bid, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: decision must be accepted or rejected", domain.ErrInvalidTransition)
	}
	bid, err := s.find(ctx, bidID)
	if err != nil {
		return nil, err
	}
	prod, err := s.inventory.Product(ctx, bid.ProductID)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(farmer, prod.FarmerID, "the product of this bid"); err != nil {
		return nil, err
	}
	if bid.Status != domain.BidPending {
		return nil, fmt.Errorf("%w: bid %d is already %s", domain.ErrInvalidTransition, bid.ID, bid.Status)
	}

	now := s.now()
	if bid.ExpiredAt(now, s.ttl) {
		bid.Status = domain.BidExpired
		bid.UpdatedAt = now
		if err := s.repo.Update(ctx, bid); err != nil && !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: bid %d has expired", domain.ErrInvalidTransition, bid.ID)
	}

	if decision == domain.DecisionReject {
		bid.Status = domain.BidRejected
		bid.UpdatedAt = now
		if err := s.repo.Update(ctx, bid); err != nil {
			return nil, err
		}
		s.resolved(ctx, bid)
		return bid, nil
	}

	if prod.Status == domain.ProductDelisted {
		return nil, fmt.Errorf("%w: product %d was delisted", domain.ErrProductUnavailable, prod.ID)
	}
	if bid.Quantity > prod.Stock {
		return nil, fmt.Errorf("%w: bid wants %d, %d left", domain.ErrStockChanged, bid.Quantity, prod.Stock)
	}

	amount, id := bid.Amount, bid.ID
	order, err := s.orders.place(ctx, bid.BuyerID, domain.OrderRequest{
		ProductID:         bid.ProductID,
		Quantity:          bid.Quantity,
		DeliveryAddress:   bid.DeliveryAddress,
		PaymentMethod:     bid.PaymentMethod,
		Notes:             bid.Message,
		UnitPriceOverride: &amount,
		BidID:             &id,
	})
	if err != nil {
		if errors.Is(err, domain.ErrOutOfStock) {
			// Another reservation won the race between the check above and ours.
			return nil, fmt.Errorf("%w: %v", domain.ErrStockChanged, err)
		}
		return nil, err
	}

	bid.Status = domain.BidAccepted
	bid.OrderID = &order.ID
	bid.UpdatedAt = now
	if err := s.repo.Update(ctx, bid); err != nil {
		s.orders.discard(ctx, order)
		return nil, err
	}

	s.resolved(ctx, bid)
	s.events.Emit(ctx, domain.EventOrderCreated, domain.NewOrderCreatedEvent(order))
	return bid, nil
}

func (s *BidService) resolved(ctx context.Context, bid *domain.Bid) {
	logger.FromContext(ctx, s.log).Info("bid resolved",
		zap.Uint64("bid_id", bid.ID),
		zap.String("status", string(bid.Status)))
	s.events.Emit(ctx, domain.EventBidResolved, domain.BidResolvedEvent{
		BidID:     bid.ID,
		ProductID: bid.ProductID,
		BuyerID:   bid.BuyerID,
		Status:    bid.Status,
		OrderID:   bid.OrderID,
	})
}

// ExpireStale moves every pending bid older than the TTL to expired.
func (s *BidService) ExpireStale(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	n, err := s.repo.ExpirePendingBefore(ctx, s.cutoff(s.now()))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.BidsExpired.Add(float64(n))
		s.log.Info("expired stale bids", zap.Int64("count", n), zap.Duration("ttl", s.ttl))
	}
	return n, nil
}

// RunExpiry sweeps on every tick until ctx is done.
func (s *BidService) RunExpiry(ctx context.Context, interval time.Duration) error {
	if s.ttl <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.ExpireStale(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("bid expiry sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *BidService) GetBid(ctx context.Context, actor domain.Actor, id uint64) (*domain.Bid, error) {
	bid, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Owns(bid.BuyerID) {
		return bid, nil
	}
	prod, err := s.inventory.Product(ctx, bid.ProductID)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(actor, prod.FarmerID, "the product of this bid"); err != nil {
		return nil, err
	}
	return bid, nil
}

// ListProductBids is only open to the farmer who owns the product.
func (s *BidService) ListProductBids(ctx context.Context, farmer domain.Actor, productID uint64) ([]domain.Bid, error) {
	prod, err := s.inventory.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(farmer, prod.FarmerID, "product"); err != nil {
		return nil, err
	}
	return s.repo.ListByProduct(ctx, productID)
}

func (s *BidService) ListMyBids(ctx context.Context, buyer domain.Actor) ([]domain.Bid, error) {
	return s.repo.ListByBuyer(ctx, buyer.ID)
}

func (s *BidService) find(ctx context.Context, id uint64) (*domain.Bid, error) {
	bid, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, fmt.Errorf("%w: bid %d", domain.ErrNotFound, id)
	}
	return bid, nil
}
