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

type BidRepository struct {
	mu     sync.Mutex
	bids   map[uint64]*domain.Bid
	nextID uint64
	now    func() time.Time
}

var _ repository.BidRepository = (*BidRepository)(nil)

func NewBidRepository() *BidRepository {
	return &BidRepository{bids: make(map[uint64]*domain.Bid), now: time.Now}
}

func (r *BidRepository) Create(_ context.Context, b *domain.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insert(b)
	return nil
}

func (r *BidRepository) insert(b *domain.Bid) {
	r.nextID++
	b.ID = r.nextID
	if b.Version == 0 {
		b.Version = 1
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	cp := *b
	r.bids[b.ID] = &cp
}

func (r *BidRepository) FindByID(_ context.Context, id uint64) (*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bids[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *BidRepository) PlacePending(_ context.Context, b *domain.Bid, staleBefore time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cur *domain.Bid
	for _, stored := range r.bids {
		if stored.ProductID == b.ProductID && stored.BuyerID == b.BuyerID && stored.Status == domain.BidPending {
			if cur == nil || stored.ID > cur.ID {
				cur = stored
			}
		}
	}
	if cur != nil && cur.IdleSince(staleBefore) {
		cur.Status = domain.BidExpired
		cur.Version++
		cur.UpdatedAt = b.UpdatedAt
		cur = nil
	}
	if cur == nil {
		b.Status = domain.BidPending
		r.insert(b)
		return false, nil
	}

	cur.Amount = b.Amount
	cur.Quantity = b.Quantity
	cur.Message = b.Message
	cur.DeliveryAddress = b.DeliveryAddress
	cur.PaymentMethod = b.PaymentMethod
	cur.UpdatedAt = b.UpdatedAt
	cur.Version++
	*b = *cur
	return true, nil
}

func (r *BidRepository) Update(_ context.Context, b *domain.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bids[b.ID]
	if !ok || stored.Version != b.Version {
		return fmt.Errorf("%w: bid %d version %d", domain.ErrConflict, b.ID, b.Version)
	}
	b.Version++
	cp := *b
	r.bids[b.ID] = &cp
	return nil
}

func (r *BidRepository) ListByProduct(_ context.Context, productID uint64) ([]domain.Bid, error) {
	return r.filter(func(b *domain.Bid) bool { return b.ProductID == productID }), nil
}

func (r *BidRepository) ListByBuyer(_ context.Context, buyerID uint64) ([]domain.Bid, error) {
	return r.filter(func(b *domain.Bid) bool { return b.BuyerID == buyerID }), nil
}

func (r *BidRepository) filter(keep func(*domain.Bid) bool) []domain.Bid {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Bid, 0)
	for _, b := range r.bids {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *BidRepository) ExpirePendingBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := r.now()
	for _, b := range r.bids {
		if b.Status == domain.BidPending && b.UpdatedAt.Before(cutoff) {
			b.Status = domain.BidExpired
			b.Version++
			b.UpdatedAt = now
			n++
		}
	}
	return n, nil
}
