package memory

import (
	"context"
	"sync"

	"marketplace-service/internal/domain"
)

type CartStore struct {
	mu    sync.Mutex
	carts map[uint64][]domain.CartEntry
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[uint64][]domain.CartEntry)}
}

func (s *CartStore) Load(_ context.Context, buyerID uint64) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := append([]domain.CartEntry(nil), s.carts[buyerID]...)
	return &domain.Cart{BuyerID: buyerID, Entries: entries}, nil
}

func (s *CartStore) Save(_ context.Context, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart.Empty() {
		delete(s.carts, cart.BuyerID)
		return nil
	}
	s.carts[cart.BuyerID] = append([]domain.CartEntry(nil), cart.Entries...)
	return nil
}

func (s *CartStore) Delete(_ context.Context, buyerID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, buyerID)
	return nil
}
