package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-service/internal/domain"

	"github.com/go-redis/redis/v8"
)

// CartStore keeps each buyer's advisory cart as one JSON value with a sliding TTL.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

func cartKey(buyerID uint64) string {
	return fmt.Sprintf("cart:%d", buyerID)
}

func (s *CartStore) Load(ctx context.Context, buyerID uint64) (*domain.Cart, error) {
	raw, err := s.client.Get(ctx, cartKey(buyerID)).Bytes()
	if err == redis.Nil {
		return &domain.Cart{BuyerID: buyerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	cart.BuyerID = buyerID
	return &cart, nil
}

func (s *CartStore) Save(ctx context.Context, cart *domain.Cart) error {
	if cart.Empty() {
		return s.Delete(ctx, cart.BuyerID)
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(cart.BuyerID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, buyerID uint64) error {
	if err := s.client.Del(ctx, cartKey(buyerID)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
