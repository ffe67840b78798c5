package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	farmer      = domain.Actor{ID: 10, Role: domain.RoleFarmer}
	otherFarmer = domain.Actor{ID: 11, Role: domain.RoleFarmer}
	buyer       = domain.Actor{ID: 20, Role: domain.RoleBuyer}
	otherBuyer  = domain.Actor{ID: 21, Role: domain.RoleBuyer}
)

type fixture struct {
	products *memory.ProductRepository
	bidsRepo *memory.BidRepository
	ordRepo  *memory.OrderRepository
	events   *recordingEmitter

	catalog *CatalogService
	orders  *OrderService
	bids    *BidService
	carts   *CartService
	market  *Marketplace
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	f := &fixture{
		products: memory.NewProductRepository(),
		bidsRepo: memory.NewBidRepository(),
		ordRepo:  memory.NewOrderRepository(),
		events:   &recordingEmitter{},
	}
	f.catalog = NewCatalogService(f.products, nil, log)
	f.orders = NewOrderService(f.ordRepo, f.catalog, f.events, log)
	f.bids = NewBidService(f.bidsRepo, f.catalog, f.orders, f.events, 72*time.Hour, log)
	f.carts = NewCartService(memory.NewCartStore(), f.catalog, log)
	f.market = NewMarketplace(f.catalog, f.bids, f.orders, f.carts, f.events, log)
	return f
}

func (f *fixture) listProduct(t *testing.T, price int64, stock int, negotiable bool) *domain.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), farmer, ProductInput{
		Name:         "Basmati rice",
		Category:     "grains",
		Price:        price,
		Stock:        stock,
		IsNegotiable: negotiable,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, id uint64) int {
	t.Helper()
	p, err := f.catalog.Product(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

type recordingEmitter struct {
	mu    sync.Mutex
	types []domain.EventType
}

func (r *recordingEmitter) Emit(_ context.Context, eventType domain.EventType, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, eventType)
}

func (r *recordingEmitter) count(t domain.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, et := range r.types {
		if et == t {
			n++
		}
	}
	return n
}
