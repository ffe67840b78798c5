package services

import (
	"context"
	"errors"
	"testing"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const address = "12 Mandi Road, Nashik"

func TestMarketplace_Checkout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rice := f.listProduct(t, 100, 10, false)
	dal := f.listProduct(t, 80, 6, false)

	orders, err := f.market.Checkout(ctx, buyer, []domain.CartEntry{
		{ProductID: rice.ID, Quantity: 2},
		{ProductID: dal.ID, Quantity: 1},
		{ProductID: rice.ID, Quantity: 3},
	}, address, domain.PaymentUPI)
	require.NoError(t, err)
	require.Len(t, orders, 2, "duplicate lines are merged")

	assert.Equal(t, rice.ID, orders[0].ProductId)
	assert.Equal(t, 5, orders[0].Quantity)
	assert.Equal(t, int64(500), orders[0].TotalPrice)
	assert.Equal(t, dal.ID, orders[1].ProductId)
	assert.Equal(t, domain.PaymentUPI, orders[1].PaymentMethod)
	assert.Equal(t, address, orders[1].DeliveryAddress)

	assert.Equal(t, 5, f.stock(t, rice.ID))
	assert.Equal(t, 5, f.stock(t, dal.ID))
	assert.Equal(t, 2, f.events.count(domain.EventOrderCreated))
	assert.Len(t, OrderIDs(orders), 2)
}

func TestMarketplace_CheckoutIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.listProduct(t, 100, 10, false)
	scarce := f.listProduct(t, 100, 1, false)
	third := f.listProduct(t, 100, 10, false)

	orders, err := f.market.Checkout(ctx, buyer, []domain.CartEntry{
		{ProductID: first.ID, Quantity: 2},
		{ProductID: scarce.ID, Quantity: 3},
		{ProductID: third.ID, Quantity: 4},
	}, address, domain.PaymentCash)
	assert.Nil(t, orders)

	var checkoutErr *domain.CheckoutError
	require.True(t, errors.As(err, &checkoutErr))
	assert.Equal(t, []uint64{scarce.ID}, checkoutErr.ProductIDs())
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	assert.Zero(t, f.ordRepo.Count())
	assert.Equal(t, 10, f.stock(t, first.ID))
	assert.Equal(t, 1, f.stock(t, scarce.ID))
	assert.Equal(t, 10, f.stock(t, third.ID))
	assert.Zero(t, f.events.count(domain.EventOrderCreated))
}

func TestMarketplace_CheckoutReportsEveryFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ok := f.listProduct(t, 100, 10, false)
	delisted := f.listProduct(t, 100, 10, false)
	_, err := f.catalog.Delist(ctx, farmer, delisted.ID)
	require.NoError(t, err)

	_, err = f.market.Checkout(ctx, buyer, []domain.CartEntry{
		{ProductID: 999, Quantity: 1},
		{ProductID: ok.ID, Quantity: 1},
		{ProductID: delisted.ID, Quantity: 1},
	}, address, domain.PaymentCash)

	var checkoutErr *domain.CheckoutError
	require.True(t, errors.As(err, &checkoutErr))
	assert.Equal(t, []uint64{999, delisted.ID}, checkoutErr.ProductIDs())
	assert.ErrorIs(t, checkoutErr.Failures[0].Err, domain.ErrNotFound)
	assert.ErrorIs(t, checkoutErr.Failures[1].Err, domain.ErrProductUnavailable)
	assert.Equal(t, 10, f.stock(t, ok.ID))
}

func TestMarketplace_CheckoutValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.listProduct(t, 100, 10, false)
	entries := []domain.CartEntry{{ProductID: p.ID, Quantity: 1}}

	_, err := f.market.Checkout(ctx, buyer, nil, address, domain.PaymentCash)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.market.Checkout(ctx, buyer, entries, "", domain.PaymentCash)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.market.Checkout(ctx, buyer, entries, address, "barter")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.market.Checkout(ctx, farmer, entries, address, domain.PaymentCash)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	assert.Equal(t, 10, f.stock(t, p.ID))
}

func TestMarketplace_CheckoutRejectsNonPositiveLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.listProduct(t, 100, 10, false)
	q := f.listProduct(t, 100, 10, false)

	_, err := f.market.Checkout(ctx, buyer, []domain.CartEntry{
		{ProductID: p.ID, Quantity: 5},
		{ProductID: p.ID, Quantity: -3},
		{ProductID: q.ID, Quantity: 0},
	}, address, domain.PaymentCash)

	var checkoutErr *domain.CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, []uint64{p.ID, q.ID}, checkoutErr.ProductIDs())
	assert.Equal(t, -3, checkoutErr.Failures[0].Quantity)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, 10, f.stock(t, p.ID))
	assert.Equal(t, 10, f.stock(t, q.ID))
	mine, err := f.orders.ListOrders(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestMarketplace_CheckoutSaveFailureReleasesAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.listProduct(t, 100, 10, false)
	b := f.listProduct(t, 100, 10, false)

	repo := new(mocks.MockOrderRepository)
	repo.On("SaveBatch", mock.Anything, mock.AnythingOfType("[]*domain.Order")).Return(errors.New("database error"))
	orders := NewOrderService(repo, f.catalog, nil, zap.NewNop())
	market := NewMarketplace(f.catalog, f.bids, orders, f.carts, nil, zap.NewNop())

	_, err := market.Checkout(ctx, buyer, []domain.CartEntry{
		{ProductID: a.ID, Quantity: 3},
		{ProductID: b.ID, Quantity: 4},
	}, address, domain.PaymentCash)
	assert.EqualError(t, err, "database error")
	assert.Equal(t, 10, f.stock(t, a.ID))
	assert.Equal(t, 10, f.stock(t, b.ID))
	repo.AssertExpectations(t)
}

func TestMarketplace_CheckoutCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.listProduct(t, 100, 3, false)
	b := f.listProduct(t, 100, 3, false)

	_, err := f.carts.Add(ctx, buyer, a.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, buyer, b.ID, 3)
	require.NoError(t, err)

	// Someone else buys b out after it went into the cart.
	_, err = f.orders.CreateOrder(ctx, otherBuyer, orderReq(b.ID, 2))
	require.NoError(t, err)

	_, err = f.market.CheckoutCart(ctx, buyer, address, domain.PaymentCash)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	cart, err := f.carts.Get(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, cart.Entries, 2, "failed checkout keeps the cart")
	assert.Equal(t, 3, f.stock(t, a.ID))

	_, err = f.carts.SetQuantity(ctx, buyer, b.ID, 1)
	require.NoError(t, err)
	orders, err := f.market.CheckoutCart(ctx, buyer, address, domain.PaymentCash)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	cart, err = f.carts.Get(ctx, buyer)
	require.NoError(t, err)
	assert.True(t, cart.Empty())
	assert.Equal(t, 1, f.stock(t, a.ID))
	assert.Equal(t, 0, f.stock(t, b.ID))
}
