package services

import (
	"context"
	"testing"

	"marketplace-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddMergesAndClamps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.listProduct(t, 100, 5, false)

	cart, err := f.carts.Add(ctx, buyer, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Entries, 1)
	assert.Equal(t, 2, cart.Entries[0].Quantity)

	cart, err = f.carts.Add(ctx, buyer, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, cart.Entries, 1)
	assert.Equal(t, 5, cart.Entries[0].Quantity)

	assert.Equal(t, 5, f.stock(t, p.ID), "carts never reserve")
}

func TestCartService_AddRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	soldOut := f.listProduct(t, 100, 0, false)
	delisted := f.listProduct(t, 100, 5, false)
	_, err := f.catalog.Delist(ctx, farmer, delisted.ID)
	require.NoError(t, err)

	_, err = f.carts.Add(ctx, buyer, soldOut.ID, 1)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	_, err = f.carts.Add(ctx, buyer, delisted.ID, 1)
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)

	_, err = f.carts.Add(ctx, buyer, 999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.carts.Add(ctx, farmer, delisted.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	cart, err := f.carts.Get(ctx, buyer)
	require.NoError(t, err)
	assert.True(t, cart.Empty())
}

func TestCartService_SetQuantityRemoveClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.listProduct(t, 100, 4, false)
	b := f.listProduct(t, 50, 9, false)

	_, err := f.carts.Add(ctx, buyer, a.ID, 1)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, buyer, b.ID, 1)
	require.NoError(t, err)

	cart, err := f.carts.SetQuantity(ctx, buyer, a.ID, 40)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Entries[0].Quantity)

	cart, err = f.carts.SetQuantity(ctx, buyer, a.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Entries[0].Quantity)

	_, err = f.carts.SetQuantity(ctx, buyer, 999, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cart, err = f.carts.Remove(ctx, buyer, a.ID)
	require.NoError(t, err)
	require.Len(t, cart.Entries, 1)
	assert.Equal(t, b.ID, cart.Entries[0].ProductID)

	_, err = f.carts.Remove(ctx, buyer, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.carts.Clear(ctx, buyer))
	cart, err = f.carts.Get(ctx, buyer)
	require.NoError(t, err)
	assert.True(t, cart.Empty())
}
