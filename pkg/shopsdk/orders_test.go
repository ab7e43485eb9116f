package shopsdk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckout(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	beans := h.api.AddProduct("Beans", "", 4999, 5)
	orders := NewOrders(h.transport)
	cart := NewCart(h.transport)

	_, err := orders.Checkout(ctx, cart)
	require.ErrorIs(t, err, ErrAuthentication)

	h.login(t)
	require.NoError(t, cart.AddItem(ctx, CartLine{ProductID: beans, Quantity: 2}))

	o, err := orders.Checkout(ctx, cart)
	require.NoError(t, err)
	require.Equal(t, OrderPending, o.Status)
	require.Equal(t, Money(9998), o.TotalAmount)
	require.NotEmpty(t, o.Reference)
	require.Zero(t, cart.Snapshot().Len())
	require.Equal(t, 3, h.api.Stock(beans))

	list, err := orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, o.ID, list[0].ID)

	got, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, "Beans", got.Items[0].Product.Name)

	// Shoppers cannot move orders along.
	_, err = orders.UpdateStatus(ctx, o.ID, OrderShipped)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = orders.UpdateStatus(ctx, o.ID, "lost")
	require.ErrorIs(t, err, ErrValidation)
}

func TestCheckoutEmptyCart(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.login(t)

	_, err := NewOrders(h.transport).Checkout(context.Background(), NewCart(h.transport))
	require.ErrorIs(t, err, ErrValidation)
	require.Zero(t, h.api.Calls("POST /orders"))
}
