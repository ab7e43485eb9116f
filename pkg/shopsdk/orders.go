package shopsdk

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Orders reads and places orders for the session's user.
type Orders struct {
	transport *Transport
}

// NewOrders creates an orders client.
func NewOrders(t *Transport) *Orders {
	return &Orders{transport: t}
}

func orderPath(id int64) string {
	return "/orders/" + strconv.FormatInt(id, 10)
}

// List returns the user's orders, newest first.
func (o *Orders) List(ctx context.Context) ([]Order, error) {
	var out []Order
	if err := o.transport.Do(ctx, Call{Method: http.MethodGet, Path: "/orders"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one order.
func (o *Orders) Get(ctx context.Context, id int64) (*Order, error) {
	var out Order
	if err := o.transport.Do(ctx, Call{Method: http.MethodGet, Path: orderPath(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create places an order for the given lines.
func (o *Orders) Create(ctx context.Context, lines []OrderLine) (*Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order has no lines", ErrValidation)
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d has quantity %d", ErrValidation, l.ProductID, l.Quantity)
		}
	}

	var out Order
	body := map[string][]OrderLine{"items": lines}
	if err := o.transport.Do(ctx, Call{Method: http.MethodPost, Path: "/orders", Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus moves an order to status. Sellers and admins only.
func (o *Orders) UpdateStatus(ctx context.Context, id int64, status OrderStatus) (*Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrValidation, status)
	}

	var out Order
	body := map[string]OrderStatus{"status": status}
	if err := o.transport.Do(ctx, Call{Method: http.MethodPatch, Path: orderPath(id), Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Checkout places an order for everything in cart and then clears it. A
// failed clear is reported but the order stands.
func (o *Orders) Checkout(ctx context.Context, cart *Cart) (*Order, error) {
	if !o.transport.session.Authenticated() {
		return nil, fmt.Errorf("%w: sign in to check out", ErrAuthentication)
	}

	order, err := o.Create(ctx, cart.Snapshot().OrderLines())
	if err != nil {
		return nil, err
	}
	if err := cart.Clear(ctx); err != nil {
		return order, fmt.Errorf("order %d placed but cart not cleared: %w", order.ID, err)
	}
	return order, nil
}
