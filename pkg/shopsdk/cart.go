package shopsdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
)

// CartState is a read-only view of the cart.
type CartState struct {
	Snapshot CartSnapshot

	// Err is the failure of the most recent cart operation, nil once an
	// operation succeeds again.
	Err error

	// Pending counts mutating requests still in flight.
	Pending int

	// Version increases every time the snapshot is replaced.
	Version uint64
}

// Cart owns the cart snapshot and keeps it in step with the server.
//
// Quantity edits are optimistic: they show up immediately and are either
// replaced by the server's echo or rolled back. Fetch, AddItem, RemoveItem
// and Clear wait for the server, whose snapshot then replaces the local one.
// Completions are applied in arrival order, so when requests overlap the last
// response to land wins until the next Fetch.
//
// Without a credential the cart is a local guest cart and never calls the
// API.
type Cart struct {
	transport *Transport
	log       *slog.Logger

	mu      sync.Mutex
	snap    CartSnapshot
	version uint64
	err     error
	pending int
}

// NewCart creates an empty cart synchronised through t.
func NewCart(t *Transport) *Cart {
	return &Cart{
		transport: t,
		log:       t.client.Logger.With("component", "cart"),
	}
}

// Snapshot returns the current snapshot.
func (c *Cart) Snapshot() CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// State returns the snapshot together with error and in-flight bookkeeping.
func (c *Cart) State() CartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CartState{
		Snapshot: c.snap.clone(),
		Err:      c.err,
		Pending:  c.pending,
		Version:  c.version,
	}
}

// Reset empties the local cart without telling the server.
func (c *Cart) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
	c.replaceLocked(CartSnapshot{})
}

func (c *Cart) guest() bool {
	return !c.transport.session.Authenticated()
}

func (c *Cart) replaceLocked(s CartSnapshot) {
	c.snap = s
	c.version++
}

func (c *Cart) applyLocal(fn func(CartSnapshot) CartSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
	c.replaceLocked(fn(c.snap))
}

func itemPath(productID int64) string {
	return "/cart/items/" + strconv.FormatInt(productID, 10)
}

// ============================================================================
// Server-confirmed operations
// ============================================================================

// Fetch replaces the local snapshot with the server's cart.
func (c *Cart) Fetch(ctx context.Context) error {
	if c.guest() {
		return nil
	}
	return c.confirm(ctx, "fetch", Call{Method: http.MethodGet, Path: "/cart"})
}

// AddItem adds line.Quantity (at least one) units of a product.
func (c *Cart) AddItem(ctx context.Context, line CartLine) error {
	if line.ProductID <= 0 {
		return fmt.Errorf("%w: product id must be positive", ErrValidation)
	}
	if c.guest() {
		c.applyLocal(func(s CartSnapshot) CartSnapshot { return s.WithAdded(line) })
		return nil
	}

	return c.confirm(ctx, "add", Call{
		Method: http.MethodPost,
		Path:   "/cart/items",
		Body:   OrderLine{ProductID: line.ProductID, Quantity: max(line.Quantity, 1)},
	})
}

// RemoveItem drops a product's line.
func (c *Cart) RemoveItem(ctx context.Context, productID int64) error {
	if c.guest() {
		c.applyLocal(func(s CartSnapshot) CartSnapshot { return s.Without(productID) })
		return nil
	}
	return c.confirm(ctx, "remove", Call{Method: http.MethodDelete, Path: itemPath(productID)})
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	if c.guest() {
		c.applyLocal(func(CartSnapshot) CartSnapshot { return CartSnapshot{} })
		return nil
	}
	return c.confirm(ctx, "clear", Call{Method: http.MethodDelete, Path: "/cart"})
}

// confirm sends call and, on success, replaces the snapshot with the server's.
// On failure the last known good snapshot stays and the error is recorded.
func (c *Cart) confirm(ctx context.Context, op string, call Call) error {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()

	var server CartSnapshot
	err := c.transport.Do(ctx, call, &server)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--

	if err != nil {
		c.err = err
		c.log.Warn("cart "+op+" failed", "err", err)
		return err
	}

	c.err = nil
	c.replaceLocked(NewCartSnapshot(server.Lines))
	return nil
}

// ============================================================================
// Optimistic operations
// ============================================================================

// UpdateQuantity sets a line's quantity (0 or less removes it). The change is
// visible immediately; the server's echo then replaces the snapshot, or on
// failure the edit is rolled back.
func (c *Cart) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	guest := c.guest()

	c.mu.Lock()
	before := c.snap
	prevLine, ok := before.Line(productID)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: product %d", ErrLineNotFound, productID)
	}

	next, _ := before.WithQuantity(productID, quantity)
	c.replaceLocked(next)
	applied := c.version

	if guest {
		c.err = nil
		c.mu.Unlock()
		return nil
	}
	c.pending++
	c.mu.Unlock()

	call := Call{Method: http.MethodPatch, Path: itemPath(productID), Body: map[string]int{"quantity": quantity}}
	if quantity <= 0 {
		call = Call{Method: http.MethodDelete, Path: itemPath(productID)}
	}

	var server CartSnapshot
	err := c.transport.Do(ctx, call, &server)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--

	if err != nil {
		c.err = err
		if c.version == applied {
			c.replaceLocked(before)
		} else {
			// Something else landed meanwhile; revert only this line.
			c.replaceLocked(c.snap.withLine(prevLine))
		}
		c.log.Warn("cart quantity update rolled back", "product_id", productID, "err", err)
		return err
	}

	c.err = nil
	c.replaceLocked(NewCartSnapshot(server.Lines))
	return nil
}
