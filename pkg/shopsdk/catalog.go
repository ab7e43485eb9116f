package shopsdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"
)

// CatalogState is a read-only view of the catalog.
type CatalogState struct {
	Items   []Product
	Window  PageWindow
	Loading bool

	// Err is the failure of the most recent fetch or product mutation.
	Err error
}

// Catalog pages through the product listing. It keeps the current page's
// items and its window. When fetches overlap only the most recently issued
// one is applied; earlier responses are dropped when they arrive.
type Catalog struct {
	transport *Transport
	log       *slog.Logger

	mu      sync.Mutex
	items   []Product
	window  PageWindow
	err     error
	issued  uint64
	applied uint64
}

// NewCatalog creates a catalog with an empty window of itemsPerPage
// (DefaultItemsPerPage when below 1).
func NewCatalog(t *Transport, itemsPerPage int) *Catalog {
	return &Catalog{
		transport: t,
		log:       t.client.Logger.With("component", "catalog"),
		window:    NewPageWindow(itemsPerPage),
	}
}

// State returns the current items and window.
func (c *Catalog) State() CatalogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CatalogState{
		Items:   slices.Clone(c.items),
		Window:  c.window,
		Loading: c.applied < c.issued,
		Err:     c.err,
	}
}

// Window returns the current page window.
func (c *Catalog) Window() PageWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}

// SetPage moves the window to page n, clamped into range. It does not fetch.
func (c *Catalog) SetPage(n int) PageWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = c.window.WithPage(n)
	return c.window
}

// SetItemsPerPage changes the page size and returns to page 1. It does not
// fetch.
func (c *Catalog) SetItemsPerPage(n int) PageWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = c.window.WithItemsPerPage(n)
	return c.window
}

// Refresh fetches the page the window currently points at.
func (c *Catalog) Refresh(ctx context.Context) error {
	w := c.Window()
	return c.FetchPage(ctx, w.CurrentPage, w.ItemsPerPage)
}

// FetchPage loads one page of products and recomputes the window from the
// response. On failure the previous items stay. A response that arrives after
// a later fetch was issued is discarded without touching state.
func (c *Catalog) FetchPage(ctx context.Context, page, limit int) error {
	if limit < 1 {
		limit = c.Window().ItemsPerPage
	}
	page = max(page, 1)

	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var resp ProductPage
	err := c.transport.Do(ctx, Call{Method: http.MethodGet, Path: "/products", Query: q}, &resp)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.issued {
		c.log.Debug("dropping stale catalog page", "page", page, "seq", seq, "latest", c.issued)
		c.applied = max(c.applied, seq)
		return err
	}
	c.applied = seq

	if err != nil {
		c.err = err
		c.log.Warn("catalog fetch failed", "page", page, "err", err)
		return err
	}

	if resp.Limit < 1 {
		resp.Limit = limit
	}
	if resp.Page < 1 {
		resp.Page = page
	}
	c.err = nil
	c.items = resp.Data
	c.window = c.window.Apply(resp)
	return nil
}

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10)
}

// GetProduct loads a single product. The cached page is not affected.
func (c *Catalog) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	if err := c.transport.Do(ctx, Call{Method: http.MethodGet, Path: productPath(id)}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct creates a product. The new product is appended to the cached
// page when that page has room.
func (c *Catalog) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if in.Price < 0 || in.Stock < 0 {
		return nil, fmt.Errorf("%w: price and stock must not be negative", ErrValidation)
	}

	var p Product
	if err := c.transport.Do(ctx, Call{Method: http.MethodPost, Path: "/products", Body: in}, &p); err != nil {
		c.setErr(err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
	if len(c.items) < c.window.ItemsPerPage {
		c.items = append(c.items, p)
	}
	c.window.TotalItems++
	c.window = c.window.normalize()
	return &p, nil
}

// UpdateProduct patches a product and replaces its cached copy.
func (c *Catalog) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (*Product, error) {
	var p Product
	if err := c.transport.Do(ctx, Call{Method: http.MethodPatch, Path: productPath(id), Body: patch}, &p); err != nil {
		c.setErr(err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
	if i := slices.IndexFunc(c.items, func(it Product) bool { return it.ID == id }); i >= 0 {
		c.items = slices.Clone(c.items)
		c.items[i] = p
	}
	return &p, nil
}

// DeleteProduct deletes a product and drops it from the cached page.
func (c *Catalog) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.transport.Do(ctx, Call{Method: http.MethodDelete, Path: productPath(id)}, nil); err != nil {
		c.setErr(err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
	before := len(c.items)
	c.items = slices.DeleteFunc(slices.Clone(c.items), func(it Product) bool { return it.ID == id })
	if len(c.items) < before {
		c.window.TotalItems = max(c.window.TotalItems-1, 0)
		c.window = c.window.normalize()
	}
	return nil
}

func (c *Catalog) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}
