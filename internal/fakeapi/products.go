package fakeapi

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/aussiebroadwan/storefront/pkg/httpx"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// AddProduct puts a product in the catalog and returns its id.
func (s *Server) AddProduct(name, description string, priceCents int64, stock int, images ...string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &product{
		ID:          s.nextIDLocked("product"),
		Name:        name,
		Description: description,
		Price:       decimal(priceCents),
		Stock:       stock,
		Images:      append([]string{}, images...),
	}
	s.products = append(s.products, p)
	return p.ID
}

// Stock returns the stock level of a product, or -1 when it does not exist.
func (s *Server) Stock(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.productLocked(productID); p != nil {
		return p.Stock
	}
	return -1
}

func (s *Server) productLocked(id int64) *product {
	i := slices.IndexFunc(s.products, func(p *product) bool { return p.ID == id })
	if i < 0 {
		return nil
	}
	return s.products[i]
}

func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(r, "page", 1)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, ok := queryInt(r, "limit", defaultPageLimit)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	limit = min(limit, maxPageLimit)

	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.products)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	out := productPage{Data: make([]product, 0, end-start), Total: total, Page: page, Limit: limit}
	for _, p := range s.products[start:end] {
		out.Data = append(out.Data, *p)
	}
	httpx.WriteData(w, http.StatusOK, out)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.productLocked(id)
	if p == nil {
		httpx.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	httpx.WriteData(w, http.StatusOK, *p)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in productInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if problems := in.problems(true); len(problems) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, problems...)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := &product{ID: s.nextIDLocked("product"), Images: []string{}}
	p.apply(in)
	s.products = append(s.products, p)
	httpx.WriteData(w, http.StatusCreated, *p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in productInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if problems := in.problems(false); len(problems) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, problems...)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.productLocked(id)
	if p == nil {
		httpx.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	p.apply(in)
	httpx.WriteData(w, http.StatusOK, *p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.products)
	s.products = slices.DeleteFunc(s.products, func(p *product) bool { return p.ID == id })
	if len(s.products) == before {
		httpx.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
