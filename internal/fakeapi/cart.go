package fakeapi

import (
	"net/http"
	"slices"

	"github.com/aussiebroadwan/storefront/pkg/httpx"
)

// cartViewLocked renders a user's cart. Lines whose product has been deleted
// are skipped.
func (s *Server) cartViewLocked(userID int64) cartView {
	out := cartView{Items: []cartLineView{}}
	for _, it := range s.carts[userID] {
		p := s.productLocked(it.ProductID)
		if p == nil {
			continue
		}
		line := cartLineView{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: it.Quantity}
		if len(p.Images) > 0 {
			line.Image = p.Images[0]
		}
		out.Items = append(out.Items, line)
		out.TotalQuantity += it.Quantity
		out.TotalAmount += p.Price * decimal(it.Quantity)
	}
	return out
}

// CartQuantity returns how many units of productID are in userID's cart.
func (s *Server) CartQuantity(userID, productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.carts[userID] {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// withUser runs fn for the authenticated caller while holding the lock.
func (s *Server) withUser(w http.ResponseWriter, r *http.Request, fn func(u *user)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.currentUserLocked(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unknown user")
		return
	}
	fn(u)
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s.withUser(w, r, func(u *user) {
		httpx.WriteData(w, http.StatusOK, s.cartViewLocked(u.ID))
	})
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req orderLine
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity < 1 {
		httpx.WriteError(w, http.StatusBadRequest, "quantity must not be less than 1")
		return
	}

	s.withUser(w, r, func(u *user) {
		if s.productLocked(req.ProductID) == nil {
			httpx.WriteError(w, http.StatusNotFound, "Product not found")
			return
		}

		items := s.carts[u.ID]
		if i := slices.IndexFunc(items, func(it cartItem) bool { return it.ProductID == req.ProductID }); i >= 0 {
			items[i].Quantity += req.Quantity
		} else {
			items = append(items, cartItem{ProductID: req.ProductID, Quantity: req.Quantity})
		}
		s.carts[u.ID] = items
		httpx.WriteData(w, http.StatusCreated, s.cartViewLocked(u.ID))
	})
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	s.withUser(w, r, func(u *user) {
		items := s.carts[u.ID]
		i := slices.IndexFunc(items, func(it cartItem) bool { return it.ProductID == productID })
		if i < 0 {
			httpx.WriteError(w, http.StatusNotFound, "Cart item not found")
			return
		}
		if req.Quantity <= 0 {
			items = slices.Delete(items, i, i+1)
		} else {
			items[i].Quantity = req.Quantity
		}
		s.carts[u.ID] = items
		httpx.WriteData(w, http.StatusOK, s.cartViewLocked(u.ID))
	})
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}

	s.withUser(w, r, func(u *user) {
		items := s.carts[u.ID]
		i := slices.IndexFunc(items, func(it cartItem) bool { return it.ProductID == productID })
		if i < 0 {
			httpx.WriteError(w, http.StatusNotFound, "Cart item not found")
			return
		}
		s.carts[u.ID] = slices.Delete(items, i, i+1)
		httpx.WriteData(w, http.StatusOK, s.cartViewLocked(u.ID))
	})
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.withUser(w, r, func(u *user) {
		delete(s.carts, u.ID)
		httpx.WriteData(w, http.StatusOK, s.cartViewLocked(u.ID))
	})
}
