package fakeapi

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/aussiebroadwan/storefront/pkg/httpx"
	"github.com/aussiebroadwan/storefront/pkg/idx"
	"github.com/aussiebroadwan/storefront/pkg/slogx"
)

func (s *Server) orderLocked(id int64) *order {
	i := slices.IndexFunc(s.orders, func(o *order) bool { return o.ID == id })
	if i < 0 {
		return nil
	}
	return s.orders[i]
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	s.withUser(w, r, func(u *user) {
		out := []order{}
		for i := len(s.orders) - 1; i >= 0; i-- {
			if o := s.orders[i]; isStaff(u.Role) || o.UserID == u.ID {
				out = append(out, *o)
			}
		}
		httpx.WriteData(w, http.StatusOK, out)
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	s.withUser(w, r, func(u *user) {
		o := s.orderLocked(id)
		if o == nil || (!isStaff(u.Role) && o.UserID != u.ID) {
			httpx.WriteError(w, http.StatusNotFound, "Order not found")
			return
		}
		httpx.WriteData(w, http.StatusOK, *o)
	})
}

// handleCreateOrder places an order and takes its lines out of stock. The
// whole order is rejected when any line cannot be filled.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []orderLine `json:"items"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "items should not be empty")
		return
	}

	s.withUser(w, r, func(u *user) {
		o := &order{
			Reference: idx.New().String(),
			UserID:    u.ID,
			Status:    "pending",
			CreatedAt: s.now().UTC(),
		}
		o.UpdatedAt = o.CreatedAt

		need := make(map[int64]int, len(req.Items))
		for _, l := range req.Items {
			if l.Quantity < 1 {
				httpx.WriteError(w, http.StatusBadRequest, "quantity must not be less than 1")
				return
			}
			p := s.productLocked(l.ProductID)
			if p == nil {
				httpx.WriteError(w, http.StatusNotFound, fmt.Sprintf("Product %d not found", l.ProductID))
				return
			}
			need[p.ID] += l.Quantity
			if need[p.ID] > p.Stock {
				httpx.WriteError(w, http.StatusBadRequest, "Insufficient stock for "+p.Name)
				return
			}
			o.Items = append(o.Items, orderItem{
				ProductID: p.ID,
				Quantity:  l.Quantity,
				Price:     p.Price,
				Product:   orderItemProduct{ID: p.ID, Name: p.Name, Images: p.Images},
			})
			o.TotalAmount += p.Price * decimal(l.Quantity)
		}

		for id, n := range need {
			s.productLocked(id).Stock -= n
		}
		o.ID = s.nextIDLocked("order")
		for i := range o.Items {
			o.Items[i].ID = s.nextIDLocked("order_item")
		}
		s.orders = append(s.orders, o)

		slogx.FromContext(r.Context()).Info("order placed", "order_id", o.ID, "reference", o.Reference)
		httpx.WriteData(w, http.StatusCreated, *o)
	})
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !orderStatuses[req.Status] {
		httpx.WriteError(w, http.StatusBadRequest, "status must be one of pending, processing, shipped, delivered, cancelled")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orderLocked(id)
	if o == nil {
		httpx.WriteError(w, http.StatusNotFound, "Order not found")
		return
	}
	o.Status = req.Status
	o.UpdatedAt = s.now().UTC()
	httpx.WriteData(w, http.StatusOK, *o)
}
