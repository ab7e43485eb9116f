package shopsdk

import "slices"

// CartLine is one product in the cart. Quantity is at least 1 in any
// snapshot; a line whose quantity reaches 0 is removed.
type CartLine struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"price"`
	Quantity  int    `json:"quantity"`
	ImageRef  string `json:"image,omitempty"`
}

// CartSnapshot is an immutable cart value. The totals always describe
// exactly the lines: every method returns a new snapshot with lines and
// totals changed together.
type CartSnapshot struct {
	Lines         []CartLine `json:"items"`
	TotalQuantity int        `json:"totalQuantity"`
	TotalAmount   Money      `json:"totalAmount"`
}

// NewCartSnapshot builds a snapshot from lines as received from the server.
// Lines with quantity below 1 are dropped, repeated products are merged into
// their first occurrence, and totals are recomputed from what remains.
func NewCartSnapshot(lines []CartLine) CartSnapshot {
	var s CartSnapshot
	pos := make(map[int64]int, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		if i, ok := pos[l.ProductID]; ok {
			s.Lines[i].Quantity += l.Quantity
		} else {
			pos[l.ProductID] = len(s.Lines)
			s.Lines = append(s.Lines, l)
		}
		s.TotalQuantity += l.Quantity
		s.TotalAmount += l.UnitPrice.Times(l.Quantity)
	}
	return s
}

// Len returns the number of distinct lines.
func (s CartSnapshot) Len() int { return len(s.Lines) }

// Line returns the line for productID.
func (s CartSnapshot) Line(productID int64) (CartLine, bool) {
	if i := s.index(productID); i >= 0 {
		return s.Lines[i], true
	}
	return CartLine{}, false
}

func (s CartSnapshot) index(productID int64) int {
	return slices.IndexFunc(s.Lines, func(l CartLine) bool { return l.ProductID == productID })
}

// clone copies the snapshot so the result shares no backing array with s.
func (s CartSnapshot) clone() CartSnapshot {
	s.Lines = slices.Clone(s.Lines)
	return s
}

// WithAdded adds line.Quantity units (at least one) of line's product. An
// existing line keeps its name and price and only grows.
func (s CartSnapshot) WithAdded(line CartLine) CartSnapshot {
	qty := max(line.Quantity, 1)
	next := s.clone()

	if i := next.index(line.ProductID); i >= 0 {
		next.Lines[i].Quantity += qty
		next.TotalQuantity += qty
		next.TotalAmount += next.Lines[i].UnitPrice.Times(qty)
		return next
	}

	line.Quantity = qty
	next.Lines = append(next.Lines, line)
	next.TotalQuantity += qty
	next.TotalAmount += line.UnitPrice.Times(qty)
	return next
}

// WithQuantity sets the quantity of productID by applying the delta to the
// totals. A quantity of 0 or less removes the line. ok is false, and s is
// returned unchanged, when the product is not in the cart.
func (s CartSnapshot) WithQuantity(productID int64, quantity int) (next CartSnapshot, ok bool) {
	i := s.index(productID)
	if i < 0 {
		return s, false
	}
	if quantity <= 0 {
		return s.Without(productID), true
	}

	next = s.clone()
	delta := quantity - next.Lines[i].Quantity
	next.Lines[i].Quantity = quantity
	next.TotalQuantity += delta
	next.TotalAmount += next.Lines[i].UnitPrice.Times(delta)
	return next, true
}

// Without removes productID's line.
func (s CartSnapshot) Without(productID int64) CartSnapshot {
	i := s.index(productID)
	if i < 0 {
		return s
	}

	next := s.clone()
	gone := next.Lines[i]
	next.Lines = slices.Delete(next.Lines, i, i+1)
	next.TotalQuantity -= gone.Quantity
	next.TotalAmount -= gone.UnitPrice.Times(gone.Quantity)
	return next
}

// withLine puts line back exactly as given, inserting it when absent.
func (s CartSnapshot) withLine(line CartLine) CartSnapshot {
	if next, ok := s.WithQuantity(line.ProductID, line.Quantity); ok {
		return next
	}
	return s.WithAdded(line)
}

// OrderLines converts the cart into order request lines.
func (s CartSnapshot) OrderLines() []OrderLine {
	out := make([]OrderLine, 0, len(s.Lines))
	for _, l := range s.Lines {
		out = append(out, OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}
