package shopsdk

// DefaultItemsPerPage is the page size of a fresh PageWindow.
const DefaultItemsPerPage = 10

// PageWindow locates the current page within a paged listing.
//
// TotalPages is ceil(TotalItems/ItemsPerPage) and CurrentPage always lies in
// [1, max(1, TotalPages)]. An empty listing has zero pages but still shows
// page 1.
type PageWindow struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
}

// NewPageWindow returns the window before anything has been fetched.
func NewPageWindow(itemsPerPage int) PageWindow {
	if itemsPerPage < 1 {
		itemsPerPage = DefaultItemsPerPage
	}
	return PageWindow{CurrentPage: 1, ItemsPerPage: itemsPerPage, TotalPages: 0}.normalize()
}

// Apply folds a fetched page's metadata into the window.
func (w PageWindow) Apply(page ProductPage) PageWindow {
	w.TotalItems = max(page.Total, 0)
	if page.Limit > 0 {
		w.ItemsPerPage = page.Limit
	}
	if page.Page > 0 {
		w.CurrentPage = page.Page
	}
	return w.normalize()
}

// WithPage moves to page n, clamped into range.
func (w PageWindow) WithPage(n int) PageWindow {
	w.CurrentPage = n
	return w.normalize()
}

// WithItemsPerPage changes the page size and returns to the first page.
// Sizes below 1 are ignored.
func (w PageWindow) WithItemsPerPage(n int) PageWindow {
	if n < 1 {
		return w
	}
	w.ItemsPerPage = n
	w.CurrentPage = 1
	return w.normalize()
}

// HasNext reports whether a page follows the current one.
func (w PageWindow) HasNext() bool { return w.CurrentPage < w.TotalPages }

// HasPrev reports whether a page precedes the current one.
func (w PageWindow) HasPrev() bool { return w.CurrentPage > 1 }

func (w PageWindow) normalize() PageWindow {
	if w.ItemsPerPage < 1 {
		w.ItemsPerPage = DefaultItemsPerPage
	}
	w.TotalPages = w.TotalItems / w.ItemsPerPage
	if w.TotalItems%w.ItemsPerPage != 0 {
		w.TotalPages++
	}
	w.CurrentPage = clamp(w.CurrentPage, 1, max(1, w.TotalPages))
	return w
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
