package httpx

import (
	"net/http"
	"strings"

	"github.com/target/petalcart/internal/domain/cart"
)

const (
	defaultProductPageSize = 24
	maxProductPageSize     = 100
)

// ProductHandlers serves the public catalogue.
type ProductHandlers struct {
	Svc ProductServiceInterface
}

// List returns active products.
// GET /api/products?category=&q=&limit=&offset=.
func (h *ProductHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultProductPageSize, maxProductPageSize)
	q := r.URL.Query()
	products, err := h.Svc.List(r.Context(), cart.ProductListOptions{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("q")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if products == nil {
		products = []*cart.Product{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get returns one product.
// GET /api/products/{id}.
func (h *ProductHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteAppError(w, err)
		return
	}
	p, err := h.Svc.FindByID(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}
