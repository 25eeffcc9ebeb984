package httpx

import (
	"context"
	"net/http"

	"github.com/target/petalcart/internal/domain/cart"
)

// CatalogueWriter saves catalogue entries.
type CatalogueWriter interface {
	Save(ctx context.Context, p *cart.Product) (*cart.Product, error)
}

// AdminHandlers serves admin-only operations. Routes are wrapped with RequireAdmin.
type AdminHandlers struct {
	Catalogue CatalogueWriter
}

type saveProductRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Price         int64   `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	ImageURL      *string `json:"image_url"`
	Active        *bool   `json:"active"`
}

// SaveProduct creates or updates a product by name.
// PUT /api/admin/products.
func (h *AdminHandlers) SaveProduct(w http.ResponseWriter, r *http.Request) {
	var req saveProductRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	saved, err := h.Catalogue.Save(r.Context(), &cart.Product{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Price:         cart.Money(req.Price),
		StockQuantity: max(req.StockQuantity, 0),
		ImageURL:      req.ImageURL,
		Active:        active,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, saved)
}
