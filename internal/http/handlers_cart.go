package httpx

import (
	"net/http"

	"github.com/target/petalcart/internal/domain/access"
	"github.com/target/petalcart/internal/domain/cart"
	apperrors "github.com/target/petalcart/internal/errors"
)

// CartHandlers serves the cart API. Reads and adds go through the reconciler so the
// authoritative cart is chosen per principal; line edits require a signed-in user.
type CartHandlers struct {
	Reconciler CartReconciler
	Carts      CartServiceInterface
	Products   ProductServiceInterface
}

type cartResponse struct {
	Cart         cart.Snapshot `json:"cart"`
	AuthRequired bool          `json:"auth_required,omitempty"`
	RedirectTo   string        `json:"redirect_to,omitempty"`
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// Get returns the caller's cart. Anonymous visitors always see an empty guest cart.
// GET /api/cart.
func (h *CartHandlers) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Reconciler.ComputeSnapshot(r.Context(), PrincipalFromContext(r.Context()))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cartResponse{Cart: snap})
}

// AddItem adds a product for signed-in users, or records the request for replay after
// sign-in and asks the client to navigate to the login page.
// POST /api/cart/items.
func (h *CartHandlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.ProductID <= 0 {
		WriteAppError(w, apperrors.ValidationField("product_id", "product_id must be a positive integer"))
		return
	}
	product, err := h.Products.FindByID(r.Context(), req.ProductID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	ctx := r.Context()
	res, err := h.Reconciler.OnAddToCartRequested(ctx, *product, req.Quantity,
		PrincipalFromContext(ctx), GuestIDFromContext(ctx))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if res.AuthRequired {
		WriteJSON(w, http.StatusAccepted, cartResponse{
			Cart:         res.Snapshot,
			AuthRequired: true,
			RedirectTo:   access.RedirectToLogin.Target(),
		})
		return
	}
	WriteJSON(w, http.StatusOK, cartResponse{Cart: res.Snapshot})
}

// UpdateItem sets a line's quantity; a quantity below one removes the line.
// PUT /api/cart/items/{id}.
func (h *CartHandlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		WriteAppError(w, err)
		return
	}
	var req updateItemRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	userID := PrincipalFromContext(r.Context()).UserID()
	snap, err := h.Carts.UpdateItem(r.Context(), userID, itemID, req.Quantity)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cartResponse{Cart: snap})
}

// RemoveItem deletes a line.
// DELETE /api/cart/items/{id}.
func (h *CartHandlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		WriteAppError(w, err)
		return
	}
	userID := PrincipalFromContext(r.Context()).UserID()
	snap, err := h.Carts.RemoveItem(r.Context(), userID, itemID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cartResponse{Cart: snap})
}

// Clear empties the cart.
// DELETE /api/cart.
func (h *CartHandlers) Clear(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Carts.Clear(r.Context(), PrincipalFromContext(r.Context()).UserID())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cartResponse{Cart: snap})
}
