package httpx

import (
	"net/http"
	"net/url"

	"github.com/target/petalcart/internal/domain/access"
	apperrors "github.com/target/petalcart/internal/errors"
)

// NavigationHandlers exposes the route gate to client-side navigation.
type NavigationHandlers struct {
	Gate access.Gate
}

type navigationResponse struct {
	Path            string          `json:"path"`
	Decision        access.Decision `json:"decision"`
	RedirectTo      string          `json:"redirect_to,omitempty"`
	State           access.State    `json:"state"`
	AdminAffordance bool            `json:"admin_affordance"`
}

// Check evaluates a prospective navigation for the caller.
// GET /api/navigation?path=/admin/orders.
func (h *NavigationHandlers) Check(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		WriteAppError(w, apperrors.ValidationField("path", "path is required"))
		return
	}
	p := PrincipalFromContext(r.Context())
	d := h.Gate.Decide(p, path)
	WriteJSON(w, http.StatusOK, navigationResponse{
		Path:            path,
		Decision:        d,
		RedirectTo:      redirectTarget(d, path),
		State:           access.StateOf(p),
		AdminAffordance: access.CanRenderAdminAffordance(p),
	})
}

// redirectTarget returns where the client should go for d. Login redirects carry the
// original path so the visitor lands back on it after signing in.
func redirectTarget(d access.Decision, requested string) string {
	target := d.Target()
	if d != access.RedirectToLogin {
		return target
	}
	back := safeRedirectPath(requested)
	if back == "/" || back == target {
		return target
	}
	return target + "?" + url.Values{"redirect_uri": {back}}.Encode()
}
