package httpx

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/petalcart/internal/domain/auth"
)

func cartOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	c, ok := body["cart"].(map[string]any)
	require.True(t, ok, "response has no cart: %v", body)
	return c
}

func TestRouter_GuestAddThenRegisterReplaysOnce(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": 1, "quantity": 2})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["auth_required"])
	assert.Equal(t, "/login", body["redirect_to"])
	assert.Equal(t, true, cartOf(t, body)["guest"])
	assert.Empty(t, cartOf(t, body)["lines"])

	guest := findCookie(rec, CookieGuestID)
	require.NotNil(t, guest)
	pending, ok := env.guests.Pending(guest.Value)
	require.True(t, ok)
	assert.Equal(t, int64(1), pending.ProductID)
	assert.Equal(t, 2, pending.Quantity)

	rec = env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Daisy", "email": "daisy@example.com", "password": "correct-horse",
	}, guest)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "authenticated_client", body["state"])
	assert.Equal(t, false, body["admin_affordance"])
	recon, ok := body["reconciliation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "applied", recon["status"])
	assert.InDelta(t, 2, cartOf(t, recon)["total_items"], 0)
	assert.InDelta(t, 2*2999, cartOf(t, recon)["total_price"], 0)

	session := findCookie(rec, CookieSessionToken)
	require.NotNil(t, session)
	assert.Equal(t, 0, env.guests.Len())

	rec = env.do(t, http.MethodGet, "/api/cart", nil, session, guest)
	require.Equal(t, http.StatusOK, rec.Code)
	c := cartOf(t, decodeBody(t, rec))
	assert.Equal(t, false, c["guest"])
	assert.InDelta(t, 2, c["total_items"], 0)

	// Signing in again must not replay the same action twice.
	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "daisy@example.com", "password": "correct-horse",
	}, guest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	recon = decodeBody(t, rec)["reconciliation"].(map[string]any)
	assert.Equal(t, "none", recon["status"])
	assert.InDelta(t, 2, cartOf(t, recon)["total_items"], 0)
}

func TestRouter_AnonymousCartIsEmptyGuestCart(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c := cartOf(t, decodeBody(t, rec))
	assert.Equal(t, true, c["guest"])
	assert.InDelta(t, 0, c["total_items"], 0)
	assert.NotNil(t, findCookie(rec, CookieGuestID))
}

func TestRouter_AnonymousAddValidatesStock(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": 1, "quantity": 6})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "validation", body["error"])
	assert.Equal(t, "quantity", body["field"])
	assert.Equal(t, 0, env.guests.Len())

	rec = env.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": 99, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": 1, "qty": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeBody(t, rec)["error"])
}

func TestRouter_AuthenticatedCartEdits(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "iris@example.com")

	rec := env.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": 2, "quantity": 3}, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := cartOf(t, decodeBody(t, rec))
	lines := c["lines"].([]any)
	require.Len(t, lines, 1)
	itemID := int64(lines[0].(map[string]any)["item_id"].(float64))

	rec = env.do(t, http.MethodPost, "/api/cart/items", map[string]any{"product_id": 2, "quantity": 8}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/cart/items/"+itoa(itemID), map[string]any{"quantity": 5}, session)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.InDelta(t, 5, cartOf(t, decodeBody(t, rec))["total_items"], 0)

	rec = env.do(t, http.MethodPut, "/api/cart/items/abc", map[string]any{"quantity": 5}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/cart/items/"+itoa(itemID), nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0, cartOf(t, decodeBody(t, rec))["total_items"], 0)

	rec = env.do(t, http.MethodDelete, "/api/cart/items/"+itoa(itemID), nil, session)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/cart", nil, session)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CartEditsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodDelete, "/api/cart"},
		{http.MethodPut, "/api/cart/items/1"},
		{http.MethodDelete, "/api/cart/items/1"},
	} {
		rec := env.do(t, tc.method, tc.path, map[string]any{"quantity": 1})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
		assert.Equal(t, "authentication_required", decodeBody(t, rec)["error"])
	}
}

func TestRouter_OrphanedCookieIsCleared(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "rose@example.com")

	rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["authenticated"])
	cleared := findCookie(rec, CookieSessionToken)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
	assert.Equal(t, 0, env.sessions.Len())

	// The browser still presents the stale token.
	rec = env.do(t, http.MethodGet, "/api/auth/status", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["authenticated"])
	assert.Equal(t, "anonymous", body["state"])
	cleared = findCookie(rec, CookieSessionToken)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestRouter_BearerTokenAuthenticates(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "tulip@example.com")

	req := newRequest(http.MethodGet, "/api/auth/status")
	req.Header.Set("Authorization", "Bearer "+session.Value)
	rec := serve(env.handler, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "authenticated_client", body["state"])
}

func TestRouter_LoginErrorsAndThrottle(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "poppy@example.com")

	creds := map[string]string{"email": "poppy@example.com", "password": "wrong-password"}
	for range 5 {
		rec := env.do(t, http.MethodPost, "/api/auth/login", creds)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password.", decodeBody(t, rec)["message"])
	}
	rec := env.do(t, http.MethodPost, "/api/auth/login", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Again", "email": "poppy@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_NavigationDecisions(t *testing.T) {
	env := newTestEnv(t)
	client := env.register(t, "fern@example.com")

	tests := []struct {
		name     string
		path     string
		cookie   bool
		decision string
		target   string
	}{
		{"anonymous public", "/products/12", false, "allow", ""},
		{"anonymous private", "/checkout", false, "redirect_to_login", "/login?redirect_uri=%2Fcheckout"},
		{"anonymous admin", "/admin", false, "redirect_to_login", "/login?redirect_uri=%2Fadmin"},
		{"client admin", "/admin/orders", true, "redirect_to_home", "/"},
		{"client private", "/checkout", true, "allow", ""},
		{"malformed", "//evil.example/admin", true, "redirect_to_denied", "/denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.cookie {
				cookies = append(cookies, client)
			}
			rec := env.do(t, http.MethodGet, "/api/navigation?path="+queryEscape(tt.path), nil, cookies...)
			require.Equal(t, http.StatusOK, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.decision, body["decision"])
			if tt.target == "" {
				assert.NotContains(t, body, "redirect_to")
			} else {
				assert.Equal(t, tt.target, body["redirect_to"])
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/api/navigation", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_PagesAreGated(t *testing.T) {
	env := newTestEnv(t)
	client := env.register(t, "ivy@example.com")
	env.register(t, "admin@example.com")
	_, err := env.users.SetRole(context.Background(), "admin@example.com", domainauth.RoleAdmin)
	require.NoError(t, err)
	rec := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "admin@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["admin_affordance"])
	admin := findCookie(rec, CookieSessionToken)

	rec = env.do(t, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?redirect_uri=%2Fcart", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign in")

	// Escaped segments are decoded once; "%2570" is a literal "%70", not "p".
	rec = env.do(t, http.MethodGet, "/%2570roducts", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?"), rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/%61dmin", nil, client)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), `href="/admin"`)

	rec = env.do(t, http.MethodGet, "/admin", nil, client)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/cart", nil, client)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `href="/admin"`)

	rec = env.do(t, http.MethodGet, "/admin", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/admin"`)

	rec = env.do(t, http.MethodGet, "/denied", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_AdminCatalogue(t *testing.T) {
	env := newTestEnv(t)
	client := env.register(t, "moss@example.com")
	product := map[string]any{"name": "Sunflowers", "category": "bouquets", "price": 1800, "stock_quantity": 12}

	rec := env.do(t, http.MethodPut, "/api/admin/products", product)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/admin/products", product, client)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, err := env.users.SetRole(context.Background(), "moss@example.com", domainauth.RoleAdmin)
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "moss@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	admin := findCookie(rec, CookieSessionToken)

	rec = env.do(t, http.MethodPut, "/api/admin/products", product, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Sunflowers", body["name"])
	assert.Equal(t, true, body["active"])

	rec = env.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["products"], 3)
}

func TestRouter_Health(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, healthResponse, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
