package httpx

import (
	"net/http"
	"strings"
	"time"
)

// Cookie names.
const (
	CookieSessionToken      = "session_token"
	CookieGuestID           = "guest_id"
	cookieOAuthState        = "oauth_state"
	cookieOAuthNonce        = "oauth_nonce"
	cookiePostLoginRedirect = "post_login_redirect"

	oauthCookieMaxAge = 600 // 10 minutes

	// DefaultGuestCookieTTL is how long a visitor keeps the same guest id.
	DefaultGuestCookieTTL = 30 * 24 * time.Hour
)

// Cookies writes the storefront's cookies with consistent attributes.
// The zero value is usable and scopes cookies to the request host.
type Cookies struct {
	Domain   string
	GuestTTL time.Duration
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (c Cookies) set(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// Clear expires a cookie immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (c Cookies) Clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSession writes the access token cookie so it lives exactly as long as the session.
func (c Cookies) SetSession(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		c.Clear(w, r, CookieSessionToken)
		return
	}
	c.set(w, r, CookieSessionToken, token, maxAge)
}

// SetGuestID writes the visitor id cookie.
func (c Cookies) SetGuestID(w http.ResponseWriter, r *http.Request, guestID string) {
	ttl := c.GuestTTL
	if ttl <= 0 {
		ttl = DefaultGuestCookieTTL
	}
	c.set(w, r, CookieGuestID, guestID, int(ttl.Seconds()))
}

// oauthCookieParams groups values needed to set OAuth cookies (≤3 params rule).
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// SetOAuth stores OAuth state, nonce, and the post-login redirect for the callback.
func (c Cookies) SetOAuth(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	c.set(w, r, cookieOAuthState, p.State, oauthCookieMaxAge)
	c.set(w, r, cookieOAuthNonce, p.Nonce, oauthCookieMaxAge)
	c.set(w, r, cookiePostLoginRedirect, p.RedirectURI, oauthCookieMaxAge)
}

// TakePostLoginRedirect returns the stored post-login path and clears its cookie.
func (c Cookies) TakePostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	ck, err := r.Cookie(cookiePostLoginRedirect)
	if err != nil {
		return "/"
	}
	c.Clear(w, r, cookiePostLoginRedirect)
	return safeRedirectPath(ck.Value)
}
