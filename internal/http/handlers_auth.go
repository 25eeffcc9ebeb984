package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/petalcart/internal/domain/access"
	domainauth "github.com/target/petalcart/internal/domain/auth"
	"github.com/target/petalcart/internal/service"
)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc        AuthServiceInterface
	Reconciler CartReconciler
	Cookies    Cookies
	Logger     *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// authResponse is returned by every sign-in endpoint.
type authResponse struct {
	Authenticated   bool                  `json:"authenticated"`
	User            *domainauth.Principal `json:"user,omitempty"`
	State           access.State          `json:"state"`
	AdminAffordance bool                  `json:"admin_affordance"`
	ExpiresAt       string                `json:"expires_at,omitempty"`
	Reconciliation  *service.ReplayReport `json:"reconciliation,omitempty"`
	Warning         string                `json:"warning,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a client account and signs it in.
// POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domainauth.RegisterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	result, err := h.Svc.Register(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	h.completeSignIn(w, r, result, http.StatusCreated)
}

// Login verifies email and password.
// POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	result, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	h.completeSignIn(w, r, result, http.StatusOK)
}

// completeSignIn writes the session cookie, replays any deferred guest action and reports
// both. The replay finishes before the response is written, so the client never sees a
// cart that is about to change.
func (h *AuthHandlers) completeSignIn(w http.ResponseWriter, r *http.Request, result *service.LoginResult, status int) {
	h.Cookies.SetSession(w, r, result.Token, result.Session.ExpiresAt)
	resp := principalResponse(result.Principal)
	resp.ExpiresAt = result.Session.ExpiresAt.UTC().Format(time.RFC3339)

	report, err := h.reconcile(r.Context(), result.Principal)
	if err != nil {
		resp.Warning = "Your cart could not be loaded. Please refresh."
	} else {
		resp.Reconciliation = &report
		resp.Warning = report.Message
	}
	WriteJSON(w, status, resp)
}

func (h *AuthHandlers) reconcile(ctx context.Context, principal *domainauth.Principal) (service.ReplayReport, error) {
	if h.Reconciler == nil {
		return service.ReplayReport{Status: service.ReplayNone}, nil
	}
	report, err := h.Reconciler.OnPrincipalBecameAuthenticated(ctx, principal, GuestIDFromContext(ctx))
	if err != nil {
		h.logger().WarnContext(ctx, "post sign-in cart reconciliation failed",
			"user_id", principal.UserID(), "error", err)
		return service.ReplayReport{}, err
	}
	return report, nil
}

// Logout ends the session and always leaves the browser anonymous.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := requestToken(r)
	if err := h.Svc.Logout(r.Context(), token); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}
	h.Cookies.Clear(w, r, CookieSessionToken)
	WriteJSON(w, http.StatusOK, principalResponse(domainauth.Anonymous()))
}

// Status reports the principal resolved for the request.
// GET /api/auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, principalResponse(PrincipalFromContext(r.Context())))
}

func principalResponse(p *domainauth.Principal) authResponse {
	if p.IsAnonymous() {
		return authResponse{State: access.StateAnonymous}
	}
	return authResponse{
		Authenticated:   true,
		User:            p,
		State:           access.StateOf(p),
		AdminAffordance: access.CanRenderAdminAffordance(p),
	}
}

// OAuthLogin starts the identity-provider flow.
// GET /api/auth/oauth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.SSOEnabled() {
		http.NotFound(w, r)
		return
	}
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("could not start sign-in"),
		})
		return
	}

	h.Cookies.SetOAuth(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// OAuthCallback completes the identity-provider flow.
// GET /api/auth/oauth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_parameters",
			Err:     errors.New("code and state are required"),
		})
		return
	}

	stateCookie, err := r.Cookie(cookieOAuthState)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(cookieOAuthNonce)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "complete login failed", "error", err)
		WriteAppError(w, err)
		return
	}

	h.Cookies.SetSession(w, r, result.Token, result.Session.ExpiresAt)
	h.Cookies.Clear(w, r, cookieOAuthState)
	h.Cookies.Clear(w, r, cookieOAuthNonce)
	// The outcome is logged; a browser redirect has no body to carry the report.
	_, _ = h.reconcile(r.Context(), result.Principal)

	http.Redirect(w, r, h.Cookies.TakePostLoginRedirect(w, r), http.StatusFound)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(candidate, "//") {
		return "/"
	}
	return candidate
}
