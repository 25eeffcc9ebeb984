package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/target/petalcart/internal/observability/metrics"
	"github.com/target/petalcart/internal/observability/statsd"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.String("role", string(PrincipalFromContext(r.Context()).Role)),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Metrics returns a middleware that counts and times requests. A nil sink disables it.
func Metrics(sink statsd.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if sink == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			metrics.EmitRequest(sink, r.Method, ww.status, time.Since(start))
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddlewareOptions groups dependencies for Authenticate.
type AuthMiddlewareOptions struct {
	Svc     AuthServiceInterface
	Cookies Cookies
	Logger  *slog.Logger
}

// Authenticate resolves the request principal from a bearer token or the session cookie and
// stores it in the request context. A cookie whose session no longer exists is cleared so
// the browser falls back to anonymous.
func Authenticate(opts AuthMiddlewareOptions) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := requestToken(r)
			res, err := opts.Svc.ResolvePrincipal(r.Context(), token)
			if err != nil {
				logger.WarnContext(r.Context(), "resolve principal failed", "error", err)
				WriteAppError(w, err)
				return
			}
			if res.Orphaned && fromCookie {
				opts.Cookies.Clear(w, r, CookieSessionToken)
			}
			next.ServeHTTP(w, r.WithContext(SetPrincipalInContext(r.Context(), res.Principal)))
		})
	}
}

// requestToken returns the presented access token and whether it came from the cookie.
// An Authorization header wins over the cookie.
func requestToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token), false
		}
	}
	if ck, err := r.Cookie(CookieSessionToken); err == nil {
		return ck.Value, true
	}
	return "", false
}

// GuestID ensures every request carries a visitor id, issuing a new cookie when the
// presented one is missing or malformed.
func GuestID(cookies Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if ck, err := r.Cookie(CookieGuestID); err == nil {
				if parsed, perr := uuid.Parse(ck.Value); perr == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				cookies.SetGuestID(w, r, id)
			}
			next.ServeHTTP(w, r.WithContext(SetGuestIDInContext(r.Context(), id)))
		})
	}
}

// RequireAuth returns a middleware that requires an authenticated principal.
// If the user is not authenticated, it returns a 401 Unauthorized response.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()).IsAnonymous() {
			writeAuthRequired(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns a middleware that requires the admin role.
// Anonymous callers get 401; authenticated non-admins get 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		if p.IsAnonymous() {
			writeAuthRequired(w)
			return
		}
		if !p.IsAdmin() || !p.Active() {
			WriteError(w, ErrorParams{
				Code:    http.StatusForbidden,
				ErrCode: "insufficient_permissions",
				Err:     errors.New("insufficient permissions"),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthRequired(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}
