package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/petalcart/internal/domain/access"
	"github.com/target/petalcart/internal/observability/statsd"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth       AuthServiceInterface
	Reconciler CartReconciler
	Carts      CartServiceInterface
	Products   ProductCatalogue
	Gate       access.Gate
	Cookies    Cookies
	// Optional: dependencies probed by /readyz, keyed by name.
	Health map[string]HealthChecker
	Metrics statsd.Sink  // optional
	Logger  *slog.Logger // optional
}

// NewRouter creates and configures the storefront HTTP handler.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	pages, err := NewPageHandlers(PageHandlersOptions{Gate: services.Gate, Logger: logger})
	if err != nil {
		return nil, err
	}
	authHandlers := &AuthHandlers{
		Svc:        services.Auth,
		Reconciler: services.Reconciler,
		Cookies:    services.Cookies,
		Logger:     logger,
	}
	cartHandlers := &CartHandlers{
		Reconciler: services.Reconciler,
		Carts:      services.Carts,
		Products:   services.Products,
	}

	registerAuthRoutes(mux, authHandlers)
	registerProductRoutes(mux, &ProductHandlers{Svc: services.Products})
	registerCartRoutes(mux, cartHandlers)
	mux.HandleFunc("GET /api/navigation", (&NavigationHandlers{Gate: services.Gate}).Check)
	mux.Handle("PUT /api/admin/products", RequireAdmin(
		http.HandlerFunc((&AdminHandlers{Catalogue: services.Products}).SaveProduct)))
	mux.HandleFunc("GET /api/", apiNotFound)

	mux.HandleFunc("GET /denied", pages.Denied)
	mux.HandleFunc("GET /", pages.Serve)

	var h http.Handler = mux
	h = Logging(logger)(h)
	h = Metrics(services.Metrics)(h)
	h = Authenticate(AuthMiddlewareOptions{Svc: services.Auth, Cookies: services.Cookies, Logger: logger})(h)
	h = GuestID(services.Cookies)(h)

	// Probes bypass session resolution so a session store outage cannot fail liveness.
	root := http.NewServeMux()
	root.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	root.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	root.Handle("GET /readyz", readyHandler(services.Health))
	root.Handle("/", h)
	return Recover(logger)(root), nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/status", h.Status)
	mux.HandleFunc("GET /api/auth/oauth/login", h.OAuthLogin)
	mux.HandleFunc("GET /api/auth/oauth/callback", h.OAuthCallback)
}

func registerProductRoutes(mux *http.ServeMux, h *ProductHandlers) {
	mux.HandleFunc("GET /api/products", h.List)
	mux.HandleFunc("GET /api/products/{id}", h.Get)
}

func registerCartRoutes(mux *http.ServeMux, h *CartHandlers) {
	mux.HandleFunc("GET /api/cart", h.Get)
	mux.HandleFunc("POST /api/cart/items", h.AddItem)
	mux.Handle("DELETE /api/cart", RequireAuth(http.HandlerFunc(h.Clear)))
	mux.Handle("PUT /api/cart/items/{id}", RequireAuth(http.HandlerFunc(h.UpdateItem)))
	mux.Handle("DELETE /api/cart/items/{id}", RequireAuth(http.HandlerFunc(h.RemoveItem)))
}

func apiNotFound(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "no such endpoint"})
}
