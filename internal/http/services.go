package httpx

import (
	"context"

	domainauth "github.com/target/petalcart/internal/domain/auth"
	"github.com/target/petalcart/internal/domain/cart"
	"github.com/target/petalcart/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Register(ctx context.Context, req domainauth.RegisterRequest) (*service.LoginResult, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context, token string) error
	ResolvePrincipal(ctx context.Context, token string) (service.Resolution, error)
	SSOEnabled() bool
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.LoginResult, error)
}

// CartReconciler routes add-to-cart requests and replays deferred guest actions.
type CartReconciler interface {
	OnAddToCartRequested(
		ctx context.Context,
		product cart.Product,
		quantity int,
		principal *domainauth.Principal,
		guestID string,
	) (service.AddResult, error)
	OnPrincipalBecameAuthenticated(
		ctx context.Context,
		principal *domainauth.Principal,
		guestID string,
	) (service.ReplayReport, error)
	ComputeSnapshot(ctx context.Context, principal *domainauth.Principal) (cart.Snapshot, error)
}

// CartServiceInterface covers the line edits that bypass the reconciler.
type CartServiceInterface interface {
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (cart.Snapshot, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (cart.Snapshot, error)
	Clear(ctx context.Context, userID int64) (cart.Snapshot, error)
}

// ProductServiceInterface is the catalogue read API.
type ProductServiceInterface interface {
	FindByID(ctx context.Context, id int64) (*cart.Product, error)
	List(ctx context.Context, opts cart.ProductListOptions) ([]*cart.Product, error)
}

// ProductCatalogue is the catalogue read API plus admin writes.
type ProductCatalogue interface {
	ProductServiceInterface
	CatalogueWriter
}

var (
	_ ProductCatalogue        = (*service.ProductService)(nil)
	_ AuthServiceInterface    = (*service.AuthService)(nil)
	_ CartReconciler          = (*service.Reconciler)(nil)
	_ CartServiceInterface    = (*service.CartService)(nil)
	_ ProductServiceInterface = (*service.ProductService)(nil)
)
