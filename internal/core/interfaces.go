package core

import (
	"context"

	domainauth "github.com/target/petalcart/internal/domain/auth"
	"github.com/target/petalcart/internal/domain/cart"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// UserRepository defines the interface for account data operations.
type UserRepository interface {
	Create(ctx context.Context, req *domainauth.CreateUserRequest) (*domainauth.User, error)
	GetByID(ctx context.Context, id int64) (*domainauth.User, error)
	GetByEmail(ctx context.Context, email string) (*domainauth.User, error)
	// UpsertExternal creates or refreshes an account authenticated by an external IdP.
	UpsertExternal(ctx context.Context, req *domainauth.CreateUserRequest) (*domainauth.User, error)
	SetRole(ctx context.Context, email string, role domainauth.Role) (*domainauth.User, error)
}

// ProductRepository defines the interface for catalogue data operations.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*cart.Product, error)
	List(ctx context.Context, opts cart.ProductListOptions) ([]*cart.Product, error)
	// Upsert inserts or updates a product keyed by name. Used by seeding.
	Upsert(ctx context.Context, p *cart.Product) (*cart.Product, error)
}

// AddCartItemParams groups parameters for CartRepository.AddQuantity.
type AddCartItemParams struct {
	UserID    int64
	ProductID int64
	Quantity  int
	// MaxQuantity bounds the merged line quantity.
	MaxQuantity int
}

// SetCartItemParams groups parameters for CartRepository.SetQuantity.
type SetCartItemParams struct {
	UserID   int64
	ItemID   int64
	Quantity int
}

// CartRepository defines the interface for per-user cart lines.
type CartRepository interface {
	ListLines(ctx context.Context, userID int64) ([]cart.Line, error)
	// AddQuantity inserts a line or sums into the existing line for the product.
	AddQuantity(ctx context.Context, params AddCartItemParams) error
	GetLine(ctx context.Context, userID, itemID int64) (*cart.Line, error)
	SetQuantity(ctx context.Context, params SetCartItemParams) (bool, error)
	Remove(ctx context.Context, userID, itemID int64) (bool, error)
	Clear(ctx context.Context, userID int64) (int, error)
}
