package ports

import (
	"context"

	"github.com/target/petalcart/internal/domain/cart"
)

// GuestActionStore holds at most one deferred add-to-cart action per visitor.
// Writes are full overwrites; there are no partial updates.
type GuestActionStore interface {
	// Take returns and removes the pending action in one step, or (nil, nil) when none is stored.
	// At most one caller observes a given action.
	Take(ctx context.Context, guestID string) (*cart.GuestAction, error)
	// Put replaces any pending action for guestID.
	Put(ctx context.Context, guestID string, action cart.GuestAction) error
}

// CartCollaborator is the authenticated cart API the reconciler forwards to.
type CartCollaborator interface {
	GetCart(ctx context.Context, userID int64) (cart.Snapshot, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (cart.Snapshot, error)
}

// ProductLookup resolves a product by id. Missing or inactive products report a NotFound error.
type ProductLookup interface {
	FindByID(ctx context.Context, id int64) (*cart.Product, error)
}
