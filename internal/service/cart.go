package service

import (
	"context"
	"log/slog"

	"github.com/target/petalcart/internal/core"
	"github.com/target/petalcart/internal/domain/cart"
	apperrors "github.com/target/petalcart/internal/errors"
	"github.com/target/petalcart/internal/ports"
)

var _ ports.CartCollaborator = (*CartService)(nil)

var (
	errCartSignInRequired = apperrors.Unauthorized("sign in to use the cart")
	errCartItemNotFound   = apperrors.NotFound("cart item not found")
)

// CartServiceOptions groups dependencies for CartService.
type CartServiceOptions struct {
	Carts    core.CartRepository
	Products core.ProductRepository
	Logger   *slog.Logger // optional
}

// CartService is the authenticated, server-side cart. Every call is scoped to a user id.
// Adding a product already in the cart sums the quantities; a line never exceeds stock.
type CartService struct {
	carts    core.CartRepository
	products core.ProductRepository
	logger   *slog.Logger
}

// NewCartService constructs a new CartService.
func NewCartService(opts CartServiceOptions) *CartService {
	if opts.Carts == nil {
		panic("CartRepository is required")
	}
	if opts.Products == nil {
		panic("ProductRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CartService{
		carts:    opts.Carts,
		products: opts.Products,
		logger:   logger.With("component", "cart_service"),
	}
}

// GetCart loads the user's cart.
func (s *CartService) GetCart(ctx context.Context, userID int64) (cart.Snapshot, error) {
	if userID <= 0 {
		return cart.Snapshot{}, errCartSignInRequired
	}
	lines, err := s.carts.ListLines(ctx, userID)
	if err != nil {
		return cart.Snapshot{}, collaboratorError(err, "cart is temporarily unavailable")
	}
	return cart.NewSnapshot(lines), nil
}

// AddItem adds quantity of productID to the user's cart and returns the updated cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (cart.Snapshot, error) {
	if userID <= 0 {
		return cart.Snapshot{}, errCartSignInRequired
	}
	if quantity < 1 {
		return cart.Snapshot{}, apperrors.ValidationField("quantity", "quantity must be at least 1")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return cart.Snapshot{}, collaboratorError(err, "catalogue is temporarily unavailable")
	}

	err = s.carts.AddQuantity(ctx, core.AddCartItemParams{
		UserID:      userID,
		ProductID:   product.ID,
		Quantity:    quantity,
		MaxQuantity: product.StockQuantity,
	})
	if err != nil {
		return cart.Snapshot{}, collaboratorError(err, "cart is temporarily unavailable")
	}
	s.logger.DebugContext(ctx, "cart item added", "user_id", userID, "product_id", productID, "quantity", quantity)
	return s.GetCart(ctx, userID)
}

// UpdateItem sets the quantity of a line. A quantity below 1 removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (cart.Snapshot, error) {
	if quantity < 1 {
		return s.RemoveItem(ctx, userID, itemID)
	}
	if userID <= 0 {
		return cart.Snapshot{}, errCartSignInRequired
	}

	line, err := s.carts.GetLine(ctx, userID, itemID)
	if err != nil {
		return cart.Snapshot{}, collaboratorError(err, "cart is temporarily unavailable")
	}
	product, err := s.products.GetByID(ctx, line.ProductID)
	if err != nil {
		return cart.Snapshot{}, collaboratorError(err, "catalogue is temporarily unavailable")
	}
	if quantity > product.StockQuantity {
		return cart.Snapshot{}, apperrors.ValidationField("quantity", "not enough stock for the requested quantity")
	}

	ok, err := s.carts.SetQuantity(ctx, core.SetCartItemParams{UserID: userID, ItemID: itemID, Quantity: quantity})
	if err != nil {
		return cart.Snapshot{}, collaboratorError(err, "cart is temporarily unavailable")
	}
	if !ok {
		return cart.Snapshot{}, errCartItemNotFound
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes a line from the user's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) (cart.Snapshot, error) {
	if userID <= 0 {
		return cart.Snapshot{}, errCartSignInRequired
	}
	ok, err := s.carts.Remove(ctx, userID, itemID)
	if err != nil {
		return cart.Snapshot{}, collaboratorError(err, "cart is temporarily unavailable")
	}
	if !ok {
		return cart.Snapshot{}, errCartItemNotFound
	}
	return s.GetCart(ctx, userID)
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, userID int64) (cart.Snapshot, error) {
	if userID <= 0 {
		return cart.Snapshot{}, errCartSignInRequired
	}
	n, err := s.carts.Clear(ctx, userID)
	if err != nil {
		return cart.Snapshot{}, collaboratorError(err, "cart is temporarily unavailable")
	}
	s.logger.DebugContext(ctx, "cart cleared", "user_id", userID, "lines", n)
	return cart.NewSnapshot(nil), nil
}

// collaboratorError passes categorized errors through and marks anything else as unavailable.
func collaboratorError(err error, message string) error {
	if apperrors.GetCode(err) != "" {
		return err
	}
	return apperrors.Unavailable(err, message)
}
