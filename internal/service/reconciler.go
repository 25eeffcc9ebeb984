package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/target/petalcart/internal/domain/auth"
	"github.com/target/petalcart/internal/domain/cart"
	apperrors "github.com/target/petalcart/internal/errors"
	"github.com/target/petalcart/internal/observability/metrics"
	"github.com/target/petalcart/internal/observability/statsd"
	"github.com/target/petalcart/internal/ports"
)

// ReplayStatus describes what happened to a pending guest action after sign-in.
type ReplayStatus string

const (
	// ReplayNone means no action was pending.
	ReplayNone ReplayStatus = "none"
	// ReplayExpired means the action was older than the replay window and was discarded.
	ReplayExpired ReplayStatus = "expired"
	// ReplayProductUnavailable means the product could not be found and the action was discarded.
	ReplayProductUnavailable ReplayStatus = "product_unavailable"
	// ReplayApplied means the action was added to the authenticated cart.
	ReplayApplied ReplayStatus = "applied"
	// ReplayFailed means the cart rejected the replay. It is not retried.
	ReplayFailed ReplayStatus = "failed"
)

// ReplayReport is the outcome of OnPrincipalBecameAuthenticated.
type ReplayReport struct {
	Status   ReplayStatus      `json:"status"`
	Action   *cart.GuestAction `json:"action,omitempty"`
	Message  string            `json:"message,omitempty"`
	Snapshot cart.Snapshot     `json:"cart"`
	// Err is the cart error when Status is ReplayFailed.
	Err error `json:"-"`
}

// AddResult is the outcome of OnAddToCartRequested.
type AddResult struct {
	// AuthRequired is set when the request was deferred until the visitor signs in.
	AuthRequired bool          `json:"auth_required"`
	Snapshot     cart.Snapshot `json:"cart"`
}

// ReconcilerDeps are the collaborators the reconciler talks to.
type ReconcilerDeps struct {
	Cart     ports.CartCollaborator
	Products ports.ProductLookup
	Guests   ports.GuestActionStore
	Metrics  statsd.Sink // optional
}

// ReconcilerConfig tunes replay eligibility.
type ReconcilerConfig struct {
	// ReplayWindow defaults to cart.ReplayWindow.
	ReplayWindow time.Duration
	Now          func() time.Time
}

// ReconcilerOptions groups dependencies for Reconciler.
type ReconcilerOptions struct {
	Deps   ReconcilerDeps
	Config ReconcilerConfig
	Logger *slog.Logger // optional
}

// Reconciler decides which cart is authoritative and replays a visitor's deferred
// add-to-cart exactly once after they sign in.
type Reconciler struct {
	cart     ports.CartCollaborator
	products ports.ProductLookup
	guests   ports.GuestActionStore
	metrics  statsd.Sink
	window   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewReconciler constructs a new Reconciler.
func NewReconciler(opts ReconcilerOptions) *Reconciler {
	if opts.Deps.Cart == nil {
		panic("CartCollaborator is required")
	}
	if opts.Deps.Products == nil {
		panic("ProductLookup is required")
	}
	if opts.Deps.Guests == nil {
		panic("GuestActionStore is required")
	}
	window := opts.Config.ReplayWindow
	if window <= 0 {
		window = cart.ReplayWindow
	}
	now := opts.Config.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		cart:     opts.Deps.Cart,
		products: opts.Deps.Products,
		guests:   opts.Deps.Guests,
		metrics:  opts.Deps.Metrics,
		window:   window,
		now:      now,
		logger:   logger.With("component", "cart_reconciler"),
	}
}

// OnAddToCartRequested handles an add-to-cart from any principal.
//
// Signed-in principals are forwarded to the cart and its error is returned unchanged.
// Anonymous visitors have the request validated against stock and stored as their single
// pending action, replacing any earlier one; the result asks the caller to sign in.
func (r *Reconciler) OnAddToCartRequested(
	ctx context.Context,
	product cart.Product,
	quantity int,
	principal *domainauth.Principal,
	guestID string,
) (AddResult, error) {
	if !principal.IsAnonymous() {
		snap, err := r.cart.AddItem(ctx, principal.UserID(), product.ID, quantity)
		if err != nil {
			return AddResult{}, err
		}
		return AddResult{Snapshot: snap}, nil
	}

	if quantity < 1 {
		return AddResult{}, apperrors.ValidationField("quantity", "quantity must be at least 1")
	}
	if quantity > product.StockQuantity {
		return AddResult{}, apperrors.ValidationField("quantity",
			fmt.Sprintf("only %d in stock", product.StockQuantity))
	}
	if guestID == "" {
		return AddResult{}, apperrors.Validation("visitor id is required")
	}

	action := cart.GuestAction{ProductID: product.ID, Quantity: quantity, CapturedAt: r.now()}
	if err := r.guests.Put(ctx, guestID, action); err != nil {
		return AddResult{}, apperrors.Unavailable(err, "could not remember your cart item")
	}
	r.logger.DebugContext(ctx, "guest action deferred",
		"guest_id", guestID,
		"product_id", product.ID,
		"quantity", quantity,
	)
	metrics.EmitGuestCapture(r.metrics)
	return AddResult{AuthRequired: true, Snapshot: cart.GuestSnapshot()}, nil
}

// OnPrincipalBecameAuthenticated runs once after a successful sign-in. It loads the
// authenticated cart and then consumes the visitor's pending action, if any. The action is
// removed before it is replayed, so it is attempted at most once whatever the outcome.
func (r *Reconciler) OnPrincipalBecameAuthenticated(
	ctx context.Context,
	principal *domainauth.Principal,
	guestID string,
) (ReplayReport, error) {
	report, err := r.replay(ctx, principal, guestID)
	if err == nil {
		metrics.EmitReplay(r.metrics, string(report.Status))
	}
	return report, err
}

func (r *Reconciler) replay(
	ctx context.Context,
	principal *domainauth.Principal,
	guestID string,
) (ReplayReport, error) {
	if principal.IsAnonymous() {
		return ReplayReport{}, apperrors.Validation("principal is not authenticated")
	}
	userID := principal.UserID()

	snap, err := r.cart.GetCart(ctx, userID)
	if err != nil {
		return ReplayReport{}, err
	}
	report := ReplayReport{Status: ReplayNone, Snapshot: snap}
	if guestID == "" {
		return report, nil
	}

	action, err := r.guests.Take(ctx, guestID)
	if err != nil {
		return report, apperrors.Unavailable(err, "could not load pending cart item")
	}
	if action == nil {
		return report, nil
	}
	report.Action = action
	log := r.logger.With("guest_id", guestID, "user_id", userID, "product_id", action.ProductID)

	if action.Expired(r.now(), r.window) {
		log.InfoContext(ctx, "discarded expired guest action", "captured_at", action.CapturedAt)
		report.Status = ReplayExpired
		return report, nil
	}

	if _, lookupErr := r.products.FindByID(ctx, action.ProductID); lookupErr != nil {
		if !apperrors.IsNotFound(lookupErr) {
			log.WarnContext(ctx, "guest action dropped, product lookup failed", "error", lookupErr)
			report.Status = ReplayFailed
			report.Err = lookupErr
			report.Message = apperrors.Message(lookupErr)
			return report, nil
		}
		log.InfoContext(ctx, "discarded guest action for unavailable product")
		report.Status = ReplayProductUnavailable
		report.Message = "product no longer available"
		return report, nil
	}

	updated, addErr := r.cart.AddItem(ctx, userID, action.ProductID, action.Quantity)
	if addErr != nil {
		log.WarnContext(ctx, "guest action replay failed", "error", addErr)
		report.Status = ReplayFailed
		report.Err = addErr
		report.Message = apperrors.Message(addErr)
		return report, nil
	}

	log.InfoContext(ctx, "guest action replayed", "quantity", action.Quantity)
	report.Status = ReplayApplied
	report.Snapshot = updated
	return report, nil
}

// ComputeSnapshot returns the authoritative cart for principal. Anonymous visitors get the
// empty guest snapshot; totals are always derived from lines.
func (r *Reconciler) ComputeSnapshot(ctx context.Context, principal *domainauth.Principal) (cart.Snapshot, error) {
	if principal.IsAnonymous() {
		return cart.GuestSnapshot(), nil
	}
	snap, err := r.cart.GetCart(ctx, principal.UserID())
	if err != nil {
		return cart.Snapshot{}, err
	}
	return snap, nil
}
