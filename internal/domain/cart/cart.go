// Package cart holds the storefront's cart domain types: products, snapshot lines and the
// deferred guest add-to-cart action.
package cart

import (
	"encoding/json"
	"errors"
	"time"
)

// ReplayWindow is how long a guest action stays eligible for replay after capture.
const ReplayWindow = time.Hour

// Money is an amount in minor currency units (cents). Integer math keeps totals exact.
type Money int64

// Product is the subset of catalogue data the cart needs.
type Product struct {
	ID            int64     `json:"id"                   db:"id"`
	Name          string    `json:"name"                 db:"name"`
	Description   string    `json:"description"          db:"description"`
	Category      string    `json:"category"             db:"category"`
	Price         Money     `json:"price"                db:"price_cents"`
	StockQuantity int       `json:"stock_quantity"       db:"stock_quantity"`
	ImageURL      *string   `json:"image_url,omitempty"  db:"image_url"`
	Active        bool      `json:"active"               db:"active"`
	CreatedAt     time.Time `json:"created_at"           db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"           db:"updated_at"`
}

// ProductListOptions filters catalogue listings.
type ProductListOptions struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

// GuestAction is one deferred add-to-cart intent captured while anonymous.
type GuestAction struct {
	ProductID  int64     `json:"product_id"`
	Quantity   int       `json:"quantity"`
	CapturedAt time.Time `json:"captured_at"`
}

// Validate checks the structural invariants of a stored action.
func (a GuestAction) Validate() error {
	if a.ProductID <= 0 {
		return errors.New("product_id must be positive")
	}
	if a.Quantity < 1 {
		return errors.New("quantity must be at least 1")
	}
	if a.CapturedAt.IsZero() {
		return errors.New("captured_at is required")
	}
	return nil
}

// Expired reports whether more than window has elapsed since capture.
// A non-positive window falls back to ReplayWindow.
func (a GuestAction) Expired(now time.Time, window time.Duration) bool {
	if window <= 0 {
		window = ReplayWindow
	}
	return now.Sub(a.CapturedAt) > window
}

// Line is one product entry in a cart snapshot.
type Line struct {
	ItemID    int64  `json:"item_id"    db:"id"`
	ProductID int64  `json:"product_id" db:"product_id"`
	Name      string `json:"name"       db:"name"`
	Quantity  int    `json:"quantity"   db:"quantity"`
	UnitPrice Money  `json:"unit_price" db:"unit_price_cents"`
}

// Subtotal returns quantity × unit price.
func (l Line) Subtotal() Money {
	return Money(l.Quantity) * l.UnitPrice
}

// Snapshot is a view of what is in a cart right now.
// Totals are derived from the lines on every read and cannot be set directly.
type Snapshot struct {
	lines []Line
	guest bool
}

// NewSnapshot builds an authenticated-cart snapshot from lines.
func NewSnapshot(lines []Line) Snapshot {
	return Snapshot{lines: append([]Line(nil), lines...)}
}

// GuestSnapshot returns the empty snapshot shown to anonymous visitors.
func GuestSnapshot() Snapshot {
	return Snapshot{guest: true}
}

// Lines returns a copy of the snapshot's lines in order.
func (s Snapshot) Lines() []Line {
	return append([]Line(nil), s.lines...)
}

// TotalItems is the sum of line quantities.
func (s Snapshot) TotalItems() int {
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice is the sum of quantity × unit price across lines.
func (s Snapshot) TotalPrice() Money {
	var total Money
	for _, l := range s.lines {
		total += l.Subtotal()
	}
	return total
}

type snapshotJSON struct {
	Lines      []Line `json:"lines"`
	TotalItems int    `json:"total_items"`
	TotalPrice Money  `json:"total_price"`
	Guest      bool   `json:"guest"`
}

// MarshalJSON renders lines together with freshly computed totals.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	lines := s.Lines()
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(snapshotJSON{
		Lines:      lines,
		TotalItems: s.TotalItems(),
		TotalPrice: s.TotalPrice(),
		Guest:      s.guest,
	})
}

// UnmarshalJSON accepts the MarshalJSON shape; any totals present are ignored.
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	s.lines = raw.Lines
	s.guest = raw.Guest
	return nil
}
