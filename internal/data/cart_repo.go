package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/target/petalcart/internal/core"
	"github.com/target/petalcart/internal/data/pgxutil"
	"github.com/target/petalcart/internal/domain/cart"
	apperrors "github.com/target/petalcart/internal/errors"
)

var (
	// ErrCartItemNotFound is returned when a line does not exist in the user's cart.
	ErrCartItemNotFound = apperrors.NotFound("cart item not found")
	// ErrInsufficientStock is returned when a merged line would exceed available stock.
	ErrInsufficientStock = apperrors.ValidationField("quantity", "not enough stock for the requested quantity")
)

// CartRepo stores cart lines per user in cart_items.
type CartRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCartRepo creates a new CartRepo instance with the given database connection.
func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const cartLinesQuery = `
	SELECT ci.id, ci.product_id, p.name, ci.quantity, p.price_cents AS unit_price_cents
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	WHERE ci.user_id = $1
	ORDER BY ci.id ASC`

// ListLines returns the user's lines in insertion order, priced at the current catalogue price.
func (r *CartRepo) ListLines(ctx context.Context, userID int64) ([]cart.Line, error) {
	var lines []cart.Line
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, cartLinesQuery, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		lines, err = pgx.CollectRows(rows, pgx.RowToStructByName[cart.Line])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	return lines, nil
}

// GetLine returns a single line of the user's cart.
func (r *CartRepo) GetLine(ctx context.Context, userID, itemID int64) (*cart.Line, error) {
	q := `SELECT ci.id, ci.product_id, p.name, ci.quantity, p.price_cents AS unit_price_cents
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1 AND ci.id = $2`
	var line cart.Line
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, userID, itemID)
		if err != nil {
			return err
		}
		defer rows.Close()
		line, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[cart.Line])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("get cart line: %w", err)
	}
	return &line, nil
}

// AddQuantity inserts a line or sums into the existing one. The write is skipped, and
// ErrInsufficientStock returned, when the merged quantity would exceed MaxQuantity.
func (r *CartRepo) AddQuantity(ctx context.Context, params core.AddCartItemParams) error {
	if params.Quantity < 1 {
		return apperrors.ValidationField("quantity", "quantity must be at least 1")
	}
	if params.Quantity > params.MaxQuantity {
		return ErrInsufficientStock
	}
	q := `INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $5, $5)
		ON CONFLICT (user_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		WHERE cart_items.quantity + EXCLUDED.quantity <= $4`

	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, q,
			params.UserID, params.ProductID, params.Quantity, params.MaxQuantity, r.timeProvider.Now())
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("add cart item: %w", apperrors.MapDBError(err))
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// SetQuantity replaces a line's quantity. It reports false when the line does not exist.
func (r *CartRepo) SetQuantity(ctx context.Context, params core.SetCartItemParams) (bool, error) {
	if params.Quantity < 1 {
		return false, apperrors.ValidationField("quantity", "quantity must be at least 1")
	}
	q := `UPDATE cart_items SET quantity = $3, updated_at = $4 WHERE user_id = $1 AND id = $2`
	return r.exec(ctx, q, params.UserID, params.ItemID, params.Quantity, r.timeProvider.Now())
}

// Remove deletes a line. It reports false when the line does not exist.
func (r *CartRepo) Remove(ctx context.Context, userID, itemID int64) (bool, error) {
	return r.exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND id = $2`, userID, itemID)
}

// Clear deletes every line of the user's cart and returns how many were removed.
func (r *CartRepo) Clear(ctx context.Context, userID int64) (int, error) {
	var n int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	return int(n), nil
}

func (r *CartRepo) exec(ctx context.Context, q string, args ...any) (bool, error) {
	var n int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, q, args...)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update cart item: %w", apperrors.MapDBError(err))
	}
	return n > 0, nil
}
