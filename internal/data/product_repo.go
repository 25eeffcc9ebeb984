package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/target/petalcart/internal/data/pgxutil"
	"github.com/target/petalcart/internal/domain/cart"
	apperrors "github.com/target/petalcart/internal/errors"
)

// ErrProductNotFound is returned when a product is missing or inactive.
var ErrProductNotFound = apperrors.NotFound("product no longer available")

const (
	productColumns = `id, name, description, category, price_cents, stock_quantity, image_url, active, created_at, updated_at`

	defaultProductLimit = 50
	maxProductLimit     = 200
)

// ProductRepo provides database operations for the catalogue.
type ProductRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProductRepo creates a new ProductRepo instance with the given database connection.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// GetByID retrieves an active product by id.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*cart.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND active`
	var p cart.Product
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		p, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[cart.Product])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// List returns active products filtered by category and a case-insensitive name/description search.
func (r *ProductRepo) List(ctx context.Context, opts cart.ProductListOptions) ([]*cart.Product, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultProductLimit
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}
	offset := max(opts.Offset, 0)

	var category, search *string
	if c := strings.TrimSpace(opts.Category); c != "" {
		category = &c
	}
	if s := strings.TrimSpace(opts.Search); s != "" {
		pattern := "%" + s + "%"
		search = &pattern
	}

	q := `SELECT ` + productColumns + ` FROM products
		WHERE active
		  AND ($1::text IS NULL OR category = $1)
		  AND ($2::text IS NULL OR name ILIKE $2 OR description ILIKE $2)
		ORDER BY id ASC
		LIMIT $3 OFFSET $4`

	var products []cart.Product
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, category, search, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		products, err = pgx.CollectRows(rows, pgx.RowToStructByName[cart.Product])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	result := make([]*cart.Product, len(products))
	for i := range products {
		result[i] = &products[i]
	}
	return result, nil
}

// Upsert inserts p or, when a product with the same name exists, updates it in place.
func (r *ProductRepo) Upsert(ctx context.Context, p *cart.Product) (*cart.Product, error) {
	if p == nil {
		return nil, errors.New("product is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperrors.ValidationField("name", "name is required")
	}
	now := r.timeProvider.Now()
	q := `INSERT INTO products (name, description, category, price_cents, stock_quantity, image_url, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			price_cents = EXCLUDED.price_cents,
			stock_quantity = EXCLUDED.stock_quantity,
			image_url = EXCLUDED.image_url,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + productColumns

	var out cart.Product
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q,
			p.Name, p.Description, p.Category, int64(p.Price), p.StockQuantity, p.ImageURL, p.Active, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[cart.Product])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert product: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}
