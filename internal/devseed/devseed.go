// Package devseed loads a demo catalogue and an optional staff account for local development.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/petalcart/internal/core"
	domainauth "github.com/target/petalcart/internal/domain/auth"
	"github.com/target/petalcart/internal/domain/cart"
	apperrors "github.com/target/petalcart/internal/errors"
	"github.com/target/petalcart/internal/ports"
)

// Catalogue is the demo bouquet range. Seeding is keyed by name, so re-running updates
// prices and stock in place.
var Catalogue = []cart.Product{
	{Name: "Red Roses", Category: "roses", Description: "A dozen long-stem red roses.", Price: 2999, StockQuantity: 40},
	{Name: "Blush Peonies", Category: "peonies", Description: "Seasonal pink peonies, loosely tied.", Price: 3450, StockQuantity: 15},
	{Name: "White Lilies", Category: "lilies", Description: "Oriental lilies with eucalyptus.", Price: 1550, StockQuantity: 25},
	{Name: "Sunflower Bunch", Category: "sunflowers", Description: "Five sunflowers, wrapped in kraft paper.", Price: 1800, StockQuantity: 30},
	{Name: "Spring Tulips", Category: "tulips", Description: "Mixed tulips in spring colours.", Price: 2200, StockQuantity: 20},
	{Name: "Wildflower Posy", Category: "mixed", Description: "Small hand-tied posy of meadow flowers.", Price: 1250, StockQuantity: 0},
}

// Deps bundles the repositories seeding writes through.
type Deps struct {
	Products core.ProductRepository
	Users    core.UserRepository
	Hasher   ports.PasswordHasher
}

// Options controls the optional staff account.
type Options struct {
	AdminEmail    string
	AdminPassword string
}

// Run upserts the demo catalogue and, when AdminEmail is set, ensures that account exists
// with the admin role.
func Run(ctx context.Context, deps Deps, opts Options, logger *slog.Logger) error {
	if deps.Products == nil {
		return errors.New("product repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	for i := range Catalogue {
		p := Catalogue[i]
		p.Active = true
		saved, err := deps.Products.Upsert(ctx, &p)
		if err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
		logger.InfoContext(ctx, "seeded product", "id", saved.ID, "name", saved.Name, "stock", saved.StockQuantity)
	}

	if opts.AdminEmail == "" {
		return nil
	}
	return seedAdmin(ctx, deps, opts, logger)
}

func seedAdmin(ctx context.Context, deps Deps, opts Options, logger *slog.Logger) error {
	if deps.Users == nil || deps.Hasher == nil {
		return errors.New("user repository and hasher are required to seed an admin")
	}
	if opts.AdminPassword == "" {
		return errors.New("admin password is required")
	}
	hash, err := deps.Hasher.Hash(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	email := domainauth.NormalizeEmail(opts.AdminEmail)
	user, err := deps.Users.Create(ctx, &domainauth.CreateUserRequest{
		Email:        email,
		Name:         "Shop Admin",
		PasswordHash: &hash,
		Role:         domainauth.RoleAdmin,
	})
	switch {
	case err == nil:
		logger.InfoContext(ctx, "seeded admin account", "user_id", user.ID, "email", email)
		return nil
	case apperrors.IsConflict(err):
		if _, roleErr := deps.Users.SetRole(ctx, email, domainauth.RoleAdmin); roleErr != nil {
			return fmt.Errorf("promote existing account: %w", roleErr)
		}
		logger.InfoContext(ctx, "existing account promoted to admin", "email", email)
		return nil
	default:
		return fmt.Errorf("create admin account: %w", err)
	}
}
