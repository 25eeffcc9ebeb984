package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/target/petalcart/internal/core"
	"github.com/target/petalcart/internal/domain/cart"
	"github.com/target/petalcart/internal/ports"
)

// DefaultProductCacheTTL bounds how long a cached product lookup is served.
const DefaultProductCacheTTL = 30 * time.Second

var _ ports.ProductLookup = (*ProductService)(nil)

// ProductServiceOptions groups dependencies for ProductService.
type ProductServiceOptions struct {
	Repo   core.ProductRepository
	Cache  ProductCacheOptions // optional
	Logger *slog.Logger        // optional
}

// ProductCacheOptions configures the read-through cache for FindByID.
type ProductCacheOptions struct {
	Repo core.CacheRepository
	TTL  time.Duration
}

// ProductService serves catalogue reads, caching single-product lookups when a cache is configured.
type ProductService struct {
	repo     core.ProductRepository
	cache    core.CacheRepository
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewProductService constructs a new ProductService.
func NewProductService(opts ProductServiceOptions) *ProductService {
	if opts.Repo == nil {
		panic("ProductRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.Cache.TTL
	if ttl <= 0 {
		ttl = DefaultProductCacheTTL
	}
	return &ProductService{
		repo:     opts.Repo,
		cache:    opts.Cache.Repo,
		cacheTTL: ttl,
		logger:   logger.With("component", "product_service"),
	}
}

func productCacheKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

// FindByID returns an active product. Missing or retired products yield a NotFound error.
func (s *ProductService) FindByID(ctx context.Context, id int64) (*cart.Product, error) {
	if p, ok := s.cached(ctx, id); ok {
		return p, nil
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find product %d: %w", id, err)
	}
	s.store(ctx, p)
	return p, nil
}

// List returns active products matching opts.
func (s *ProductService) List(ctx context.Context, opts cart.ProductListOptions) ([]*cart.Product, error) {
	products, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Save creates or updates a catalogue entry by name and drops any cached copy so the next
// lookup sees the new price and stock.
func (s *ProductService) Save(ctx context.Context, p *cart.Product) (*cart.Product, error) {
	saved, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}
	if s.cache != nil {
		if _, err := s.cache.Delete(ctx, productCacheKey(saved.ID)); err != nil {
			s.logger.WarnContext(ctx, "product cache invalidation failed", "product_id", saved.ID, "error", err)
		}
	}
	return saved, nil
}

// cached serves a product from the cache. Cache failures fall through to the repository.
func (s *ProductService) cached(ctx context.Context, id int64) (*cart.Product, bool) {
	if s.cache == nil {
		return nil, false
	}
	b, err := s.cache.Get(ctx, productCacheKey(id))
	if err != nil {
		s.logger.WarnContext(ctx, "product cache read failed", "product_id", id, "error", err)
		return nil, false
	}
	if b == nil {
		return nil, false
	}
	var p cart.Product
	if err := json.Unmarshal(b, &p); err != nil {
		s.logger.WarnContext(ctx, "dropping unreadable cached product", "product_id", id, "error", err)
		if _, delErr := s.cache.Delete(ctx, productCacheKey(id)); delErr != nil {
			s.logger.WarnContext(ctx, "product cache delete failed", "product_id", id, "error", delErr)
		}
		return nil, false
	}
	return &p, true
}

func (s *ProductService) store(ctx context.Context, p *cart.Product) {
	if s.cache == nil || p == nil {
		return
	}
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, productCacheKey(p.ID), b, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "product cache write failed", "product_id", p.ID, "error", err)
	}
}
