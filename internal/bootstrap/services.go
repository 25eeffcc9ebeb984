package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/petalcart/config"
	redisadapter "github.com/target/petalcart/internal/adapters/redis"
	"github.com/target/petalcart/internal/data"
	"github.com/target/petalcart/internal/domain/access"
	httpx "github.com/target/petalcart/internal/http"
	"github.com/target/petalcart/internal/observability/statsd"
	"github.com/target/petalcart/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth       *service.AuthService
	Products   *service.ProductService
	Carts      *service.CartService
	Reconciler *service.Reconciler
	Gate       access.Gate
	Metrics    *statsd.Client
	Health     map[string]httpx.HealthChecker
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Users    *data.UserRepo
	Products *data.ProductRepo
	Carts    *data.CartRepo
	Cache    *data.RedisCacheRepo
}

func buildRepositories(db *sql.DB, client redis.UniversalClient) serviceRepositories {
	return serviceRepositories{
		Users:    data.NewUserRepo(db),
		Products: data.NewProductRepo(db),
		Carts:    data.NewCartRepo(db),
		Cache:    data.NewRedisCacheRepo(client, "cache:"),
	}
}

// buildMetrics returns nil when metrics are disabled or the agent cannot be dialled.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// metricsSink keeps a nil client from becoming a non-nil interface.
//
//nolint:ireturn // callers only need the sink behaviour.
func metricsSink(c *statsd.Client) statsd.Sink {
	if c == nil {
		return nil
	}
	return c
}

// NewServices wires repositories, adapters and services from configuration.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.DB == nil || deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("database and redis are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	repos := buildRepositories(deps.DB, deps.RedisClient)
	metricsClient := buildMetrics(logger, cfg.Observability.Metrics)
	sink := metricsSink(metricsClient)

	auth, err := BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		Users:       repos.Users,
		RedisClient: deps.RedisClient,
		Metrics:     sink,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth service: %w", err)
	}

	products := service.NewProductService(service.ProductServiceOptions{
		Repo:   repos.Products,
		Cache:  service.ProductCacheOptions{Repo: repos.Cache, TTL: cfg.Cache.ProductTTL},
		Logger: logger,
	})
	carts := service.NewCartService(service.CartServiceOptions{
		Carts:    repos.Carts,
		Products: repos.Products,
		Logger:   logger,
	})
	reconciler := service.NewReconciler(service.ReconcilerOptions{
		Deps: service.ReconcilerDeps{
			Cart:     carts,
			Products: products,
			Guests: redisadapter.NewGuestActionStore(redisadapter.GuestActionStoreOptions{
				Client: deps.RedisClient,
				TTL:    cfg.Cart.GuestActionTTL,
				Logger: logger,
			}),
			Metrics: sink,
		},
		Config: service.ReconcilerConfig{ReplayWindow: cfg.Cart.ReplayWindow},
		Logger: logger,
	})

	return ServiceContainer{
		Auth:       auth,
		Products:   products,
		Carts:      carts,
		Reconciler: reconciler,
		Gate:       access.NewGate(cfg.Cart.PublicPaths, cfg.Cart.AdminPrefix),
		Metrics:    metricsClient,
		Health: map[string]httpx.HealthChecker{
			"postgres": healthFunc(deps.DB.PingContext),
			"redis":    repos.Cache,
		},
	}, nil
}
