package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/petalcart/config"
	"github.com/target/petalcart/internal/adapters/authroles"
	"github.com/target/petalcart/internal/adapters/devauth"
	"github.com/target/petalcart/internal/adapters/jwttoken"
	"github.com/target/petalcart/internal/adapters/oidc"
	"github.com/target/petalcart/internal/adapters/password"
	redisadapter "github.com/target/petalcart/internal/adapters/redis"
	"github.com/target/petalcart/internal/core"
	"github.com/target/petalcart/internal/observability/statsd"
	"github.com/target/petalcart/internal/ports"
	"github.com/target/petalcart/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	Users       core.UserRepository
	RedisClient redis.UniversalClient
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// BuildAuthService wires password sign-in, token issuing and Redis-backed sessions, plus a
// single sign-on provider when the auth mode asks for one.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth service requires a redis client")
	}
	if cfg.Users == nil {
		return nil, errors.New("auth service requires a user repository")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := jwttoken.New(jwttoken.Config{Secret: cfg.Auth.JWTSecret})
	if err != nil {
		return nil, fmt.Errorf("create token issuer: %w", err)
	}

	provider, err := buildProvider(cfg.Auth)
	if err != nil {
		return nil, err
	}

	deps := service.AuthDeps{
		Users:    cfg.Users,
		Sessions: redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:"),
		Tokens:   tokens,
		Hasher:   password.NewBcrypt(cfg.Auth.BcryptCost),
		Throttle: redisadapter.NewLoginThrottle(redisadapter.LoginThrottleOptions{
			Client:      cfg.RedisClient,
			MaxAttempts: cfg.Auth.Throttle.MaxAttempts,
			Window:      cfg.Auth.Throttle.Window,
		}),
		Provider: provider,
		Roles: authroles.StaticRoleMapper{
			AdminGroup:  cfg.Auth.AdminGroup,
			ClientGroup: cfg.Auth.ClientGroup,
		},
		Metrics: cfg.Metrics,
	}

	logger.Info("auth configured", "mode", cfg.Auth.Mode, "sso", provider != nil)
	return service.NewAuthService(service.AuthServiceOptions{
		Deps:     deps,
		Settings: service.AuthSettings{SessionTTL: cfg.Auth.SessionTTL},
		Logger:   logger,
	}), nil
}

// buildProvider returns nil in password mode.
//
//nolint:ireturn // the provider is chosen at runtime.
func buildProvider(cfg config.AuthConfig) (ports.AuthProvider, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		prov, err := devauth.NewProvider(devauth.Config{
			Name:   cfg.DevAuth.Name,
			Email:  cfg.DevAuth.Email,
			Groups: cfg.DevAuth.Groups,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		return prov, nil

	case config.AuthModeOAuth:
		prov, err := oidc.NewProvider(oidc.ProviderConfig{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
			Scope:        cfg.OAuth.Scope,
			DiscoveryURL: cfg.OAuth.DiscoveryURL,
			GroupsClaim:  cfg.OAuth.GroupsClaim,
		})
		if err != nil {
			return nil, fmt.Errorf("create OIDC provider: %w", err)
		}
		return prov, nil

	default:
		return nil, nil
	}
}
