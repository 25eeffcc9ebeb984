package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinJWTSecretLength is the shortest accepted token signing secret, in bytes.
const MinJWTSecretLength = 32

// devJWTSecret is substituted in development mode when no secret is configured.
const devJWTSecret = "petalcart-development-only-signing-key"

// AuthMode represents how staff and shoppers sign in.
type AuthMode string

const (
	// AuthModePassword allows email/password accounts only.
	AuthModePassword AuthMode = "password"
	// AuthModeOAuth adds OAuth/OIDC single sign-on.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock adds a development single sign-on provider that always succeeds.
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "password", "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/api/auth/oauth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	// GroupsClaim is a JMESPath expression over the ID token claims, e.g. "realm_access.roles".
	GroupsClaim string `env:"GROUPS_CLAIM" envDefault:"groups"`
}

// DevAuthConfig controls the identity returned when AUTH_MODE=mock.
type DevAuthConfig struct {
	Name   string   `env:"NAME"   envDefault:"Dev Florist"`
	Email  string   `env:"EMAIL"  envDefault:"dev@petalcart.local"`
	Groups []string `env:"GROUPS" envDefault:"florists"           envSeparator:";"`
}

// LoginThrottleConfig bounds failed password attempts per email.
type LoginThrottleConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	Window      time.Duration `env:"WINDOW"       envDefault:"15m"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines whether single sign-on is offered, and by which provider.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// JWTSecret signs access tokens. At least MinJWTSecretLength bytes.
	JWTSecret  string        `env:"AUTH_JWT_SECRET"`
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL"  envDefault:"24h"`
	BcryptCost int           `env:"AUTH_BCRYPT_COST"  envDefault:"10"`

	Throttle LoginThrottleConfig `envPrefix:"AUTH_LOGIN_"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminGroup is the IdP group whose members sign in as admins.
	AdminGroup string `env:"ADMIN_GROUP" envDefault:"florists"`

	// ClientGroup is the IdP group whose members sign in as clients.
	ClientGroup string `env:"CLIENT_GROUP" envDefault:"storefront-clients"`
}

// SSOEnabled reports whether an OAuth-style login flow is configured.
func (c *AuthConfig) SSOEnabled() bool {
	return c.Mode == AuthModeOAuth || c.Mode == AuthModeMock
}

// Sanitize applies defaults to auth values.
func (c *AuthConfig) Sanitize() {
	if c.Mode == "" {
		c.Mode = AuthModePassword
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.Throttle.MaxAttempts <= 0 {
		c.Throttle.MaxAttempts = 5
	}
	if c.Throttle.Window <= 0 {
		c.Throttle.Window = 15 * time.Minute
	}
	c.AdminGroup = strings.TrimSpace(c.AdminGroup)
	c.ClientGroup = strings.TrimSpace(c.ClientGroup)
	c.OAuth.DiscoveryURL = strings.TrimSpace(c.OAuth.DiscoveryURL)
	if strings.TrimSpace(c.OAuth.GroupsClaim) == "" {
		c.OAuth.GroupsClaim = "groups"
	}
}

// Validate checks secrets and mode-specific settings. In development mode a missing JWT
// secret is replaced with a fixed local key.
func (c *AuthConfig) Validate(isDev bool) error {
	var errs []error
	if c.JWTSecret == "" && isDev {
		c.JWTSecret = devJWTSecret
	}
	if len(c.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}
	if c.Mode == AuthModeMock && !isDev {
		errs = append(errs, errors.New("AUTH_MODE=mock is only allowed in development"))
	}
	if c.Mode == AuthModeOAuth {
		if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
			errs = append(errs, errors.New("OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required for oauth mode"))
		}
		if c.OAuth.DiscoveryURL == "" {
			errs = append(errs, errors.New("OAUTH_DISCOVERY_URL is required for oauth mode"))
		}
	}
	if c.SSOEnabled() && c.AdminGroup == "" && c.ClientGroup == "" {
		errs = append(errs, errors.New("ADMIN_GROUP or CLIENT_GROUP is required for single sign-on"))
	}
	return errors.Join(errs...)
}
