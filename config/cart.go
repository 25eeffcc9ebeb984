package config

import (
	"errors"
	"strings"
	"time"
)

// CartConfig tunes guest cart capture and the page access gate.
type CartConfig struct {
	// ReplayWindow is how old a deferred add-to-cart may be and still be replayed after sign-in.
	ReplayWindow time.Duration `env:"CART_REPLAY_WINDOW" envDefault:"1h"`

	// GuestActionTTL bounds how long an unreplayed action is kept in Redis.
	GuestActionTTL time.Duration `env:"CART_GUEST_ACTION_TTL" envDefault:"24h"`

	// GuestCookieTTL is the lifetime of the anonymous visitor cookie.
	GuestCookieTTL time.Duration `env:"CART_GUEST_COOKIE_TTL" envDefault:"720h"`

	// PublicPaths are reachable without signing in.
	PublicPaths []string `env:"ACCESS_PUBLIC_PATHS" envDefault:"/,/products,/about,/contact,/login,/register" envSeparator:","`

	// AdminPrefix guards the admin area.
	AdminPrefix string `env:"ACCESS_ADMIN_PREFIX" envDefault:"/admin"`
}

// Sanitize normalises paths and fills zero durations with defaults.
func (c *CartConfig) Sanitize() {
	if c.ReplayWindow <= 0 {
		c.ReplayWindow = time.Hour
	}
	if c.GuestActionTTL < c.ReplayWindow {
		c.GuestActionTTL = c.ReplayWindow
	}
	if c.GuestCookieTTL <= 0 {
		c.GuestCookieTTL = 30 * 24 * time.Hour
	}

	paths := make([]string, 0, len(c.PublicPaths))
	for _, p := range c.PublicPaths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	c.PublicPaths = paths

	c.AdminPrefix = strings.TrimRight(strings.TrimSpace(c.AdminPrefix), "/")
	if c.AdminPrefix == "" {
		c.AdminPrefix = "/admin"
	}
}

// Validate rejects path settings the gate cannot use.
func (c *CartConfig) Validate() error {
	var errs []error
	for _, p := range c.PublicPaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, errors.New("ACCESS_PUBLIC_PATHS entries must start with /: "+p))
		}
	}
	if !strings.HasPrefix(c.AdminPrefix, "/") {
		errs = append(errs, errors.New("ACCESS_ADMIN_PREFIX must start with /"))
	}
	return errors.Join(errs...)
}
