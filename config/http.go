package config

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for session and visitor cookies.
	// Leave empty to use the request host.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`
}

// Sanitize applies guardrails to HTTP configuration values. A cookie domain that is itself
// a public suffix (e.g. "co.uk") would be rejected by browsers, so it is dropped.
func (h *HTTPConfig) Sanitize() {
	if strings.TrimSpace(h.Addr) == "" {
		h.Addr = ":8080"
	}
	h.CookieDomain = sanitizeCookieDomain(h.CookieDomain)
}

func sanitizeCookieDomain(raw string) string {
	domain := strings.ToLower(strings.Trim(strings.TrimSpace(raw), "."))
	if domain == "" || domain == "localhost" {
		return ""
	}
	if strings.ContainsAny(domain, ":/ ") {
		return ""
	}
	if suffix, _ := publicsuffix.PublicSuffix(domain); suffix == domain {
		return ""
	}
	return domain
}
