// Package access decides whether a principal may reach a storefront route and tracks the
// principal's authentication state across navigation.
package access

import (
	"net/url"
	"path"
	"strings"

	domainauth "github.com/target/petalcart/internal/domain/auth"
)

// Decision is the outcome of evaluating a (principal, path) pair.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToHome
	RedirectToDenied
)

// String returns the wire name of the decision.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToHome:
		return "redirect_to_home"
	default:
		return "redirect_to_denied"
	}
}

// Target returns the path a caller should navigate to, or "" for Allow.
func (d Decision) Target() string {
	switch d {
	case Allow:
		return ""
	case RedirectToLogin:
		return "/login"
	case RedirectToHome:
		return "/"
	default:
		return "/denied"
	}
}

// MarshalText renders the decision by name.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultPublicPaths are reachable without authentication.
// A public path also covers its sub-paths, except for "/".
var DefaultPublicPaths = []string{"/", "/products", "/about", "/contact", "/login", "/register"}

// DefaultAdminPrefix is the namespace that requires the admin role.
const DefaultAdminPrefix = "/admin"

// Gate evaluates route access. The zero value uses the defaults above.
type Gate struct {
	PublicPaths []string
	AdminPrefix string
}

// NewGate builds a gate, falling back to defaults for empty settings.
func NewGate(publicPaths []string, adminPrefix string) Gate {
	g := Gate{AdminPrefix: adminPrefix}
	for _, p := range publicPaths {
		if c, ok := cleanPath(p); ok {
			g.PublicPaths = append(g.PublicPaths, c)
		}
	}
	return g
}

func (g Gate) publicPaths() []string {
	if len(g.PublicPaths) == 0 {
		return DefaultPublicPaths
	}
	return g.PublicPaths
}

func (g Gate) adminPrefix() string {
	prefix := strings.TrimRight(strings.TrimSpace(g.AdminPrefix), "/")
	if prefix == "" {
		return DefaultAdminPrefix
	}
	return prefix
}

// Decide returns the access decision for principal requesting rawPath.
// A nil principal is anonymous. Paths that are not clean absolute paths are denied.
func (g Gate) Decide(principal *domainauth.Principal, rawPath string) Decision {
	p, ok := cleanPath(rawPath)
	if !ok {
		return RedirectToDenied
	}

	if principal.IsAnonymous() {
		if g.IsPublic(p) {
			return Allow
		}
		return RedirectToLogin
	}

	if g.IsAdminPath(p) && !principal.IsAdmin() {
		return RedirectToHome
	}
	return Allow
}

// IsPublic reports whether p is in the public allow-set.
func (g Gate) IsPublic(p string) bool {
	for _, pub := range g.publicPaths() {
		if p == pub {
			return true
		}
		if pub != "/" && strings.HasPrefix(p, pub+"/") {
			return true
		}
	}
	return false
}

// IsAdminPath reports whether p falls inside the admin namespace.
func (g Gate) IsAdminPath(p string) bool {
	prefix := g.adminPrefix()
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// CanRenderAdminAffordance reports whether admin-only UI should be shown to principal.
// An unspecified IsActive is treated as active. This only gates visibility; handlers
// performing admin operations check the role themselves.
func CanRenderAdminAffordance(principal *domainauth.Principal) bool {
	return principal.IsAdmin() && principal.Active()
}

// cleanPath normalises a request path, rejecting anything that is not a plain absolute path.
func cleanPath(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return "", false
	}
	p := u.Path
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return "", false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", false
		}
	}
	cleaned := path.Clean(p)
	return cleaned, true
}
