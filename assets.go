// Package petalcart provides embedded assets for production builds.
package petalcart

import "embed"

// TemplateFS holds the storefront page shell templates.
//
//go:embed web/templates/*.html
var TemplateFS embed.FS
