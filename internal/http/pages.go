package httpx

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	petalcart "github.com/target/petalcart"
	"github.com/target/petalcart/internal/domain/access"
)

// PageHandlers renders the storefront shell for page routes behind the gate.
type PageHandlers struct {
	gate   access.Gate
	tmpl   *template.Template
	logger *slog.Logger
}

// PageHandlersOptions groups dependencies for NewPageHandlers.
type PageHandlersOptions struct {
	Gate   access.Gate
	Logger *slog.Logger // optional
}

// NewPageHandlers parses the embedded page templates.
func NewPageHandlers(opts PageHandlersOptions) (*PageHandlers, error) {
	tmpl, err := template.ParseFS(petalcart.TemplateFS, "web/templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandlers{gate: opts.Gate, tmpl: tmpl, logger: logger.With("component", "pages")}, nil
}

type pageData struct {
	Title           string
	Path            string
	Message         string
	Name            string
	State           access.State
	Authenticated   bool
	AdminAffordance bool
}

// Serve gates the requested page and renders it, or redirects per the gate's decision.
// GET /{path...}.
func (h *PageHandlers) Serve(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFromContext(r.Context())
	// The gate decodes its input, so it gets the path as it came off the wire.
	d := h.gate.Decide(p, r.URL.EscapedPath())
	if d != access.Allow {
		http.Redirect(w, r, redirectTarget(d, r.URL.RequestURI()), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, pageTitle(r.URL.Path), "")
}

// Denied renders the access-denied page. It is reachable by everyone so a denied
// redirect always terminates.
// GET /denied.
func (h *PageHandlers) Denied(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusForbidden, "Access denied", "You do not have access to that page.")
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	p := PrincipalFromContext(r.Context())
	data := pageData{
		Title:           title,
		Path:            r.URL.Path,
		Message:         msg,
		State:           access.StateOf(p),
		Authenticated:   !p.IsAnonymous(),
		AdminAffordance: access.CanRenderAdminAffordance(p),
	}
	if data.Authenticated {
		data.Name = p.Name
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "page", data); err != nil {
		h.logger.ErrorContext(r.Context(), "render page failed", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		return
	}
}

func pageTitle(path string) string {
	seg := strings.Trim(path, "/")
	if seg == "" {
		return "Fresh flowers"
	}
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	seg = strings.ReplaceAll(seg, "-", " ")
	first, size := utf8.DecodeRuneInString(seg)
	return string(unicode.ToUpper(first)) + seg[size:]
}
