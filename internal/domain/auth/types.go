package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleClient    Role = "client"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a server-issued role string onto a Role.
// Unknown or empty values map to RoleAnonymous; a role is never elevated locally.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleClient:
		return RoleClient
	default:
		return RoleAnonymous
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == RoleAnonymous || r == RoleClient || r == RoleAdmin
}

// Principal is the actor making a request.
// ID is nil exactly when Role is RoleAnonymous.
type Principal struct {
	ID            *int64 `json:"id,omitempty"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Role          Role   `json:"role"`
	IsActive      *bool  `json:"is_active,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// Anonymous returns the principal used when no authenticated session exists.
func Anonymous() *Principal {
	return &Principal{Role: RoleAnonymous}
}

// IsAnonymous reports whether p represents an unauthenticated actor.
// A nil or malformed principal is anonymous.
func (p *Principal) IsAnonymous() bool {
	return p == nil || p.ID == nil || (p.Role != RoleClient && p.Role != RoleAdmin)
}

// IsAdmin reports whether p carries the admin role from an authenticated session.
func (p *Principal) IsAdmin() bool {
	return !p.IsAnonymous() && p.Role == RoleAdmin
}

// Active reports whether p is active. An unspecified IsActive counts as active.
func (p *Principal) Active() bool {
	return p != nil && (p.IsActive == nil || *p.IsActive)
}

// UserID returns the principal's id, or zero when anonymous.
func (p *Principal) UserID() int64 {
	if p.IsAnonymous() {
		return 0
	}
	return *p.ID
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	Subject   string
	Name      string
	Email     string
	Groups    []string
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier and is what access tokens reference.
type Session struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"user_id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	IsActive      *bool     `json:"is_active,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Principal converts the session into the principal it authenticates.
func (s Session) Principal() *Principal {
	role := ParseRole(string(s.Role))
	if role == RoleAnonymous || s.UserID == 0 {
		return Anonymous()
	}
	id := s.UserID
	return &Principal{
		ID:            &id,
		Email:         s.Email,
		Name:          s.Name,
		Role:          role,
		IsActive:      s.IsActive,
		EmailVerified: s.EmailVerified,
	}
}
