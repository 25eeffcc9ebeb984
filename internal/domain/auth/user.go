package auth

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// User is a persisted storefront account.
type User struct {
	ID            int64     `json:"id"             db:"id"`
	Email         string    `json:"email"          db:"email"`
	Name          string    `json:"name"           db:"name"`
	PasswordHash  *string   `json:"-"              db:"password_hash"`
	Role          Role      `json:"role"           db:"role"`
	IsActive      bool      `json:"is_active"      db:"is_active"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"     db:"updated_at"`
}

// Principal converts the account into an authenticated principal.
func (u *User) Principal() *Principal {
	if u == nil {
		return Anonymous()
	}
	id := u.ID
	active := u.IsActive
	return &Principal{
		ID:            &id,
		Email:         u.Email,
		Name:          u.Name,
		Role:          ParseRole(string(u.Role)),
		IsActive:      &active,
		EmailVerified: u.EmailVerified,
	}
}

// RegisterRequest carries the fields accepted by self-service registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims whitespace and lower-cases the email.
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
}

// Validate checks the registration fields.
func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len(r.Name) > 255 {
		return errors.New("name must be 255 characters or fewer")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil || !strings.Contains(r.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(r.Password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// CreateUserRequest is what the user repository persists.
type CreateUserRequest struct {
	Email         string
	Name          string
	PasswordHash  *string
	Role          Role
	EmailVerified bool
}

// NormalizeEmail lower-cases and trims an email for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
