// Package jwttoken signs and verifies HS256 access tokens that point at a server-side session.
package jwttoken

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/target/petalcart/internal/domain/auth"
	"github.com/target/petalcart/internal/ports"
)

// MinSecretLength is the shortest HMAC secret accepted.
const MinSecretLength = 32

var (
	// ErrInvalidToken is returned for malformed, badly signed or mis-issued tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for tokens past their exp claim.
	ErrExpiredToken = errors.New("token expired")
)

// Config controls token issuance.
type Config struct {
	Secret string
	Issuer string // default "petalcart"
	Now    func() time.Time
}

// Issuer implements ports.TokenIssuer.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

var _ ports.TokenIssuer = (*Issuer)(nil)

type sessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Role      string `json:"role"`
}

// New constructs an Issuer.
func New(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "petalcart"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(cfg.Secret), issuer: issuer, now: now}, nil
}

// Issue signs claims into a compact JWT.
func (i *Issuer) Issue(c ports.TokenClaims) (string, error) {
	if c.SessionID == "" {
		return "", errors.New("session id is required")
	}
	if c.UserID <= 0 {
		return "", errors.New("user id is required")
	}
	if c.ExpiresAt.IsZero() {
		return "", errors.New("expiry is required")
	}
	now := i.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatInt(c.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
		SessionID: c.SessionID,
		Role:      string(c.Role),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns its claims.
func (i *Issuer) Parse(token string) (ports.TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ports.TokenClaims{}, ErrInvalidToken
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.TokenClaims{}, ErrExpiredToken
		}
		return ports.TokenClaims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || userID <= 0 || parsed.SessionID == "" {
		return ports.TokenClaims{}, ErrInvalidToken
	}

	return ports.TokenClaims{
		SessionID: parsed.SessionID,
		UserID:    userID,
		Role:      domainauth.ParseRole(parsed.Role),
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}
