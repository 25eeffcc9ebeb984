package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/petalcart/internal/domain/auth"
	"github.com/target/petalcart/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider     = (*MockAuthProvider)(nil)
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
	_ ports.RoleMapper       = (*StaticRoleMapper)(nil)
	_ ports.PasswordHasher   = (*PlainHasher)(nil)
	_ ports.TokenIssuer      = (*MemoryTokenIssuer)(nil)
	_ ports.LoginThrottle    = (*MemoryThrottle)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	callCount int
}

func defaultIdentity() domainauth.Identity {
	return domainauth.Identity{
		Subject: "mock-user-1",
		Name:    "Mock Florist",
		Email:   "mock.florist@example.com",
		Groups:  []string{"storefront-clients"},
	}
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: defaultIdentity(),
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return authURL, fmt.Sprintf("%s-%d", statePrefix, m.callCount), fmt.Sprintf("%s-%d", noncePrefix, m.callCount), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	user := m.DefaultUser
	if user.Subject == "" {
		user = defaultIdentity()
	}
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if id == "" || !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ErrNotFound is returned by MemorySessionStore for unknown ids.
var ErrNotFound = ports.ErrSessionNotFound

// StaticRoleMapper maps groups by simple string membership rules.
type StaticRoleMapper struct {
	AdminGroup  string
	ClientGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range groups {
		if m.ClientGroup != "" && g == m.ClientGroup {
			return domainauth.RoleClient
		}
	}
	return domainauth.RoleAnonymous
}

// ErrMismatch is returned by PlainHasher.Compare for a wrong password.
var ErrMismatch = errors.New("password mismatch")

// PlainHasher "hashes" by prefixing, keeping tests fast and readable.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

func (PlainHasher) Compare(hash, password string) error {
	if !strings.HasPrefix(hash, "plain:") || strings.TrimPrefix(hash, "plain:") != password {
		return ErrMismatch
	}
	return nil
}

// ErrInvalidToken is returned by MemoryTokenIssuer for unknown or expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// MemoryTokenIssuer hands out opaque sequential tokens and remembers their claims.
type MemoryTokenIssuer struct {
	mu     sync.Mutex
	Now    func() time.Time
	seq    int
	tokens map[string]ports.TokenClaims
}

// NewMemoryTokenIssuer creates an empty issuer using the wall clock.
func NewMemoryTokenIssuer() *MemoryTokenIssuer {
	return &MemoryTokenIssuer{Now: time.Now, tokens: make(map[string]ports.TokenClaims)}
}

func (m *MemoryTokenIssuer) Issue(claims ports.TokenClaims) (string, error) {
	if claims.SessionID == "" {
		return "", errors.New("session id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.tokens[token] = claims
	return token, nil
}

func (m *MemoryTokenIssuer) Parse(token string) (ports.TokenClaims, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	claims, ok := m.tokens[token]
	if !ok {
		return ports.TokenClaims{}, ErrInvalidToken
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	if !claims.ExpiresAt.IsZero() && now().After(claims.ExpiresAt) {
		return ports.TokenClaims{}, ErrInvalidToken
	}
	return claims, nil
}

// MemoryThrottle counts failures per key without expiry.
type MemoryThrottle struct {
	mu          sync.Mutex
	MaxAttempts int
	counts      map[string]int
}

// NewMemoryThrottle creates a throttle allowing maxAttempts failures per key.
func NewMemoryThrottle(maxAttempts int) *MemoryThrottle {
	return &MemoryThrottle{MaxAttempts: maxAttempts, counts: make(map[string]int)}
}

func (m *MemoryThrottle) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key] < m.MaxAttempts, nil
}

func (m *MemoryThrottle) Fail(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[key]++
	return nil
}

func (m *MemoryThrottle) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, key)
	return nil
}

// Failures returns the recorded failure count for key.
func (m *MemoryThrottle) Failures(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}
