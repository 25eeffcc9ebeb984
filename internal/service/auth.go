package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/target/petalcart/internal/core"
	"github.com/target/petalcart/internal/domain/access"
	domainauth "github.com/target/petalcart/internal/domain/auth"
	apperrors "github.com/target/petalcart/internal/errors"
	"github.com/target/petalcart/internal/observability/metrics"
	"github.com/target/petalcart/internal/observability/statsd"
	"github.com/target/petalcart/internal/ports"
)

// DefaultSessionTTL is used when AuthSettings.SessionTTL is unset.
const DefaultSessionTTL = 24 * time.Hour

var (
	errInvalidCredentials = apperrors.Unauthorized("Invalid email or password.")
	errAccountDisabled    = apperrors.Unauthorized("This account has been deactivated.")
	errTooManyAttempts    = apperrors.RateLimited("Too many login attempts. Please try again later.")
	errSSODisabled        = apperrors.NotFound("single sign-on is not enabled")
	errSSONotPermitted    = apperrors.Unauthorized("Your account is not permitted to sign in here.")
)

// AuthDeps are the ports AuthService coordinates.
type AuthDeps struct {
	Users    core.UserRepository
	Sessions ports.SessionStore
	Tokens   ports.TokenIssuer
	Hasher   ports.PasswordHasher
	Throttle ports.LoginThrottle // optional
	Provider ports.AuthProvider  // optional; enables BeginLogin/CompleteLogin
	Roles    ports.RoleMapper    // required with Provider
	Metrics  statsd.Sink         // optional
}

// AuthSettings tunes session lifetime.
type AuthSettings struct {
	SessionTTL time.Duration
	Now        func() time.Time
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Deps     AuthDeps
	Settings AuthSettings
	Logger   *slog.Logger // optional
}

// AuthService registers and signs in accounts, issues access tokens that reference a
// server-side session, and resolves presented tokens back into principals.
type AuthService struct {
	deps   AuthDeps
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	d := opts.Deps
	if d.Users == nil || d.Sessions == nil || d.Tokens == nil || d.Hasher == nil {
		panic("AuthService requires Users, Sessions, Tokens and Hasher")
	}
	if d.Provider != nil && d.Roles == nil {
		panic("AuthService requires Roles when a Provider is configured")
	}
	ttl := opts.Settings.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := opts.Settings.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{deps: d, ttl: ttl, now: now, logger: logger.With("component", "auth_service")}
}

// LoginResult is returned by every successful sign-in path.
type LoginResult struct {
	Principal *domainauth.Principal
	Session   domainauth.Session
	Token     string
}

// Register creates a client account and signs it in.
func (s *AuthService) Register(ctx context.Context, req domainauth.RegisterRequest) (res *LoginResult, err error) {
	defer func() { metrics.EmitLogin(s.deps.Metrics, "register", err) }()
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	hash, err := s.deps.Hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.deps.Users.Create(ctx, &domainauth.CreateUserRequest{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: &hash,
		Role:         domainauth.RoleClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.startSession(ctx, user, s.now().Add(s.ttl))
}

// Login verifies email/password credentials. Failed attempts are counted per email and
// rejected with a rate-limited error once the throttle trips.
func (s *AuthService) Login(ctx context.Context, email, password string) (res *LoginResult, err error) {
	defer func() { metrics.EmitLogin(s.deps.Metrics, "password", err) }()
	email = domainauth.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	if s.deps.Throttle != nil {
		allowed, err := s.deps.Throttle.Allow(ctx, email)
		if err != nil {
			s.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
		} else if !allowed {
			return nil, errTooManyAttempts
		}
	}

	user, err := s.deps.Users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, s.rejectCredentials(ctx, email)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.PasswordHash == nil || s.deps.Hasher.Compare(*user.PasswordHash, password) != nil {
		return nil, s.rejectCredentials(ctx, email)
	}
	if !user.IsActive {
		return nil, errAccountDisabled
	}

	if s.deps.Throttle != nil {
		if err := s.deps.Throttle.Reset(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "login throttle reset failed", "error", err)
		}
	}
	return s.startSession(ctx, user, s.now().Add(s.ttl))
}

func (s *AuthService) rejectCredentials(ctx context.Context, email string) error {
	if s.deps.Throttle != nil {
		if err := s.deps.Throttle.Fail(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "login throttle update failed", "error", err)
		}
	}
	return errInvalidCredentials
}

// Logout deletes the session referenced by token. Unknown or invalid tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.deps.Tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.deps.Sessions.Delete(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logTransition(ctx, access.StateOf(&domainauth.Principal{ID: &claims.UserID, Role: claims.Role}),
		access.Event{Kind: access.EventLogout}, "user_id", claims.UserID)
	return nil
}

// Resolution is the principal behind a presented token.
type Resolution struct {
	Principal *domainauth.Principal
	// Orphaned is set when a token was presented but no live session backs it.
	// Callers must force a logout, e.g. by clearing the credential cookie.
	Orphaned bool
}

// ResolvePrincipal maps a token to its principal. No token yields the anonymous principal.
// A token that fails verification, or whose session is gone, yields an orphaned resolution.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (Resolution, error) {
	if token == "" {
		return Resolution{Principal: domainauth.Anonymous()}, nil
	}

	claims, err := s.deps.Tokens.Parse(token)
	if err != nil {
		return s.orphan(ctx, access.StateAnonymous, "reason", "invalid_token", "error", err), nil
	}
	claimed := access.StateOf(&domainauth.Principal{ID: &claims.UserID, Role: claims.Role})

	sess, err := s.deps.Sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return s.orphan(ctx, claimed, "reason", "session_missing", "user_id", claims.UserID), nil
		}
		return Resolution{}, apperrors.Unavailable(err, "session store is temporarily unavailable")
	}

	principal := sess.Principal()
	if principal.IsAnonymous() || sess.UserID != claims.UserID {
		if delErr := s.deps.Sessions.Delete(ctx, claims.SessionID); delErr != nil {
			s.logger.WarnContext(ctx, "delete orphaned session failed", "error", delErr)
		}
		return s.orphan(ctx, claimed, "reason", "session_mismatch", "user_id", claims.UserID), nil
	}
	return Resolution{Principal: principal}, nil
}

func (s *AuthService) orphan(ctx context.Context, from access.State, attrs ...any) Resolution {
	s.logTransition(ctx, from, access.Event{Kind: access.EventOrphanToken}, attrs...)
	return Resolution{Principal: domainauth.Anonymous(), Orphaned: true}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// SSOEnabled reports whether an identity provider is configured.
func (s *AuthService) SSOEnabled() bool {
	return s.deps.Provider != nil
}

// BeginLogin initiates an identity-provider flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.deps.Provider == nil {
		return nil, errSSODisabled
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.deps.Provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code for an identity, maps its groups to a role, records the
// account and signs it in. Identities that map to no role are refused.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (res *LoginResult, err error) {
	defer func() { metrics.EmitLogin(s.deps.Metrics, "sso", err) }()
	if s.deps.Provider == nil {
		return nil, errSSODisabled
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.deps.Provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	role := s.deps.Roles.Map(identity.Groups)
	if role == domainauth.RoleAnonymous {
		s.logger.InfoContext(ctx, "identity has no storefront role", "subject", identity.Subject)
		return nil, errSSONotPermitted
	}

	user, err := s.deps.Users.UpsertExternal(ctx, &domainauth.CreateUserRequest{
		Email:         identity.Email,
		Name:          identity.Name,
		Role:          role,
		EmailVerified: true,
	})
	if err != nil {
		return nil, fmt.Errorf("record external user: %w", err)
	}
	if !user.IsActive {
		return nil, errAccountDisabled
	}

	expires := s.now().Add(s.ttl)
	if !identity.ExpiresAt.IsZero() && identity.ExpiresAt.Before(expires) {
		expires = identity.ExpiresAt
	}
	return s.startSession(ctx, user, expires)
}

func (s *AuthService) startSession(ctx context.Context, user *domainauth.User, expires time.Time) (*LoginResult, error) {
	principal := user.Principal()
	sess := domainauth.Session{
		ID:            generateSessionID(),
		UserID:        user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          principal.Role,
		IsActive:      principal.IsActive,
		EmailVerified: user.EmailVerified,
		ExpiresAt:     expires,
	}
	if err := s.deps.Sessions.Save(ctx, sess); err != nil {
		return nil, apperrors.Unavailable(err, "could not start a session")
	}

	token, err := s.deps.Tokens.Issue(ports.TokenClaims{
		SessionID: sess.ID,
		UserID:    user.ID,
		Role:      sess.Role,
		ExpiresAt: expires,
	})
	if err != nil {
		if delErr := s.deps.Sessions.Delete(ctx, sess.ID); delErr != nil {
			return nil, errors.Join(fmt.Errorf("issue token: %w", err), fmt.Errorf("delete session: %w", delErr))
		}
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logTransition(ctx, access.StateAnonymous, access.Event{Kind: access.EventLogin, Principal: principal},
		"user_id", user.ID)
	return &LoginResult{Principal: sess.Principal(), Session: sess, Token: token}, nil
}

func (s *AuthService) logTransition(ctx context.Context, from access.State, ev access.Event, attrs ...any) {
	to := access.Next(from, ev)
	args := append([]any{"event", ev.Kind, "from", from, "to", to}, attrs...)
	s.logger.InfoContext(ctx, "auth state transition", args...)
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	return uuid.New().String()
}
