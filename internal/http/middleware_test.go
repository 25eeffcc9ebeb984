package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/petalcart/internal/domain/auth"
	mockauth "github.com/target/petalcart/internal/mocks/auth"
	"github.com/target/petalcart/internal/ports"
	"github.com/target/petalcart/internal/service"
)

type downSessionStore struct{}

func (downSessionStore) Save(context.Context, domainauth.Session) error { return errors.New("redis down") }
func (downSessionStore) Get(context.Context, string) (domainauth.Session, error) {
	return domainauth.Session{}, errors.New("redis down")
}
func (downSessionStore) Delete(context.Context, string) error { return errors.New("redis down") }

func TestAuthenticate_SessionStoreOutage(t *testing.T) {
	tokens := mockauth.NewMemoryTokenIssuer()
	token, err := tokens.Issue(ports.TokenClaims{
		SessionID: "sid-1", UserID: 7, Role: domainauth.RoleClient, ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	svc := service.NewAuthService(service.AuthServiceOptions{
		Deps: service.AuthDeps{
			Users: newMemUsers(), Sessions: downSessionStore{}, Tokens: tokens, Hasher: mockauth.PlainHasher{},
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	called := false
	h := Authenticate(AuthMiddlewareOptions{Svc: svc})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: CookieSessionToken, Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decodeBody(t, rec)["error"])
	assert.Nil(t, findCookie(rec, CookieSessionToken), "an outage must not log the user out")
}

func TestRouter_HealthSurvivesSessionStoreOutage(t *testing.T) {
	tokens := mockauth.NewMemoryTokenIssuer()
	token, err := tokens.Issue(ports.TokenClaims{
		SessionID: "sid-1", UserID: 7, Role: domainauth.RoleClient, ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewAuthService(service.AuthServiceOptions{
		Deps: service.AuthDeps{
			Users: newMemUsers(), Sessions: downSessionStore{}, Tokens: tokens, Hasher: mockauth.PlainHasher{},
		},
		Logger: logger,
	})
	shop := newMemShop(roses)
	h, err := NewRouter(RouterServices{Auth: svc, Carts: shop, Products: shop, Logger: logger})
	require.NoError(t, err)

	for _, target := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.AddCookie(&http.Cookie{Name: CookieSessionToken, Value: token})
		rec := serve(h, req)
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: CookieSessionToken, Value: token})
	rec := serve(h, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGuestID(t *testing.T) {
	var seen string
	h := GuestID(Cookies{})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GuestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	issued := findCookie(rec, CookieGuestID)
	require.NotNil(t, issued)
	assert.Equal(t, issued.Value, seen)
	assert.Equal(t, int(DefaultGuestCookieTTL.Seconds()), issued.MaxAge)
	assert.True(t, issued.HttpOnly)

	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieGuestID, Value: existing})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, existing, seen)
	assert.Nil(t, findCookie(rec, CookieGuestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieGuestID, Value: "not-a-uuid"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", seen)
	assert.NotNil(t, findCookie(rec, CookieGuestID))
}

func TestCookies_SecureBehindTLSProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	Cookies{Domain: "shop.example.com"}.SetSession(rec, req, "tok", time.Now().Add(time.Hour))

	c := findCookie(rec, CookieSessionToken)
	require.NotNil(t, c)
	assert.True(t, c.Secure)
	assert.Equal(t, "shop.example.com", c.Domain)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	rec = httptest.NewRecorder()
	Cookies{}.SetSession(rec, httptest.NewRequest(http.MethodGet, "/", nil), "tok", time.Now().Add(-time.Minute))
	c = findCookie(rec, CookieSessionToken)
	require.NotNil(t, c)
	assert.Negative(t, c.MaxAge)
}

func TestRecover(t *testing.T) {
	h := Recover(slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPrincipalFromContext_DefaultsToAnonymous(t *testing.T) {
	p := PrincipalFromContext(context.Background())
	assert.True(t, p.IsAnonymous())
	assert.Empty(t, GuestIDFromContext(context.Background()))
}

type timingSink struct {
	counts  map[string]map[string]string
	timings int
}

func (s *timingSink) Count(name string, _ int64, tags map[string]string) {
	if s.counts == nil {
		s.counts = make(map[string]map[string]string)
	}
	s.counts[name] = tags
}

func (s *timingSink) Timing(string, time.Duration, map[string]string) { s.timings++ }

func TestMetrics(t *testing.T) {
	sink := &timingSink{}
	h := Metrics(sink)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, map[string]string{"method": "GET", "status": "4xx"}, sink.counts["http.request"])
	assert.Equal(t, 1, sink.timings)

	inner := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, Metrics(nil)(inner))
}
