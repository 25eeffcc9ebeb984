package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/petalcart/internal/domain/auth"
	"github.com/target/petalcart/internal/ports"
)

func TestMockAuthProvider_Begin_Defaults(t *testing.T) {
	provider := NewMockAuthProvider()
	ctx := context.Background()
	input := ports.BeginInput{RedirectURL: "http://localhost:8080/api/auth/oauth/callback"}

	authURL, state, nonce, err := provider.Begin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", authURL)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	_, state2, nonce2, err := provider.Begin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMockAuthProvider_Exchange(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		identity, err := NewMockAuthProvider().Exchange(context.Background(), ports.ExchangeInput{Code: "c"})
		require.NoError(t, err)
		assert.Equal(t, "mock-user-1", identity.Subject)
		assert.Equal(t, "mock.florist@example.com", identity.Email)
		assert.True(t, identity.ExpiresAt.After(time.Now()))
	})

	t.Run("custom func", func(t *testing.T) {
		provider := &MockAuthProvider{
			ExchangeFunc: func(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
				return domainauth.Identity{Subject: "func-user", Email: "func@example.com"}, nil
			},
		}
		identity, err := provider.Exchange(context.Background(), ports.ExchangeInput{})
		require.NoError(t, err)
		assert.Equal(t, "func-user", identity.Subject)
	})
}

func TestStaticRoleMapper(t *testing.T) {
	mapper := StaticRoleMapper{AdminGroup: "florists", ClientGroup: "customers"}

	assert.Equal(t, domainauth.RoleAdmin, mapper.Map([]string{"customers", "florists"}))
	assert.Equal(t, domainauth.RoleClient, mapper.Map([]string{"customers"}))
	assert.Equal(t, domainauth.RoleAnonymous, mapper.Map([]string{"other"}))
	assert.Equal(t, domainauth.RoleAnonymous, mapper.Map(nil))
	assert.Equal(t, domainauth.RoleAnonymous, StaticRoleMapper{}.Map([]string{"florists"}))
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	sess := domainauth.Session{
		ID:        "sess-1",
		UserID:    42,
		Email:     "rose@example.com",
		Role:      domainauth.RoleClient,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}

	require.NoError(t, store.Save(ctx, sess))
	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.Equal(t, ErrNotFound, err)

	_, err = store.Get(ctx, "")
	assert.Equal(t, ErrNotFound, err)

	err = store.Save(ctx, domainauth.Session{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID cannot be empty")
}

func TestPlainHasher(t *testing.T) {
	h, err := PlainHasher{}.Hash("tulips4ever")
	require.NoError(t, err)
	require.NoError(t, PlainHasher{}.Compare(h, "tulips4ever"))
	assert.ErrorIs(t, PlainHasher{}.Compare(h, "wrong"), ErrMismatch)
	assert.ErrorIs(t, PlainHasher{}.Compare("tulips4ever", "tulips4ever"), ErrMismatch)
}

func TestMemoryTokenIssuer(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewMemoryTokenIssuer()
	issuer.Now = func() time.Time { return now }

	token, err := issuer.Issue(ports.TokenClaims{SessionID: "s1", UserID: 7, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)

	now = now.Add(2 * time.Hour)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("nope")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Issue(ports.TokenClaims{})
	assert.Error(t, err)
}

func TestMemoryThrottle(t *testing.T) {
	ctx := context.Background()
	th := NewMemoryThrottle(2)

	ok, _ := th.Allow(ctx, "a@example.com")
	assert.True(t, ok)
	require.NoError(t, th.Fail(ctx, "a@example.com"))
	require.NoError(t, th.Fail(ctx, "a@example.com"))
	ok, _ = th.Allow(ctx, "a@example.com")
	assert.False(t, ok)
	assert.Equal(t, 2, th.Failures("a@example.com"))

	require.NoError(t, th.Reset(ctx, "a@example.com"))
	ok, _ = th.Allow(ctx, "a@example.com")
	assert.True(t, ok)
}
