package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/petalcart/internal/domain/auth"
	"github.com/target/petalcart/internal/domain/cart"
	apperrors "github.com/target/petalcart/internal/errors"
	"go.uber.org/mock/gomock"
)

type countedMetric struct {
	name string
	tags map[string]string
}

type recordingSink struct {
	mu     sync.Mutex
	counts []countedMetric
}

func (s *recordingSink) Count(name string, _ int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = append(s.counts, countedMetric{name: name, tags: tags})
}

func (s *recordingSink) Timing(string, time.Duration, map[string]string) {}

func (s *recordingSink) named(name string) []countedMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []countedMetric
	for _, c := range s.counts {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func TestReconciler_EmitsMetrics(t *testing.T) {
	f := newReconcilerFixture(t)
	sink := &recordingSink{}
	f.rec.metrics = sink
	ctx := context.Background()

	_, err := f.rec.OnAddToCartRequested(ctx, roses(), 1, domainauth.Anonymous(), testGuestID)
	require.NoError(t, err)
	assert.Len(t, sink.named("cart.guest_capture"), 1)

	p := roses()
	f.cart.EXPECT().GetCart(gomock.Any(), int64(1)).Return(cart.GuestSnapshot(), nil)
	f.products.EXPECT().FindByID(gomock.Any(), int64(7)).Return(&p, nil)
	f.cart.EXPECT().AddItem(gomock.Any(), int64(1), int64(7), 1).
		Return(cart.NewSnapshot([]cart.Line{{ItemID: 1, ProductID: 7, Quantity: 1, UnitPrice: 2999}}), nil)

	_, err = f.rec.OnPrincipalBecameAuthenticated(ctx, clientPrincipal(1), testGuestID)
	require.NoError(t, err)

	replays := sink.named("cart.replay")
	require.Len(t, replays, 1)
	assert.Equal(t, string(ReplayApplied), replays[0].tags["status"])
}

func TestReconciler_NoReplayMetricOnError(t *testing.T) {
	f := newReconcilerFixture(t)
	sink := &recordingSink{}
	f.rec.metrics = sink

	f.cart.EXPECT().GetCart(gomock.Any(), int64(1)).Return(cart.Snapshot{}, apperrors.Unavailable(assert.AnError, "down"))
	_, err := f.rec.OnPrincipalBecameAuthenticated(context.Background(), clientPrincipal(1), testGuestID)
	require.Error(t, err)
	assert.Empty(t, sink.named("cart.replay"))
}

func TestAuthService_EmitsLoginMetrics(t *testing.T) {
	f := newAuthFixture(t)
	sink := &recordingSink{}
	f.svc.deps.Metrics = sink
	ctx := context.Background()

	f.users.EXPECT().GetByEmail(ctx, "who@example.com").Return(nil, apperrors.NotFound("user not found"))
	_, err := f.svc.Login(ctx, "who@example.com", "nope")
	require.Error(t, err)

	f.users.EXPECT().GetByEmail(ctx, "rose@example.com").
		Return(storedUser(5, "rose@example.com", domainauth.RoleClient, true), nil)
	_, err = f.svc.Login(ctx, "rose@example.com", "correct-horse")
	require.NoError(t, err)

	logins := sink.named("auth.login")
	require.Len(t, logins, 2)
	assert.Equal(t, map[string]string{
		"method": "password", "result": "error", "error_class": "unauthorized",
	}, logins[0].tags)
	assert.Equal(t, map[string]string{"method": "password", "result": "success"}, logins[1].tags)
}
