package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/petalcart/internal/domain/cart"
)

func TestGuestActionStore_PutTake(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewGuestActionStore(GuestActionStoreOptions{Client: client})
	ctx := context.Background()

	got, err := store.Take(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	captured := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Put(ctx, "visitor-1", cart.GuestAction{ProductID: 7, Quantity: 2, CapturedAt: captured}))

	ttl := client.TTL(ctx, "guest_action:visitor-1").Val()
	assert.True(t, ttl > 0 && ttl <= 24*time.Hour)

	got, err = store.Take(ctx, "visitor-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.ProductID)
	assert.Equal(t, 2, got.Quantity)
	assert.True(t, captured.Equal(got.CapturedAt))

	got, err = store.Take(ctx, "visitor-1")
	require.NoError(t, err)
	assert.Nil(t, got, "an action can be claimed only once")

	got, err = store.Take(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGuestActionStore_PutOverwrites(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewGuestActionStore(GuestActionStoreOptions{Client: client})
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Put(ctx, "visitor-2", cart.GuestAction{ProductID: 1, Quantity: 1, CapturedAt: now}))
	require.NoError(t, store.Put(ctx, "visitor-2", cart.GuestAction{ProductID: 2, Quantity: 3, CapturedAt: now}))

	got, err := store.Take(ctx, "visitor-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ProductID)
	assert.Equal(t, 3, got.Quantity)
}

func TestGuestActionStore_CorruptRecords(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewGuestActionStore(GuestActionStoreOptions{Client: client})
	ctx := context.Background()

	tests := map[string]string{
		"garbage":       "%%%",
		"zero quantity": `{"product_id":3,"quantity":0,"captured_at":"2024-01-01T00:00:00Z"}`,
		"no timestamp":  `{"product_id":3,"quantity":1}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, client.Set(ctx, "guest_action:corrupt", raw, time.Minute).Err())

			got, err := store.Take(ctx, "corrupt")
			require.NoError(t, err)
			assert.Nil(t, got)
			assert.Equal(t, int64(0), client.Exists(ctx, "guest_action:corrupt").Val())
		})
	}
}

func TestGuestActionStore_RejectsInvalid(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewGuestActionStore(GuestActionStoreOptions{Client: client})

	err := store.Put(context.Background(), "", cart.GuestAction{ProductID: 1, Quantity: 1, CapturedAt: time.Now()})
	require.Error(t, err)

	err = store.Put(context.Background(), "v", cart.GuestAction{ProductID: 1, Quantity: 0, CapturedAt: time.Now()})
	require.Error(t, err)
}
