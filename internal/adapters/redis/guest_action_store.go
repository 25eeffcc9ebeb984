package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/petalcart/internal/domain/cart"
)

// GuestActionStoreOptions configures GuestActionStore.
type GuestActionStoreOptions struct {
	Client redis.UniversalClient
	// Prefix defaults to "guest_action:".
	Prefix string
	// TTL bounds how long an unreplayed action lingers. It is storage hygiene only;
	// replay eligibility is decided from CapturedAt. Defaults to 24h.
	TTL    time.Duration
	Logger *slog.Logger
}

// GuestActionStore keeps the single pending add-to-cart action of each anonymous visitor.
type GuestActionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewGuestActionStore constructs a GuestActionStore.
func NewGuestActionStore(opts GuestActionStoreOptions) *GuestActionStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "guest_action:"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GuestActionStore{
		client: opts.Client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With("component", "guest_action_store"),
	}
}

// Take atomically reads and removes the pending action (GETDEL), so only one caller can claim it.
// A corrupt record is logged and reported as absent; it is already gone.
func (s *GuestActionStore) Take(ctx context.Context, guestID string) (*cart.GuestAction, error) {
	if guestID == "" {
		return nil, nil
	}

	data, err := s.client.GetDel(ctx, s.prefix+guestID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis getdel: %w", err)
	}
	action, ok := s.decode(ctx, guestID, data)
	if !ok {
		return nil, nil
	}
	return action, nil
}

func (s *GuestActionStore) decode(ctx context.Context, guestID string, data []byte) (*cart.GuestAction, bool) {
	var action cart.GuestAction
	err := json.Unmarshal(data, &action)
	if err == nil {
		err = action.Validate()
	}
	if err != nil {
		s.logger.WarnContext(ctx, "discarding corrupt guest action",
			"guest_id", guestID,
			"error", err,
		)
		return nil, false
	}
	return &action, true
}

// Put replaces the pending action for guestID.
func (s *GuestActionStore) Put(ctx context.Context, guestID string, action cart.GuestAction) error {
	if guestID == "" {
		return errors.New("guest ID cannot be empty")
	}
	if err := action.Validate(); err != nil {
		return fmt.Errorf("invalid guest action: %w", err)
	}
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal guest action: %w", err)
	}
	return s.client.Set(ctx, s.prefix+guestID, data, s.ttl).Err()
}
