// Package cart holds hand-written test doubles for the cart ports.
package cart

import (
	"context"
	"sync"

	domaincart "github.com/target/petalcart/internal/domain/cart"
	"github.com/target/petalcart/internal/ports"
)

var _ ports.GuestActionStore = (*MemoryGuestActionStore)(nil)

// MemoryGuestActionStore keeps guest actions in a map and counts claims.
type MemoryGuestActionStore struct {
	mu      sync.Mutex
	actions map[string]domaincart.GuestAction
	claims  map[string]int

	// TakeErr and PutErr, when set, are returned by Take and Put.
	TakeErr error
	PutErr  error
}

// NewMemoryGuestActionStore creates an empty store.
func NewMemoryGuestActionStore() *MemoryGuestActionStore {
	return &MemoryGuestActionStore{
		actions: make(map[string]domaincart.GuestAction),
		claims:  make(map[string]int),
	}
}

func (m *MemoryGuestActionStore) Take(_ context.Context, guestID string) (*domaincart.GuestAction, error) {
	if m.TakeErr != nil {
		return nil, m.TakeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[guestID]
	if !ok {
		return nil, nil
	}
	delete(m.actions, guestID)
	m.claims[guestID]++
	return &a, nil
}

func (m *MemoryGuestActionStore) Put(_ context.Context, guestID string, action domaincart.GuestAction) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	if err := action.Validate(); err != nil {
		return err
	}
	m.Seed(guestID, action)
	return nil
}

// Seed stores action without validation, for simulating stale or malformed records.
func (m *MemoryGuestActionStore) Seed(guestID string, action domaincart.GuestAction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[guestID] = action
}

// Pending returns the stored action for guestID, if any.
func (m *MemoryGuestActionStore) Pending(guestID string) (domaincart.GuestAction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[guestID]
	return a, ok
}

// Claims returns how many times a stored action for guestID was taken.
func (m *MemoryGuestActionStore) Claims(guestID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claims[guestID]
}

// Len returns the number of pending actions.
func (m *MemoryGuestActionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.actions)
}
