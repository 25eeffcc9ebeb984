package ports_test

import (
	"testing"

	mocks "github.com/target/petalcart/internal/mocks/auth"
	cartmocks "github.com/target/petalcart/internal/mocks/cart"
	"github.com/target/petalcart/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthProvider = (*mocks.MockAuthProvider)(nil)
	var _ ports.SessionStore = (*mocks.MemorySessionStore)(nil)
	var _ ports.RoleMapper = (*mocks.StaticRoleMapper)(nil)
	var _ ports.PasswordHasher = (*mocks.PlainHasher)(nil)
	var _ ports.TokenIssuer = (*mocks.MemoryTokenIssuer)(nil)
	var _ ports.LoginThrottle = (*mocks.MemoryThrottle)(nil)
	var _ ports.GuestActionStore = (*cartmocks.MemoryGuestActionStore)(nil)
}
