// Package mocks provides gomock implementations of the petalcart repository and collaborator ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	carts := mocks.NewMockCartRepository(ctrl)
//	carts.EXPECT().ListLines(gomock.Any(), int64(7)).Return(lines, nil)
package mocks

// Repositories from internal/core.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_repository_mock.go github.com/target/petalcart/internal/core UserRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=product_repository_mock.go github.com/target/petalcart/internal/core ProductRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cart_repository_mock.go github.com/target/petalcart/internal/core CartRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/petalcart/internal/core CacheRepository

// Collaborator ports consumed by the cart reconciler.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cart_collaborator_mock.go github.com/target/petalcart/internal/ports CartCollaborator
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=product_lookup_mock.go github.com/target/petalcart/internal/ports ProductLookup
