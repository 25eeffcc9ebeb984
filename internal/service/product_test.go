package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/petalcart/internal/domain/cart"
	apperrors "github.com/target/petalcart/internal/errors"
	"github.com/target/petalcart/internal/mocks"
	"go.uber.org/mock/gomock"
)

func TestProductService_FindByID_ReadThroughCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc := NewProductService(ProductServiceOptions{
		Repo:  repo,
		Cache: ProductCacheOptions{Repo: cache, TTL: time.Minute},
	})
	ctx := context.Background()
	p := &cart.Product{ID: 7, Name: "Red Roses", Price: 2999, StockQuantity: 10, Active: true}

	cache.EXPECT().Get(ctx, "product:7").Return(nil, nil)
	repo.EXPECT().GetByID(ctx, int64(7)).Return(p, nil)
	cache.EXPECT().Set(ctx, "product:7", gomock.Any(), time.Minute).Return(nil)

	got, err := svc.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	cache.EXPECT().Get(ctx, "product:7").Return(b, nil)

	got, err = svc.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Red Roses", got.Name)
	assert.Equal(t, cart.Money(2999), got.Price)
}

func TestProductService_FindByID_CacheFaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc := NewProductService(ProductServiceOptions{Repo: repo, Cache: ProductCacheOptions{Repo: cache}})
	ctx := context.Background()
	p := &cart.Product{ID: 8, Name: "Tulips"}

	cache.EXPECT().Get(ctx, "product:8").Return([]byte("{broken"), nil)
	cache.EXPECT().Delete(ctx, "product:8").Return(true, nil)
	repo.EXPECT().GetByID(ctx, int64(8)).Return(p, nil)
	cache.EXPECT().Set(ctx, "product:8", gomock.Any(), DefaultProductCacheTTL).Return(errors.New("redis down"))

	got, err := svc.FindByID(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestProductService_FindByID_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProductRepository(ctrl)
	svc := NewProductService(ProductServiceOptions{Repo: repo})

	repo.EXPECT().GetByID(gomock.Any(), int64(404)).Return(nil, apperrors.NotFound("product no longer available"))

	_, err := svc.FindByID(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "product no longer available", apperrors.Message(err))
}

func TestProductService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProductRepository(ctrl)
	svc := NewProductService(ProductServiceOptions{Repo: repo})
	opts := cart.ProductListOptions{Category: "bouquets", Limit: 10}

	repo.EXPECT().List(gomock.Any(), opts).Return([]*cart.Product{{ID: 1}, {ID: 2}}, nil)

	got, err := svc.List(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestProductService_SaveInvalidatesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc := NewProductService(ProductServiceOptions{Repo: repo, Cache: ProductCacheOptions{Repo: cache}})
	ctx := context.Background()
	in := &cart.Product{Name: "Sunflowers", Price: 1800, StockQuantity: 12, Active: true}
	out := &cart.Product{ID: 11, Name: "Sunflowers", Price: 1800, StockQuantity: 12, Active: true}

	repo.EXPECT().Upsert(ctx, in).Return(out, nil)
	cache.EXPECT().Delete(ctx, "product:11").Return(false, errors.New("redis down"))

	got, err := svc.Save(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)

	repo.EXPECT().Upsert(ctx, in).Return(nil, apperrors.ValidationField("name", "name is required"))
	_, err = svc.Save(ctx, in)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
