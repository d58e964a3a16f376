package rediscache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"guess-who-arena/internal/domain"
	rediscache "guess-who-arena/internal/infra/cache/redis"
	"guess-who-arena/internal/repository/mocks"
)

// unreachableRedis 返回一个指向不可达地址的客户端，用于验证降级路径
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCachedImageRepository_FallsBackToStoreWhenRedisDown(t *testing.T) {
	store := mocks.NewImageRepository(t)
	images := []domain.Image{{ID: 1, Category: "animals", URL: "u1", Name: "cat"}}
	store.On("FindByCategory", mock.Anything, "animals").Return(images, nil).Twice()

	repo := rediscache.NewCachedImageRepository(store, unreachableRedis(t), "test:", time.Minute)

	for i := 0; i < 2; i++ {
		got, err := repo.FindByCategory(context.Background(), "animals")
		require.NoError(t, err)
		assert.Equal(t, images, got)
	}
}

func TestCachedImageRepository_PropagatesStoreError(t *testing.T) {
	store := mocks.NewImageRepository(t)
	storeErr := errors.New("db down")
	store.On("FindByDeck", mock.Anything, uint(3)).Return(nil, storeErr).Once()

	repo := rediscache.NewCachedImageRepository(store, unreachableRedis(t), "test:", time.Minute)

	_, err := repo.FindByDeck(context.Background(), 3)
	assert.ErrorIs(t, err, storeErr)
}

func TestCachedImageRepository_PassThroughOperations(t *testing.T) {
	store := mocks.NewImageRepository(t)
	store.On("CountByLibraryOwner", mock.Anything, uint(7)).Return(int64(21), nil).Once()
	store.On("LinkRoomImages", mock.Anything, uint(1), []uint{4, 5}).Return(nil).Once()
	store.On("FindRoomImages", mock.Anything, uint(1)).Return([]domain.Image{{ID: 4}, {ID: 5}}, nil).Once()

	repo := rediscache.NewCachedImageRepository(store, unreachableRedis(t), "", 0)
	ctx := context.Background()

	count, err := repo.CountByLibraryOwner(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(21), count)
	require.NoError(t, repo.LinkRoomImages(ctx, 1, []uint{4, 5}))
	linked, err := repo.FindRoomImages(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, linked, 2)
}
