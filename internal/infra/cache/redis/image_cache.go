package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/repository"
)

// CachedImageRepository 在 ImageRepository 前加一层 Redis 旁路缓存。
// 命中直接返回；未命中回源数据库并回填；Redis 出错时降级为直接查库。
// 写操作和房间关联查询直接透传。
type CachedImageRepository struct {
	next      repository.ImageRepository
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

var _ repository.ImageRepository = (*CachedImageRepository)(nil)

// NewCachedImageRepository 创建缓存装饰器
func NewCachedImageRepository(next repository.ImageRepository, client *redis.Client, keyPrefix string, ttl time.Duration) *CachedImageRepository {
	if next == nil {
		panic("next ImageRepository cannot be nil for CachedImageRepository")
	}
	if client == nil {
		panic("redis client cannot be nil for CachedImageRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "gw:"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedImageRepository{next: next, client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// --- Key Generation Helpers ---
func (r *CachedImageRepository) categoryKey(category string) string {
	return fmt.Sprintf("%simages:category:%s", r.keyPrefix, category)
}

func (r *CachedImageRepository) deckKey(deckID uint) string {
	return fmt.Sprintf("%simages:deck:%d", r.keyPrefix, deckID)
}

func (r *CachedImageRepository) libraryKey(userID uint) string {
	return fmt.Sprintf("%simages:library:%d", r.keyPrefix, userID)
}

func (r *CachedImageRepository) categoriesKey() string {
	return r.keyPrefix + "images:categories"
}

func (r *CachedImageRepository) FindByCategory(ctx context.Context, category string) ([]domain.Image, error) {
	var images []domain.Image
	err := r.readThrough(ctx, r.categoryKey(category), &images, func() (interface{}, error) {
		return r.next.FindByCategory(ctx, category)
	})
	return images, err
}

func (r *CachedImageRepository) FindByDeck(ctx context.Context, deckID uint) ([]domain.Image, error) {
	var images []domain.Image
	err := r.readThrough(ctx, r.deckKey(deckID), &images, func() (interface{}, error) {
		return r.next.FindByDeck(ctx, deckID)
	})
	return images, err
}

func (r *CachedImageRepository) FindByLibraryOwner(ctx context.Context, userID uint) ([]domain.Image, error) {
	var images []domain.Image
	err := r.readThrough(ctx, r.libraryKey(userID), &images, func() (interface{}, error) {
		return r.next.FindByLibraryOwner(ctx, userID)
	})
	return images, err
}

func (r *CachedImageRepository) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.readThrough(ctx, r.categoriesKey(), &categories, func() (interface{}, error) {
		return r.next.ListCategories(ctx)
	})
	return categories, err
}

// CountByLibraryOwner 不缓存：旧版自定义模式的数量检查需要实时值
func (r *CachedImageRepository) CountByLibraryOwner(ctx context.Context, userID uint) (int64, error) {
	return r.next.CountByLibraryOwner(ctx, userID)
}

func (r *CachedImageRepository) LinkRoomImages(ctx context.Context, roomID uint, imageIDs []uint) error {
	return r.next.LinkRoomImages(ctx, roomID, imageIDs)
}

func (r *CachedImageRepository) FindRoomImages(ctx context.Context, roomID uint) ([]domain.Image, error) {
	return r.next.FindRoomImages(ctx, roomID)
}

// readThrough 实现旁路缓存读取。dest 必须是指针，load 返回的值会被序列化回填。
func (r *CachedImageRepository) readThrough(ctx context.Context, key string, dest interface{}, load func() (interface{}, error)) error {
	logCtx := logrus.WithField("cache_key", key)

	cached, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		jsonErr := json.Unmarshal(cached, dest)
		if jsonErr == nil {
			logCtx.Debug("image cache hit")
			return nil
		}
		logCtx.WithError(jsonErr).Warn("image cache: corrupt entry, reloading from store")
	case errors.Is(err, redis.Nil):
		logCtx.Debug("image cache miss")
	default:
		logCtx.WithError(err).Warn("image cache: redis unavailable, falling back to store")
	}

	value, err := load()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("rediscache: marshal value for %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("rediscache: copy value for %s: %w", key, err)
	}
	if setErr := r.client.Set(ctx, key, payload, r.ttl).Err(); setErr != nil {
		logCtx.WithError(setErr).Warn("image cache: failed to backfill")
	}
	return nil
}
