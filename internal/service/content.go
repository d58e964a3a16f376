package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/repository"
)

// ContentResolver 根据房间的模式和选择器解析出一局游戏的图片集合。
// create、join、start 共用同一个解析器，保证双方看到相同的图片。
type ContentResolver struct {
	images repository.ImageRepository
}

// NewContentResolver 创建 ContentResolver 实例
func NewContentResolver(images repository.ImageRepository) *ContentResolver {
	if images == nil {
		panic("ImageRepository cannot be nil for ContentResolver")
	}
	return &ContentResolver{images: images}
}

// Resolve 返回选择器对应的图片，数量少于 minimum 时返回 ErrNotEnoughImages
func (r *ContentResolver) Resolve(ctx context.Context, sel domain.ContentSelector, minimum int) ([]domain.Image, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"mode":     sel.Mode,
		"category": sel.Category,
		"minimum":  minimum,
	})

	var (
		images []domain.Image
		err    error
	)
	switch sel.Mode {
	case domain.ModeCategory:
		if sel.Category == "" {
			return nil, fmt.Errorf("%w: category is required in category mode", ErrInvalidInput)
		}
		images, err = r.images.FindByCategory(ctx, sel.Category)

	case domain.ModeCustom:
		switch {
		case sel.DeckID != nil:
			logCtx = logCtx.WithField("deck_id", *sel.DeckID)
			images, err = r.images.FindByDeck(ctx, *sel.DeckID)
		case sel.LibraryOwnerID != nil:
			// 旧版自定义模式：先计数，数量足够才拉取整个图库
			logCtx = logCtx.WithField("library_owner_id", *sel.LibraryOwnerID)
			count, countErr := r.images.CountByLibraryOwner(ctx, *sel.LibraryOwnerID)
			if countErr != nil {
				logCtx.WithError(countErr).Error("Failed to count library images")
				return nil, fmt.Errorf("count library images: %w", countErr)
			}
			if count < int64(minimum) {
				return nil, fmt.Errorf("%w: library has %d images, need %d", ErrNotEnoughImages, count, minimum)
			}
			images, err = r.images.FindByLibraryOwner(ctx, *sel.LibraryOwnerID)
		default:
			return nil, fmt.Errorf("%w: custom mode needs a deck or a library owner", ErrInvalidInput)
		}

	default:
		return nil, fmt.Errorf("%w: unknown mode '%s'", ErrInvalidInput, sel.Mode)
	}

	if err != nil {
		logCtx.WithError(err).Error("Failed to resolve images")
		return nil, fmt.Errorf("resolve images: %w", err)
	}
	if len(images) < minimum {
		return nil, fmt.Errorf("%w: found %d images, need %d", ErrNotEnoughImages, len(images), minimum)
	}
	logCtx.WithField("count", len(images)).Debug("Images resolved")
	return images, nil
}

// Categories 返回可选的系统分类
func (r *ContentResolver) Categories(ctx context.Context) ([]string, error) {
	categories, err := r.images.ListCategories(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list image categories")
		return nil, ErrInternalServer
	}
	return categories, nil
}
