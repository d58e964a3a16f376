package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"guess-who-arena/internal/domain"
)

// GormImageRepository 是 ImageRepository 接口的 GORM 实现
type GormImageRepository struct {
	db *gorm.DB
}

// NewGormImageRepository 创建 GormImageRepository 实例
func NewGormImageRepository(db *gorm.DB) *GormImageRepository {
	if db == nil {
		panic("database connection cannot be nil for GormImageRepository")
	}
	return &GormImageRepository{db: db}
}

func (r *GormImageRepository) FindByCategory(ctx context.Context, category string) ([]domain.Image, error) {
	var images []domain.Image
	err := r.db.WithContext(ctx).Where("category = ?", category).Order("id ASC").Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find images by category '%s': %w", category, err)
	}
	return images, nil
}

func (r *GormImageRepository) FindByDeck(ctx context.Context, deckID uint) ([]domain.Image, error) {
	var images []domain.Image
	err := r.db.WithContext(ctx).Where("deck_id = ?", deckID).Order("id ASC").Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find images by deck %d: %w", deckID, err)
	}
	return images, nil
}

func (r *GormImageRepository) FindByLibraryOwner(ctx context.Context, userID uint) ([]domain.Image, error) {
	var images []domain.Image
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find images by library owner %d: %w", userID, err)
	}
	return images, nil
}

func (r *GormImageRepository) CountByLibraryOwner(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Image{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count images of library owner %d: %w", userID, err)
	}
	return count, nil
}

// ListCategories 返回系统图片的分类 (玩家上传的图片没有分类)
func (r *GormImageRepository) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&domain.Image{}).
		Where("category <> ''").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list image categories: %w", err)
	}
	return categories, nil
}

// LinkRoomImages 批量插入房间与图片的关联
func (r *GormImageRepository) LinkRoomImages(ctx context.Context, roomID uint, imageIDs []uint) error {
	if len(imageIDs) == 0 {
		return nil
	}
	links := make([]domain.RoomImage, 0, len(imageIDs))
	for _, imageID := range imageIDs {
		links = append(links, domain.RoomImage{RoomID: roomID, ImageID: imageID})
	}
	if err := r.db.WithContext(ctx).Create(&links).Error; err != nil {
		return fmt.Errorf("gorm: link %d images to room %d: %w", len(imageIDs), roomID, err)
	}
	return nil
}

func (r *GormImageRepository) FindRoomImages(ctx context.Context, roomID uint) ([]domain.Image, error) {
	var images []domain.Image
	err := r.db.WithContext(ctx).Model(&domain.Image{}).
		Select("images.*").
		Joins("JOIN room_images ON room_images.image_id = images.id").
		Where("room_images.room_id = ?", roomID).
		Order("room_images.id ASC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find images of room %d: %w", roomID, err)
	}
	return images, nil
}
