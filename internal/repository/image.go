package repository

import (
	"context"

	"guess-who-arena/internal/domain"
)

// ImageRepository 定义了游戏图片的查询操作 (内容解析器)。
type ImageRepository interface {
	// FindByCategory 返回某个系统分类下的全部图片。
	FindByCategory(ctx context.Context, category string) ([]domain.Image, error)

	// FindByDeck 返回卡组中的全部图片。
	FindByDeck(ctx context.Context, deckID uint) ([]domain.Image, error)

	// FindByLibraryOwner 返回玩家个人图库中的全部图片 (旧版自定义模式)。
	FindByLibraryOwner(ctx context.Context, userID uint) ([]domain.Image, error)

	// CountByLibraryOwner 统计玩家个人图库中的图片数量。
	CountByLibraryOwner(ctx context.Context, userID uint) (int64, error)

	// ListCategories 返回所有不重复的系统分类名。
	ListCategories(ctx context.Context) ([]string, error)

	// LinkRoomImages 记录房间使用的图片。
	LinkRoomImages(ctx context.Context, roomID uint, imageIDs []uint) error

	// FindRoomImages 按关联顺序返回房间使用的图片。
	FindRoomImages(ctx context.Context, roomID uint) ([]domain.Image, error)
}
