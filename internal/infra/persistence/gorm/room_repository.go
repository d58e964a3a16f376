package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/repository"
)

// GormRoomRepository 是 RoomRepository 接口的 GORM 实现
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository 创建 GormRoomRepository 实例
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// Create 插入新房间，房间名冲突时映射为 ErrDuplicateEntry
func (r *GormRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create room '%s': %w", room.Name, err)
	}
	return nil
}

// FindByName 根据房间名查找房间
func (r *GormRoomRepository) FindByName(ctx context.Context, name string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by name '%s': %w", name, err)
	}
	return &room, nil
}

// UpdateFields 使用 map 更新，保证 nil 值会被写成 NULL
func (r *GormRoomRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return fmt.Errorf("gorm: update room %d: %w", id, err)
	}
	return nil
}

// ClaimGuest 通过带状态条件的 UPDATE 实现 open -> closed 的比较并交换
func (r *GormRoomRepository) ClaimGuest(ctx context.Context, id uint, guestID uint) error {
	result := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("id = ? AND status = ?", id, domain.RoomStatusOpen).
		Updates(map[string]interface{}{
			"guest_player_id": guestID,
			"status":          domain.RoomStatusClosed,
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: claim guest slot of room %d: %w", id, result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	// 没有行被更新：区分房间不存在和房间已关闭
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("gorm: count room %d: %w", id, err)
	}
	if count == 0 {
		return repository.ErrRoomNotFound
	}
	return repository.ErrConflict
}

// Reopen 清空客人、角色和胜者字段，房间重新开放
func (r *GormRoomRepository) Reopen(ctx context.Context, id uint) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"guest_player_id":    nil,
		"host_character_id":  nil,
		"guest_character_id": nil,
		"winner_player_id":   nil,
		"status":             domain.RoomStatusOpen,
	})
}

// Delete 在一个事务中删除房间的图片关联和房间本身
func (r *GormRoomRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&domain.RoomImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Room{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("gorm: delete room %d: %w", id, err)
	}
	return nil
}

// List 返回全部房间
func (r *GormRoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("gorm: list rooms: %w", err)
	}
	return rooms, nil
}
