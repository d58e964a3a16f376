package repository

import (
	"context"

	"guess-who-arena/internal/domain"
)

// RoomRepository 定义了房间数据的存储和检索操作。
type RoomRepository interface {
	// Create 保存一个新房间。房间名已存在时返回 ErrDuplicateEntry。
	Create(ctx context.Context, room *domain.Room) error

	// FindByName 根据房间名查找房间，不存在时返回 ErrRoomNotFound。
	FindByName(ctx context.Context, name string) (*domain.Room, error)

	// UpdateFields 按列名更新房间的部分字段，值为 nil 时写入 NULL。
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error

	// ClaimGuest 原子地把 open 房间设为 closed 并写入客人 ID。
	// 房间已关闭时返回 ErrConflict，房间不存在时返回 ErrRoomNotFound。
	ClaimGuest(ctx context.Context, id uint, guestID uint) error

	// Reopen 清空客人、角色与胜者字段并把状态重置为 open。
	Reopen(ctx context.Context, id uint) error

	// Delete 删除房间及其图片关联。
	Delete(ctx context.Context, id uint) error

	// List 返回所有房间，仅供断线时的全量扫描使用。
	List(ctx context.Context) ([]domain.Room, error)
}
