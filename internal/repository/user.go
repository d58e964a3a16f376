package repository

import (
	"context"

	"guess-who-arena/internal/domain"
)

// UserRepository 定义了用户数据的读取和计分操作。
type UserRepository interface {
	// FindByID 根据用户 ID 查找用户，不存在时返回 ErrUserNotFound。
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// AddScore 原子地为用户加分，并根据等级表刷新称号，返回更新后的用户。
	AddScore(ctx context.Context, id uint, delta int) (*domain.User, error)
}
