package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/repository"
)

// GormUserRepository 是 UserRepository 接口的 GORM 实现
type GormUserRepository struct {
	db *gorm.DB // 依赖 GORM DB 连接
}

// NewGormUserRepository 创建 GormUserRepository 实例
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	if db == nil {
		panic("database connection cannot be nil for GormUserRepository")
	}
	return &GormUserRepository{db: db}
}

// FindByID 实现根据用户 ID 查找用户
func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by id %d: %w", id, err)
	}
	return &user, nil
}

// AddScore 在事务中用 score = score + ? 原子加分，再根据等级表刷新称号
func (r *GormUserRepository) AddScore(ctx context.Context, id uint, delta int) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.User{}).Where("id = ?", id).
			UpdateColumn("score", gorm.Expr("score + ?", delta))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrUserNotFound
		}
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}

		var level domain.Level
		err := tx.Where("score <= ?", user.Score).Order("score DESC").First(&level).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // 没有配置等级，保留当前称号
		}
		if err != nil {
			return err
		}
		if level.Title != user.Title {
			user.Title = level.Title
			return tx.Model(&domain.User{}).Where("id = ?", id).UpdateColumn("title", level.Title).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("gorm: add %d score to user %d: %w", delta, id, err)
	}
	return &user, nil
}
