package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/repository"
)

// ScoreEnqueuer 把加分请求交给后台任务执行
type ScoreEnqueuer interface {
	EnqueueScoreAward(ctx context.Context, userID uint, delta int, room string) error
}

// UserService 是身份解析器：读取显示名并修改分数
type UserService struct {
	users    repository.UserRepository
	enqueuer ScoreEnqueuer // 可以为 nil，此时同步写库
}

// NewUserService 创建 UserService 实例
func NewUserService(users repository.UserRepository, enqueuer ScoreEnqueuer) *UserService {
	if users == nil {
		panic("UserRepository cannot be nil for UserService")
	}
	return &UserService{users: users, enqueuer: enqueuer}
}

// DisplayName 返回用户名，查不到时回退为 "User-<id>"
func (s *UserService) DisplayName(ctx context.Context, userID uint) string {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user == nil || user.Username == "" {
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			logrus.WithError(err).WithField("user_id", userID).Warn("Failed to resolve display name")
		}
		return fmt.Sprintf("User-%d", userID)
	}
	return user.Username
}

// GetProfile 返回用户的公开资料
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to load user profile")
		return nil, ErrInternalServer
	}
	return user, nil
}

// AwardScore 给胜者加分。优先投递后台任务，投递失败时同步写库。
func (s *UserService) AwardScore(ctx context.Context, userID uint, delta int, room string) error {
	if userID == 0 {
		return fmt.Errorf("%w: no winner to award", ErrInvalidInput)
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "delta": delta, "room": room})

	if s.enqueuer != nil {
		err := s.enqueuer.EnqueueScoreAward(ctx, userID, delta, room)
		if err == nil {
			logCtx.Debug("Score award enqueued")
			return nil
		}
		logCtx.WithError(err).Warn("Failed to enqueue score award, applying synchronously")
	}

	_, err := s.ApplyScore(ctx, userID, delta)
	return err
}

// ApplyScore 直接在库中加分并刷新称号，后台任务也调用此方法
func (s *UserService) ApplyScore(ctx context.Context, userID uint, delta int) (*domain.User, error) {
	user, err := s.users.AddScore(ctx, userID, delta)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to add score")
		return nil, fmt.Errorf("add score to user %d: %w", userID, err)
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"delta":   delta,
		"score":   user.Score,
		"title":   user.Title,
	}).Info("Score awarded")
	return user, nil
}
