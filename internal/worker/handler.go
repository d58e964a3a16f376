package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/service"
	"guess-who-arena/internal/tasks"
)

// ScoreApplier 把分数写入存储
type ScoreApplier interface {
	ApplyScore(ctx context.Context, userID uint, delta int) (*domain.User, error)
}

// OrphanSweeper 清理无人在线的房间
type OrphanSweeper interface {
	SweepOrphans(ctx context.Context, olderThan time.Duration) (int, error)
}

func taskLogger(ctx context.Context, t *asynq.Task) *logrus.Entry {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	retry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	return logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     retry,
		"max_retry": maxRetry,
	})
}

// ScoreAwardHandler 处理加分任务
type ScoreAwardHandler struct {
	scores ScoreApplier
}

// NewScoreAwardHandler 创建 Handler 实例
func NewScoreAwardHandler(scores ScoreApplier) *ScoreAwardHandler {
	if scores == nil {
		panic("ScoreApplier cannot be nil for ScoreAwardHandler")
	}
	return &ScoreAwardHandler{scores: scores}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *ScoreAwardHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := taskLogger(ctx, t)

	var payload tasks.ScoreAwardPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithFields(logrus.Fields{"user_id": payload.UserID, "delta": payload.Delta, "room": payload.Room})

	user, err := h.scores.ApplyScore(ctx, payload.UserID, payload.Delta)
	if err != nil {
		// 用户不存在时重试没有意义
		if errors.Is(err, service.ErrUserNotFound) {
			logCtx.WithError(err).Warn("Winner no longer exists, dropping score award")
			return fmt.Errorf("user %d: %v: %w", payload.UserID, err, asynq.SkipRetry)
		}
		logCtx.WithError(err).Error("Failed to apply score award")
		return fmt.Errorf("apply score to user %d: %w", payload.UserID, err)
	}

	logCtx.WithFields(logrus.Fields{"score": user.Score, "title": user.Title}).Info("Score award task processed successfully")
	return nil
}

// RoomSweepHandler 处理周期性的孤儿房间清理任务
type RoomSweepHandler struct {
	sweeper          OrphanSweeper
	defaultOlderThan time.Duration
}

// NewRoomSweepHandler 创建 Handler 实例，payload 未指定阈值时使用 defaultOlderThan
func NewRoomSweepHandler(sweeper OrphanSweeper, defaultOlderThan time.Duration) *RoomSweepHandler {
	if sweeper == nil {
		panic("OrphanSweeper cannot be nil for RoomSweepHandler")
	}
	return &RoomSweepHandler{sweeper: sweeper, defaultOlderThan: defaultOlderThan}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *RoomSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := taskLogger(ctx, t)

	olderThan := h.defaultOlderThan
	if len(t.Payload()) > 0 {
		var payload tasks.RoomSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logCtx.WithError(err).Error("Failed to unmarshal task payload")
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
		if payload.OlderThanSeconds > 0 {
			olderThan = time.Duration(payload.OlderThanSeconds) * time.Second
		}
	}
	if olderThan <= 0 {
		return fmt.Errorf("room sweep needs a positive age threshold: %w", asynq.SkipRetry)
	}

	removed, err := h.sweeper.SweepOrphans(ctx, olderThan)
	if err != nil {
		logCtx.WithError(err).Error("Room sweep failed")
		return fmt.Errorf("sweep orphan rooms: %w", err)
	}
	logCtx.WithFields(logrus.Fields{"removed": removed, "older_than": olderThan.String()}).Debug("Room sweep task processed")
	return nil
}
