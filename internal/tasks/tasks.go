package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 定义任务类型常量
const (
	TypeScoreAward = "score:award" // 给胜者加分
	TypeRoomSweep  = "rooms:sweep" // 周期性清理无人在线的孤儿房间
)

// ScoreAwardPayload 定义了加分任务的数据结构
type ScoreAwardPayload struct {
	UserID uint   `json:"user_id"`
	Delta  int    `json:"delta"`
	Room   string `json:"room,omitempty"` // 仅用于日志
}

// NewScoreAwardTask 创建一个加分任务的 payload
func NewScoreAwardTask(userID uint, delta int, room string) ([]byte, error) {
	return json.Marshal(ScoreAwardPayload{UserID: userID, Delta: delta, Room: room})
}

// RoomSweepPayload 定义了孤儿房间清理任务的数据结构
type RoomSweepPayload struct {
	OlderThanSeconds int `json:"older_than_seconds"`
}

// NewRoomSweepTask 创建一个清理任务的 payload
func NewRoomSweepTask(olderThan time.Duration) ([]byte, error) {
	return json.Marshal(RoomSweepPayload{OlderThanSeconds: int(olderThan / time.Second)})
}

// ScoreEnqueuer 把加分任务投递到 asynq 队列
type ScoreEnqueuer struct {
	client   *asynq.Client
	maxRetry int
}

// NewScoreEnqueuer 创建 ScoreEnqueuer
func NewScoreEnqueuer(client *asynq.Client) *ScoreEnqueuer {
	if client == nil {
		panic("asynq client cannot be nil for ScoreEnqueuer")
	}
	return &ScoreEnqueuer{client: client, maxRetry: 5}
}

// EnqueueScoreAward 投递加分任务到 critical 队列
func (e *ScoreEnqueuer) EnqueueScoreAward(ctx context.Context, userID uint, delta int, room string) error {
	payload, err := NewScoreAwardTask(userID, delta, room)
	if err != nil {
		return fmt.Errorf("tasks: marshal score award payload: %w", err)
	}
	task := asynq.NewTask(TypeScoreAward, payload)
	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue("critical"), asynq.MaxRetry(e.maxRetry)); err != nil {
		return fmt.Errorf("tasks: enqueue score award for user %d: %w", userID, err)
	}
	return nil
}
