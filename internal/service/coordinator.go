package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/dto"
	"guess-who-arena/internal/presence"
	"guess-who-arena/internal/repository"
)

const maxRoomNameLength = 191

// Connection 是一个在线的客户端连接
type Connection interface {
	ID() string
	UserID() uint // 认证得到的用户 ID，未认证时为 0
	Send(event string, payload interface{}) error
	Close()
}

// Channels 是按房间名划分的广播频道
type Channels interface {
	Join(room string, conn Connection)
	Leave(room string, connID string)
	// Broadcast 发送给频道内除 exceptConnID 以外的所有连接，exceptConnID 为空时发给全部
	Broadcast(room string, event string, payload interface{}, exceptConnID string)
	IsMember(room string, connID string) bool
}

// CoordinatorConfig 是游戏规则相关的配置
type CoordinatorConfig struct {
	Reward          int // 胜者获得的分数
	CreateMinImages int // 自定义模式创建房间时的最少图片数
	StartMinImages  int // 开始游戏时的最少图片数
}

// DefaultCoordinatorConfig 返回默认规则
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{Reward: 8, CreateMinImages: 20, StartMinImages: 18}
}

type actionHandler func(ctx context.Context, conn Connection, data json.RawMessage) error

// Coordinator 驱动房间状态机：校验并按房间串行执行每个玩家动作，
// 向房间频道分发事件，并在连接断开时修复持久化状态。
type Coordinator struct {
	rooms    repository.RoomRepository
	images   repository.ImageRepository
	content  *ContentResolver
	users    *UserService
	presence *presence.Tracker
	channels Channels
	locks    *keyedMutex
	cfg      CoordinatorConfig
	actions  map[string]actionHandler
}

// NewCoordinator 创建 Coordinator 实例
func NewCoordinator(
	rooms repository.RoomRepository,
	images repository.ImageRepository,
	content *ContentResolver,
	users *UserService,
	tracker *presence.Tracker,
	channels Channels,
	cfg CoordinatorConfig,
) *Coordinator {
	if rooms == nil || images == nil || content == nil || users == nil || tracker == nil || channels == nil {
		panic("Coordinator dependencies cannot be nil")
	}
	c := &Coordinator{
		rooms:    rooms,
		images:   images,
		content:  content,
		users:    users,
		presence: tracker,
		channels: channels,
		locks:    newKeyedMutex(),
		cfg:      cfg,
	}
	c.actions = map[string]actionHandler{
		dto.ActionCreate:      c.handleCreate,
		dto.ActionJoin:        c.handleJoin,
		dto.ActionStart:       c.handleStart,
		dto.ActionChoose:      c.handleChoose,
		dto.ActionSelect:      c.handleSelect,
		dto.ActionChangeTurn:  c.handleChangeTurn,
		dto.ActionLostLifes:   c.handleLostLifes,
		dto.ActionAskRematch:  c.handleAskRematch,
		dto.ActionRematch:     c.handleRematch,
		dto.ActionJoinRematch: c.handleJoinRematch,
		dto.ActionQuit:        c.handleQuit,
	}
	return c
}

// HandleMessage 解析 {"event","data"} 外壳并分发给对应的动作处理器。
// 任何错误只以 error 事件回给调用者。
func (c *Coordinator) HandleMessage(ctx context.Context, conn Connection, raw []byte) {
	var env dto.Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		c.reportError(conn, "", fmt.Errorf("%w: malformed message", ErrInvalidInput))
		return
	}
	handler, ok := c.actions[env.Event]
	if !ok {
		c.reportError(conn, env.Event, fmt.Errorf("%w: unknown action '%s'", ErrInvalidInput, env.Event))
		return
	}
	if err := handler(ctx, conn, env.Data); err != nil {
		c.reportError(conn, env.Event, err)
	}
}

// errorCode 把服务层错误映射为线上错误码
func errorCode(err error) (code string, message string) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotInRoom):
		return dto.CodeValidation, err.Error()
	case errors.Is(err, ErrRoomExists), errors.Is(err, ErrRoomClosed),
		errors.Is(err, ErrAlreadyInRoom), errors.Is(err, ErrCharacterLocked),
		errors.Is(err, ErrGameFinished):
		return dto.CodeConflict, err.Error()
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrUserNotFound):
		return dto.CodeNotFound, err.Error()
	case errors.Is(err, ErrNotEnoughImages):
		return dto.CodeNotEnoughContent, err.Error()
	default:
		return dto.CodeActionFailed, "action failed"
	}
}

func (c *Coordinator) reportError(conn Connection, action string, err error) {
	code, message := errorCode(err)
	logCtx := logrus.WithFields(logrus.Fields{
		"conn_id": conn.ID(),
		"user_id": conn.UserID(),
		"action":  action,
		"code":    code,
	})
	if code == dto.CodeActionFailed {
		logCtx.WithError(err).Error("Action failed")
	} else {
		logCtx.WithError(err).Info("Action rejected")
	}
	c.send(conn, dto.EventError, dto.ErrorEvent{Action: action, Code: code, Message: message})
}

func (c *Coordinator) send(conn Connection, event string, payload interface{}) {
	if err := conn.Send(event, payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"conn_id": conn.ID(),
			"event":   event,
		}).WithError(err).Warn("Failed to send event to connection")
	}
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrInvalidInput)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: room name is required", ErrInvalidInput)
	}
	if len(name) > maxRoomNameLength {
		return "", fmt.Errorf("%w: room name is too long", ErrInvalidInput)
	}
	return name, nil
}

// resolveUser 确定动作代表的用户。连接已认证时，消息中的用户 ID 必须与之一致。
func (c *Coordinator) resolveUser(conn Connection, claimed uint) (uint, error) {
	authenticated := conn.UserID()
	switch {
	case authenticated != 0 && claimed != 0 && claimed != authenticated:
		return 0, fmt.Errorf("%w: userId does not match the authenticated user", ErrInvalidInput)
	case authenticated != 0:
		return authenticated, nil
	case claimed != 0:
		return claimed, nil
	default:
		return 0, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
}

// callerRole 返回连接在房间中的角色
func (c *Coordinator) callerRole(name string, conn Connection) (domain.Role, error) {
	role, ok := c.presence.RoleOf(name, conn.ID())
	if !ok {
		return "", fmt.Errorf("%w: '%s'", ErrNotInRoom, name)
	}
	return role, nil
}

// requirePlayer 校验消息中的 player 与连接的实际角色一致
func (c *Coordinator) requirePlayer(name string, conn Connection, player domain.Role) (domain.Role, error) {
	if !player.Valid() {
		return "", fmt.Errorf("%w: player must be 'host' or 'guest'", ErrInvalidInput)
	}
	role, err := c.callerRole(name, conn)
	if err != nil {
		return "", err
	}
	if role != player {
		return "", fmt.Errorf("%w: connection plays '%s', not '%s'", ErrInvalidInput, role, player)
	}
	return role, nil
}

func (c *Coordinator) findRoom(ctx context.Context, name string) (*domain.Room, error) {
	room, err := c.rooms.FindByName(ctx, name)
	if err != nil {
		mapped := mapRoomRepoError(err)
		if mapped == err {
			return nil, fmt.Errorf("find room '%s': %w", name, err)
		}
		return nil, mapped
	}
	return room, nil
}

func imageIDs(images []domain.Image) []uint {
	ids := make([]uint, 0, len(images))
	for _, img := range images {
		ids = append(ids, img.ID)
	}
	return ids
}
