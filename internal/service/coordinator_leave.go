package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/dto"
)

type leaveReason int

const (
	leaveQuit leaveReason = iota
	leaveDisconnect
)

func (r leaveReason) String() string {
	if r == leaveQuit {
		return "quit"
	}
	return "disconnect"
}

// reconcileLeave 是主动退出和断线共用的清理逻辑。调用方持有房间锁。
// 游戏未开始：房间重新开放并通知对方；已开始：删除房间及图片关联并通知对方。
func (c *Coordinator) reconcileLeave(ctx context.Context, room *domain.Room, role domain.Role, connID string, reason leaveReason) error {
	logCtx := logrus.WithFields(logrus.Fields{
		"room":    room.Name,
		"room_id": room.ID,
		"role":    role,
		"conn_id": connID,
		"reason":  reason.String(),
	})

	c.presence.Release(room.Name, role, connID)
	c.channels.Leave(room.Name, connID)

	peerConnID := ""
	if entry, ok := c.presence.Get(room.Name); ok {
		if s := entry.Slot(role.Opponent()); s != nil {
			peerConnID = s.ConnID
		}
	}

	if !room.Started() {
		if err := c.rooms.Reopen(ctx, room.ID); err != nil {
			return fmt.Errorf("reopen room '%s': %w", room.Name, err)
		}
		logCtx.Info("Player left before start, room reopened")
		if peerConnID == "" {
			return nil
		}
		if role == domain.RoleGuest {
			c.channels.Broadcast(room.Name, dto.EventGuestLeftBeforeStart, dto.RoomLeftEvent{Name: room.Name, Player: role}, "")
			return nil
		}
		// 房主离开：重新开放会清空客人字段，留下的客人也随之释放
		c.channels.Broadcast(room.Name, dto.EventHostLeftBeforeStart, dto.RoomLeftEvent{Name: room.Name, Player: role}, "")
		c.release(room.Name, domain.RoleGuest, peerConnID)
		return nil
	}

	if err := c.rooms.Delete(ctx, room.ID); err != nil {
		return fmt.Errorf("delete room '%s': %w", room.Name, err)
	}
	logCtx.Info("Player left during game, room deleted")
	if peerConnID == "" {
		return nil
	}
	event := dto.EventQuit
	if reason == leaveDisconnect {
		event = dto.EventOpponentDisconnected
	}
	c.channels.Broadcast(room.Name, event, dto.RoomLeftEvent{Name: room.Name, Player: role}, "")
	c.release(room.Name, role.Opponent(), peerConnID)
	return nil
}

func (c *Coordinator) release(room string, role domain.Role, connID string) {
	c.presence.Release(room, role, connID)
	c.channels.Leave(room, connID)
}

func (c *Coordinator) handleQuit(ctx context.Context, conn Connection, data json.RawMessage) error {
	var req dto.QuitRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	name, err := validName(req.Name)
	if err != nil {
		return err
	}

	unlock := c.locks.Lock(name)
	defer unlock()

	room, err := c.findRoom(ctx, name)
	if err != nil {
		return err
	}
	if req.ID != 0 && req.ID != room.ID {
		return fmt.Errorf("%w: '%s' has id %d, not %d", ErrRoomNotFound, name, room.ID, req.ID)
	}

	role, err := c.callerRole(name, conn)
	if err != nil {
		// 连接不在在线表中时按用户 ID 判断角色
		userID, userErr := c.resolveUser(conn, req.UserID)
		if userErr != nil {
			return userErr
		}
		switch userID {
		case room.HostPlayerID:
			role = domain.RoleHost
		case room.PlayerOf(domain.RoleGuest):
			role = domain.RoleGuest
		default:
			return err
		}
		// 该角色仍由另一个在线连接占据时，不能代替它退出
		if entry, ok := c.presence.Get(name); ok {
			if s := entry.Slot(role); s != nil && s.ConnID != conn.ID() {
				return fmt.Errorf("%w: '%s' %s is held by another connection", ErrNotInRoom, name, role)
			}
		}
	}

	if err := c.reconcileLeave(ctx, room, role, conn.ID(), leaveQuit); err != nil {
		return err
	}
	c.send(conn, dto.EventQuitAck, dto.RoomLeftEvent{Name: name, Player: role})
	conn.Close()
	return nil
}

// HandleDisconnect 在连接的读循环结束后调用，每个连接恰好一次。
// 优先用在线索引定位房间，索引中没有时扫描所有房间的频道成员。
func (c *Coordinator) HandleDisconnect(ctx context.Context, conn Connection) {
	if loc, ok := c.presence.Locate(conn.ID()); ok {
		c.leaveOnDisconnect(ctx, conn, loc.Room)
		return
	}

	rooms, err := c.rooms.List(ctx)
	if err != nil {
		logrus.WithError(err).WithField("conn_id", conn.ID()).Error("Failed to list rooms for disconnect scan")
		return
	}
	for _, room := range rooms {
		if c.channels.IsMember(room.Name, conn.ID()) {
			c.leaveOnDisconnect(ctx, conn, room.Name)
		}
	}
}

func (c *Coordinator) leaveOnDisconnect(ctx context.Context, conn Connection, name string) {
	unlock := c.locks.Lock(name)
	defer unlock()

	logCtx := logrus.WithFields(logrus.Fields{"room": name, "conn_id": conn.ID(), "user_id": conn.UserID()})

	room, err := c.findRoom(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) {
			logCtx.WithError(err).Error("Failed to load room on disconnect")
		}
		if role, ok := c.presence.RoleOf(name, conn.ID()); ok {
			c.presence.Release(name, role, conn.ID())
		}
		c.channels.Leave(name, conn.ID())
		return
	}

	role, ok := c.presence.RoleOf(name, conn.ID())
	if !ok {
		role, ok = c.roleByUser(room, conn)
		if !ok {
			c.channels.Leave(name, conn.ID())
			return
		}
	}

	if err := c.reconcileLeave(ctx, room, role, conn.ID(), leaveDisconnect); err != nil {
		logCtx.WithError(err).Error("Failed to reconcile disconnect")
	}
}

// roleByUser 只在扫描兜底时使用：连接仍在频道中但没有在线记录。
// 若该角色的位置由同一用户的其他连接占据，不做处理。
func (c *Coordinator) roleByUser(room *domain.Room, conn Connection) (domain.Role, bool) {
	userID := conn.UserID()
	if userID == 0 {
		return "", false
	}
	var role domain.Role
	switch userID {
	case room.HostPlayerID:
		role = domain.RoleHost
	case room.PlayerOf(domain.RoleGuest):
		role = domain.RoleGuest
	default:
		return "", false
	}
	if entry, ok := c.presence.Get(room.Name); ok {
		if s := entry.Slot(role); s != nil && s.ConnID != conn.ID() {
			return "", false
		}
	}
	return role, true
}

// SweepOrphans 删除没有任何在线连接、且超过 olderThan 未更新的房间。
// 进程重启后内存中的在线表为空，这些房间无法再通过断线清理。
func (c *Coordinator) SweepOrphans(ctx context.Context, olderThan time.Duration) (int, error) {
	rooms, err := c.rooms.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rooms: %w", err)
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, room := range rooms {
		if room.UpdatedAt.After(cutoff) {
			continue
		}
		unlock := c.locks.Lock(room.Name)
		if _, live := c.presence.Get(room.Name); !live {
			if err := c.rooms.Delete(ctx, room.ID); err != nil {
				logrus.WithError(err).WithField("room", room.Name).Error("Failed to delete orphan room")
			} else {
				removed++
			}
		}
		unlock()
	}
	if removed > 0 {
		logrus.WithField("removed", removed).Info("Orphan rooms swept")
	}
	return removed, nil
}
