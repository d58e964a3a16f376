package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/dto"
)

// handleRematch 在旧房间结束后按 create 的流程开新房间，邀请旧房间里的对手，
// 并把调用者的在线位置和频道从旧房间移到新房间。
func (c *Coordinator) handleRematch(ctx context.Context, conn Connection, data json.RawMessage) error {
	var req dto.RematchRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	newName, err := validName(req.NewRoomName)
	if err != nil {
		return err
	}
	oldName, err := validName(req.OldRoomName)
	if err != nil {
		return err
	}
	if newName == oldName {
		return fmt.Errorf("%w: new room name must differ from the old one", ErrInvalidInput)
	}
	hostID, err := c.resolveUser(conn, req.HostID)
	if err != nil {
		return err
	}
	sel, err := selectorFor(req.Mode, req.Category, req.DeckID, hostID)
	if err != nil {
		return err
	}

	unlock := c.locks.LockMany(newName, oldName)
	defer unlock()

	oldRole, err := c.callerRole(oldName, conn)
	if err != nil {
		return err
	}

	room, images, err := c.openRoom(ctx, conn, newName, hostID, sel)
	if err != nil {
		return err
	}

	c.channels.Broadcast(oldName, dto.EventRematchInvitation, dto.RematchInvitationEvent{
		NewRoomName: newName,
		HostID:      hostID,
		Mode:        room.Mode,
		Category:    room.Category,
		DeckID:      room.DeckID,
	}, conn.ID())
	c.moveOut(ctx, oldName, oldRole, conn.ID())
	c.announceCreated(conn, room, images)

	logrus.WithFields(logrus.Fields{
		"room":     newName,
		"old_room": oldName,
		"host_id":  hostID,
	}).Info("Rematch room created")
	return nil
}

// handleJoinRematch 对新房间执行标准的客人加入流程，然后让调用者离开旧房间
func (c *Coordinator) handleJoinRematch(ctx context.Context, conn Connection, data json.RawMessage) error {
	var req dto.JoinRematchRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	newName, err := validName(req.NewRoomName)
	if err != nil {
		return err
	}
	guestID, err := c.resolveUser(conn, req.GuestID)
	if err != nil {
		return err
	}

	oldName := ""
	if loc, ok := c.presence.Locate(conn.ID()); ok {
		if loc.Room == newName {
			return fmt.Errorf("%w: already in '%s'", ErrAlreadyInRoom, newName)
		}
		oldName = loc.Room
	}

	unlock := c.locks.LockMany(newName, oldName)
	defer unlock()

	// 加锁后重新确认：对手可能已经让旧房间解散
	var oldRole domain.Role
	if oldName != "" {
		role, ok := c.presence.RoleOf(oldName, conn.ID())
		if !ok {
			oldName = ""
		}
		oldRole = role
	}

	if err := c.admitGuest(ctx, conn, newName, guestID); err != nil {
		return err
	}
	if oldName != "" {
		c.moveOut(ctx, oldName, oldRole, conn.ID())
	}
	return nil
}

// moveOut 让连接离开旧房间，旧房间没有任何在线角色时被删除。调用方持有旧房间锁。
func (c *Coordinator) moveOut(ctx context.Context, name string, role domain.Role, connID string) {
	c.release(name, role, connID)
	c.retireIfEmpty(ctx, name)
}

func (c *Coordinator) retireIfEmpty(ctx context.Context, name string) {
	if _, live := c.presence.Get(name); live {
		return
	}
	logCtx := logrus.WithField("room", name)
	room, err := c.findRoom(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) {
			logCtx.WithError(err).Error("Failed to load room for retirement")
		}
		return
	}
	if err := c.rooms.Delete(ctx, room.ID); err != nil {
		logCtx.WithError(err).Error("Failed to retire room")
		return
	}
	logCtx.Info("Old room retired after rematch")
}
