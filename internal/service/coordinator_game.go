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
	"guess-who-arena/internal/repository"
)

// selectorFor 根据请求构造内容选择器。自定义模式没有卡组时使用调用者的个人图库。
func selectorFor(mode, category string, deckID *uint, userID uint) (domain.ContentSelector, error) {
	mode = strings.TrimSpace(mode)
	category = strings.TrimSpace(category)
	if mode == "" {
		mode = domain.ModeCategory
	}
	sel := domain.ContentSelector{Mode: mode}
	switch mode {
	case domain.ModeCategory:
		if category == "" {
			return sel, fmt.Errorf("%w: category is required in category mode", ErrInvalidInput)
		}
		sel.Category = category
	case domain.ModeCustom:
		if deckID != nil {
			sel.DeckID = deckID
		} else {
			owner := userID
			sel.LibraryOwnerID = &owner
		}
	default:
		return sel, fmt.Errorf("%w: unknown mode '%s'", ErrInvalidInput, mode)
	}
	return sel, nil
}

func (c *Coordinator) minimumForCreate(mode string) int {
	if mode == domain.ModeCustom {
		return c.cfg.CreateMinImages
	}
	return 0
}

// openRoom 创建房间、写入图片关联，并把连接登记为房主。调用方持有房间锁。
func (c *Coordinator) openRoom(ctx context.Context, conn Connection, name string, hostID uint, sel domain.ContentSelector) (*domain.Room, []domain.Image, error) {
	if _, err := c.rooms.FindByName(ctx, name); err == nil {
		return nil, nil, fmt.Errorf("%w: '%s'", ErrRoomExists, name)
	} else if !errors.Is(err, repository.ErrRoomNotFound) {
		return nil, nil, fmt.Errorf("check room '%s': %w", name, err)
	}

	images, err := c.content.Resolve(ctx, sel, c.minimumForCreate(sel.Mode))
	if err != nil {
		return nil, nil, err
	}

	room := &domain.Room{
		Name:           name,
		Status:         domain.RoomStatusOpen,
		HostPlayerID:   hostID,
		Mode:           sel.Mode,
		Category:       sel.Category,
		DeckID:         sel.DeckID,
		LibraryOwnerID: sel.LibraryOwnerID,
	}
	if err := c.rooms.Create(ctx, room); err != nil {
		mapped := mapRoomRepoError(err)
		if mapped == err {
			return nil, nil, fmt.Errorf("create room '%s': %w", name, err)
		}
		return nil, nil, mapped
	}

	if err := c.images.LinkRoomImages(ctx, room.ID, imageIDs(images)); err != nil {
		// 不留下没有图片关联的房间
		if delErr := c.rooms.Delete(ctx, room.ID); delErr != nil {
			logrus.WithError(delErr).WithField("room", name).Error("Failed to roll back room after link failure")
		}
		return nil, nil, fmt.Errorf("link images to room '%s': %w", name, err)
	}

	c.presence.Register(name, domain.RoleHost, conn.ID(), hostID)
	c.channels.Join(name, conn)
	return room, images, nil
}

func (c *Coordinator) announceCreated(conn Connection, room *domain.Room, images []domain.Image) {
	ev := dto.RoomCreatedEvent{
		RoomID:   room.ID,
		Name:     room.Name,
		Mode:     room.Mode,
		Category: room.Category,
		Images:   images,
	}
	c.send(conn, dto.EventRoomCreated, ev)
	c.channels.Broadcast(room.Name, dto.EventRoomCreated, ev, conn.ID())
}

func (c *Coordinator) handleCreate(ctx context.Context, conn Connection, data json.RawMessage) error {
	var req dto.CreateRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	name, err := validName(req.Name)
	if err != nil {
		return err
	}
	userID, err := c.resolveUser(conn, req.UserID)
	if err != nil {
		return err
	}
	sel, err := selectorFor(req.Mode, req.Category, req.DeckID, userID)
	if err != nil {
		return err
	}
	if loc, ok := c.presence.Locate(conn.ID()); ok {
		return fmt.Errorf("%w: already in '%s'", ErrAlreadyInRoom, loc.Room)
	}

	unlock := c.locks.Lock(name)
	defer unlock()

	room, images, err := c.openRoom(ctx, conn, name, userID, sel)
	if err != nil {
		return err
	}
	c.announceCreated(conn, room, images)

	logrus.WithFields(logrus.Fields{
		"room":    name,
		"room_id": room.ID,
		"user_id": userID,
		"mode":    room.Mode,
		"images":  len(images),
	}).Info("Room created")
	return nil
}

// admitGuest 是标准的客人加入流程，join 和 joinRematch 共用。调用方持有房间锁。
func (c *Coordinator) admitGuest(ctx context.Context, conn Connection, name string, guestID uint) error {
	room, err := c.findRoom(ctx, name)
	if err != nil {
		return err
	}
	if room.Status == domain.RoomStatusClosed {
		return fmt.Errorf("%w: '%s'", ErrRoomClosed, name)
	}

	images, err := c.content.Resolve(ctx, room.Selector(), 0)
	if err != nil {
		return err
	}

	if err := c.rooms.ClaimGuest(ctx, room.ID, guestID); err != nil {
		mapped := mapRoomRepoError(err)
		if mapped == err {
			return fmt.Errorf("claim guest slot of '%s': %w", name, err)
		}
		return mapped
	}
	room.GuestPlayerID = &guestID
	room.Status = domain.RoomStatusClosed

	c.presence.Register(name, domain.RoleGuest, conn.ID(), guestID)
	c.channels.Join(name, conn)

	hostName := c.users.DisplayName(ctx, room.HostPlayerID)
	guestName := c.users.DisplayName(ctx, guestID)

	c.channels.Broadcast(name, dto.EventGuestJoined, dto.GuestJoinedEvent{
		RoomID:    room.ID,
		GuestID:   guestID,
		GuestName: guestName,
	}, conn.ID())
	c.send(conn, dto.EventJoined, dto.JoinedEvent{
		RoomID:    room.ID,
		Name:      name,
		HostName:  hostName,
		GuestName: guestName,
		Mode:      room.Mode,
		Category:  room.Category,
		Images:    images,
	})

	logrus.WithFields(logrus.Fields{
		"room":     name,
		"room_id":  room.ID,
		"guest_id": guestID,
	}).Info("Guest joined room")
	return nil
}

func (c *Coordinator) handleJoin(ctx context.Context, conn Connection, data json.RawMessage) error {
	var req dto.JoinRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	name, err := validName(req.Name)
	if err != nil {
		return err
	}
	userID, err := c.resolveUser(conn, req.UserID)
	if err != nil {
		return err
	}
	if loc, ok := c.presence.Locate(conn.ID()); ok {
		return fmt.Errorf("%w: already in '%s'", ErrAlreadyInRoom, loc.Room)
	}

	unlock := c.locks.Lock(name)
	defer unlock()
	return c.admitGuest(ctx, conn, name, userID)
}

func (c *Coordinator) handleStart(ctx context.Context, conn Connection, data json.RawMessage) error {
	var req dto.RoomRequest
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
	if _, err := c.callerRole(name, conn); err != nil {
		return err
	}
	images, err := c.content.Resolve(ctx, room.Selector(), c.cfg.StartMinImages)
	if err != nil {
		return err
	}
	c.channels.Broadcast(name, dto.EventGameStarted, dto.GameStartedEvent{
		Category: room.Category,
		Mode:     room.Mode,
		Images:   images,
	}, "")
	return nil
}

func characterColumn(role domain.Role) string {
	if role == domain.RoleHost {
		return "host_character_id"
	}
	return "guest_character_id"
}

func (c *Coordinator) handleChoose(ctx context.Context, conn Connection, data json.RawMessage) error {
	var req dto.CharacterRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	name, err := validName(req.Name)
	if err != nil {
		return err
	}
	if req.CharacterID == 0 {
		return fmt.Errorf("%w: characterId is required", ErrInvalidInput)
	}

	unlock := c.locks.Lock(name)
	defer unlock()

	room, err := c.findRoom(ctx, name)
	if err != nil {
		return err
	}
	role, err := c.requirePlayer(name, conn, req.Player)
	if err != nil {
		return err
	}
	// 双方都选定后不再接受修改，因此 goBoard 只会在补齐的那一次写入后出现
	if room.HostCharacterID != nil && room.GuestCharacterID != nil {
		return ErrCharacterLocked
	}

	if err := c.rooms.UpdateFields(ctx, room.ID, map[string]interface{}{characterColumn(role): req.CharacterID}); err != nil {
		return fmt.Errorf("save character for '%s': %w", name, err)
	}
	room, err = c.findRoom(ctx, name)
	if err != nil {
		return err
	}

	if room.HostCharacterID != nil && room.GuestCharacterID != nil {
		c.channels.Broadcast(name, dto.EventGoBoard, dto.GoBoardEvent{Turn: domain.RoleHost}, "")
		logrus.WithField("room", name).Info("Both characters chosen, game board opened")
		return nil
	}
	c.channels.Broadcast(name, dto.EventCharacterChosen, dto.PlayerEvent{Player: role}, "")
	return nil
}

func (c *Coordinator) handleChangeTurn(ctx context.Context, conn Connection, data json.RawMessage) error {
	var req dto.PlayerRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	name, err := validName(req.Name)
	if err != nil {
		return err
	}
	if !req.Player.Valid() {
		return fmt.Errorf("%w: player must be 'host' or 'guest'", ErrInvalidInput)
	}

	unlock := c.locks.Lock(name)
	defer unlock()

	if _, err := c.callerRole(name, conn); err != nil {
		return err
	}
	c.channels.Broadcast(name, dto.EventStartTurn, dto.PlayerEvent{Player: req.Player}, "")
	return nil
}

func wonEvent(role domain.Role) string {
	if role == domain.RoleHost {
		return dto.EventHostWon
	}
	return dto.EventGuestWon
}

func lostEvent(role domain.Role) string {
	if role == domain.RoleHost {
		return dto.EventHostLost
	}
	return dto.EventGuestLost
}

// award 记录本局胜者并给其加分。每局只能决出一次胜负，加分失败时撤销胜者记录。
func (c *Coordinator) award(ctx context.Context, room *domain.Room, winner domain.Role) (uint, error) {
	if room.Decided() {
		return 0, fmt.Errorf("%w: '%s'", ErrGameFinished, room.Name)
	}
	winnerID := room.PlayerOf(winner)
	if winnerID == 0 {
		return 0, fmt.Errorf("%w: no %s registered in '%s'", ErrInvalidInput, winner, room.Name)
	}
	if err := c.rooms.UpdateFields(ctx, room.ID, map[string]interface{}{"winner_player_id": winnerID}); err != nil {
		return 0, fmt.Errorf("record winner of '%s': %w", room.Name, err)
	}
	room.WinnerPlayerID = &winnerID

	if err := c.users.AwardScore(ctx, winnerID, c.cfg.Reward, room.Name); err != nil {
		if clearErr := c.rooms.UpdateFields(ctx, room.ID, map[string]interface{}{"winner_player_id": nil}); clearErr != nil {
			logrus.WithError(clearErr).WithField("room", room.Name).Error("Failed to clear winner after award failure")
		}
		room.WinnerPlayerID = nil
		return 0, fmt.Errorf("award score: %w", err)
	}
	return winnerID, nil
}

func (c *Coordinator) handleSelect(ctx context.Context, conn Connection, data json.RawMessage) error {
	var req dto.CharacterRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	name, err := validName(req.Name)
	if err != nil {
		return err
	}
	if req.CharacterID == 0 {
		return fmt.Errorf("%w: characterId is required", ErrInvalidInput)
	}

	unlock := c.locks.Lock(name)
	defer unlock()

	room, err := c.findRoom(ctx, name)
	if err != nil {
		return err
	}
	role, err := c.requirePlayer(name, conn, req.Player)
	if err != nil {
		return err
	}
	if room.Decided() {
		return fmt.Errorf("%w: '%s'", ErrGameFinished, name)
	}
	target := room.CharacterOf(role.Opponent())
	if target == nil {
		return fmt.Errorf("%w: %s has not chosen a character yet", ErrInvalidInput, role.Opponent())
	}

	result := dto.SelectResultEvent{
		Player:           role,
		Right:            *target == req.CharacterID,
		CharacterID:      req.CharacterID,
		HostCharacterID:  room.HostCharacterID,
		GuestCharacterID: room.GuestCharacterID,
	}
	logCtx := logrus.WithFields(logrus.Fields{"room": name, "player": role, "right": result.Right})

	if result.Right {
		winnerID, err := c.award(ctx, room, role.Opponent())
		if err != nil {
			return err
		}
		result.WinnerID = winnerID
		c.channels.Broadcast(name, wonEvent(role), dto.OutcomeEvent{
			Player:   role,
			WinnerID: winnerID,
			Reward:   c.cfg.Reward,
		}, "")
		logCtx = logCtx.WithField("winner_id", winnerID)
	} else {
		c.channels.Broadcast(name, lostEvent(role), dto.OutcomeEvent{Player: role}, "")
	}
	c.channels.Broadcast(name, dto.EventSelectResult, result, "")
	logCtx.Info("Character selected")
	return nil
}

func (c *Coordinator) handleLostLifes(ctx context.Context, conn Connection, data json.RawMessage) error {
	var req dto.PlayerRequest
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
	role, err := c.requirePlayer(name, conn, req.Player)
	if err != nil {
		return err
	}
	winner := role.Opponent()
	winnerID, err := c.award(ctx, room, winner)
	if err != nil {
		return err
	}
	c.channels.Broadcast(name, dto.EventPlayerLostAllLifes, dto.PlayerLostAllLifesEvent{
		Player:   role,
		Winner:   winner,
		WinnerID: winnerID,
	}, "")
	logrus.WithFields(logrus.Fields{"room": name, "loser": role, "winner_id": winnerID}).Info("Player lost all lifes")
	return nil
}

func (c *Coordinator) handleAskRematch(ctx context.Context, conn Connection, data json.RawMessage) error {
	var req dto.PlayerRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	name, err := validName(req.Name)
	if err != nil {
		return err
	}

	unlock := c.locks.Lock(name)
	defer unlock()

	role, err := c.requirePlayer(name, conn, req.Player)
	if err != nil {
		return err
	}
	ready, ok := c.presence.RequestRematch(name, role)
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrNotInRoom, name)
	}
	if ready {
		c.channels.Broadcast(name, dto.EventRematchCanStart, dto.RematchCanStartEvent{Name: name}, "")
		logrus.WithField("room", name).Info("Both players asked for a rematch")
		return nil
	}
	c.channels.Broadcast(name, dto.EventAskPlayAgain, dto.PlayerEvent{Player: role}, "")
	return nil
}
