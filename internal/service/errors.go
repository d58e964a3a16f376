package service

import (
	"errors"

	"guess-who-arena/internal/repository"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomExists      = errors.New("room name already taken")
	ErrRoomClosed      = errors.New("room already has a guest")
	ErrNotEnoughImages = errors.New("not enough images")
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyInRoom   = errors.New("connection already holds a room")
	ErrNotInRoom       = errors.New("connection is not a member of this room")
	ErrCharacterLocked = errors.New("both characters already chosen")
	ErrGameFinished    = errors.New("game already decided")
	ErrInternalServer  = errors.New("internal server error")
)

// mapRoomRepoError 把房间仓库的哨兵错误映射为服务层错误，其余错误原样返回由调用方记录
func mapRoomRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRoomNotFound):
		return ErrRoomNotFound
	case errors.Is(err, repository.ErrDuplicateEntry):
		return ErrRoomExists
	case errors.Is(err, repository.ErrConflict):
		return ErrRoomClosed
	default:
		return err
	}
}
