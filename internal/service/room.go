package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/repository"
)

// RoomDetails 是房间的只读视图
type RoomDetails struct {
	Room   *domain.Room
	Images []domain.Image
}

// RoomService 提供房间的只读查询，供 HTTP 接口使用。
// 房间的状态变化全部由 Coordinator 驱动。
type RoomService struct {
	roomRepo  repository.RoomRepository
	imageRepo repository.ImageRepository
}

// NewRoomService 创建 RoomService 实例。
func NewRoomService(roomRepo repository.RoomRepository, imageRepo repository.ImageRepository) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if imageRepo == nil {
		panic("ImageRepository cannot be nil for RoomService")
	}
	return &RoomService{roomRepo: roomRepo, imageRepo: imageRepo}
}

// GetRoomDetails 按名字查找房间及其关联的图片
func (s *RoomService) GetRoomDetails(ctx context.Context, name string) (*RoomDetails, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	logCtx := logrus.WithField("room", name)

	room, err := s.roomRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Failed to find room")
		return nil, ErrInternalServer
	}

	images, err := s.imageRepo.FindRoomImages(ctx, room.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load room images")
		return nil, ErrInternalServer
	}
	return &RoomDetails{Room: room, Images: images}, nil
}
