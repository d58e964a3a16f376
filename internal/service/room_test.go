package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/repository"
	"guess-who-arena/internal/repository/mocks"
	"guess-who-arena/internal/service"
)

func TestRoomService_GetRoomDetails(t *testing.T) {
	roomRepo := mocks.NewRoomRepository(t)
	imageRepo := mocks.NewImageRepository(t)
	svc := service.NewRoomService(roomRepo, imageRepo)
	ctx := context.Background()

	room := &domain.Room{ID: 4, Name: "R1", Status: domain.RoomStatusOpen, HostPlayerID: 42}
	roomRepo.On("FindByName", ctx, "R1").Return(room, nil).Once()
	imageRepo.On("FindRoomImages", ctx, uint(4)).Return(images(20), nil).Once()

	details, err := svc.GetRoomDetails(ctx, " R1 ")
	require.NoError(t, err)
	assert.Equal(t, room, details.Room)
	assert.Len(t, details.Images, 20)
}

func TestRoomService_GetRoomDetails_Errors(t *testing.T) {
	roomRepo := mocks.NewRoomRepository(t)
	imageRepo := mocks.NewImageRepository(t)
	svc := service.NewRoomService(roomRepo, imageRepo)
	ctx := context.Background()

	_, err := svc.GetRoomDetails(ctx, "  ")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	roomRepo.On("FindByName", ctx, "gone").Return(nil, repository.ErrRoomNotFound).Once()
	_, err = svc.GetRoomDetails(ctx, "gone")
	assert.ErrorIs(t, err, service.ErrRoomNotFound)

	roomRepo.On("FindByName", ctx, "broken").Return(nil, errors.New("db down")).Once()
	_, err = svc.GetRoomDetails(ctx, "broken")
	assert.ErrorIs(t, err, service.ErrInternalServer)
}

func TestNewRoomService_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { service.NewRoomService(nil, mocks.NewImageRepository(t)) })
	assert.Panics(t, func() { service.NewCoordinator(nil, nil, nil, nil, nil, nil, service.DefaultCoordinatorConfig()) })
}
