package gormpersistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guess-who-arena/internal/domain"
	gormpersistence "guess-who-arena/internal/infra/persistence/gorm"
	"guess-who-arena/internal/repository"
)

func TestGormRoomRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormRoomRepository(db)
	ctx := context.Background()

	room := &domain.Room{Name: "alpha", HostPlayerID: 1, Mode: domain.ModeCategory, Category: "animals", Status: domain.RoomStatusOpen}
	require.NoError(t, repo.Create(ctx, room))
	assert.NotZero(t, room.ID)

	found, err := repo.FindByName(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, room.ID, found.ID)
	assert.Equal(t, domain.RoomStatusOpen, found.Status)
	assert.Nil(t, found.GuestPlayerID)
	assert.False(t, found.Started())

	_, err = repo.FindByName(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
}

func TestGormRoomRepository_CreateDuplicateName(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormRoomRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Room{Name: "dup", HostPlayerID: 1, Status: domain.RoomStatusOpen}))
	err := repo.Create(ctx, &domain.Room{Name: "dup", HostPlayerID: 2, Status: domain.RoomStatusOpen})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
}

func TestGormRoomRepository_ClaimGuest(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormRoomRepository(db)
	ctx := context.Background()

	room := &domain.Room{Name: "cas", HostPlayerID: 1, Status: domain.RoomStatusOpen}
	require.NoError(t, repo.Create(ctx, room))

	require.NoError(t, repo.ClaimGuest(ctx, room.ID, 2))
	err := repo.ClaimGuest(ctx, room.ID, 3)
	assert.ErrorIs(t, err, repository.ErrConflict)

	found, err := repo.FindByName(ctx, "cas")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusClosed, found.Status)
	require.NotNil(t, found.GuestPlayerID)
	assert.Equal(t, uint(2), *found.GuestPlayerID)

	err = repo.ClaimGuest(ctx, 9999, 2)
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
}

func TestGormRoomRepository_UpdateFieldsAndReopen(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormRoomRepository(db)
	ctx := context.Background()

	room := &domain.Room{Name: "reopen", HostPlayerID: 1, Status: domain.RoomStatusOpen}
	require.NoError(t, repo.Create(ctx, room))
	require.NoError(t, repo.ClaimGuest(ctx, room.ID, 2))
	require.NoError(t, repo.UpdateFields(ctx, room.ID, map[string]interface{}{"host_character_id": 11, "winner_player_id": 2}))

	found, err := repo.FindByName(ctx, "reopen")
	require.NoError(t, err)
	require.NotNil(t, found.HostCharacterID)
	assert.Equal(t, uint(11), *found.HostCharacterID)
	assert.Nil(t, found.GuestCharacterID)
	assert.True(t, found.Started())

	require.NoError(t, repo.Reopen(ctx, room.ID))
	found, err = repo.FindByName(ctx, "reopen")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusOpen, found.Status)
	assert.Nil(t, found.GuestPlayerID)
	assert.Nil(t, found.HostCharacterID)
	assert.Nil(t, found.WinnerPlayerID)
	assert.Equal(t, uint(1), found.HostPlayerID)

	// 重新开放后可以再次被认领
	require.NoError(t, repo.ClaimGuest(ctx, room.ID, 5))
}

func TestGormRoomRepository_DeleteRemovesLinkage(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormRoomRepository(db)
	images := gormpersistence.NewGormImageRepository(db)
	ctx := context.Background()

	img := &domain.Image{Category: "animals", URL: "http://img/1", Name: "cat"}
	require.NoError(t, db.Create(img).Error)
	room := &domain.Room{Name: "gone", HostPlayerID: 1, Status: domain.RoomStatusOpen}
	require.NoError(t, repo.Create(ctx, room))
	require.NoError(t, images.LinkRoomImages(ctx, room.ID, []uint{img.ID}))

	require.NoError(t, repo.Delete(ctx, room.ID))

	_, err := repo.FindByName(ctx, "gone")
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
	var links int64
	require.NoError(t, db.Model(&domain.RoomImage{}).Where("room_id = ?", room.ID).Count(&links).Error)
	assert.Zero(t, links)
}

func TestGormRoomRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := gormpersistence.NewGormRoomRepository(db)
	ctx := context.Background()

	for _, name := range []string{"r1", "r2", "r3"} {
		require.NoError(t, repo.Create(ctx, &domain.Room{Name: name, HostPlayerID: 1, Status: domain.RoomStatusOpen}))
	}
	rooms, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "r1", rooms[0].Name)
}
