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

type fakeEnqueuer struct {
	err   error
	calls []uint
}

func (f *fakeEnqueuer) EnqueueScoreAward(ctx context.Context, userID uint, delta int, room string) error {
	f.calls = append(f.calls, userID)
	return f.err
}

func TestUserService_DisplayName(t *testing.T) {
	repo := mocks.NewUserRepository(t)
	svc := service.NewUserService(repo, nil)
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(42)).Return(&domain.User{ID: 42, Username: "host42"}, nil).Once()
	repo.On("FindByID", ctx, uint(7)).Return(nil, repository.ErrUserNotFound).Once()
	repo.On("FindByID", ctx, uint(8)).Return(nil, errors.New("db down")).Once()

	assert.Equal(t, "host42", svc.DisplayName(ctx, 42))
	assert.Equal(t, "User-7", svc.DisplayName(ctx, 7))
	assert.Equal(t, "User-8", svc.DisplayName(ctx, 8))
}

func TestUserService_GetProfile(t *testing.T) {
	repo := mocks.NewUserRepository(t)
	svc := service.NewUserService(repo, nil)
	ctx := context.Background()

	repo.On("FindByID", ctx, uint(42)).Return(&domain.User{ID: 42, Username: "host42", Score: 50, Title: "apprenti"}, nil).Once()
	user, err := svc.GetProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "apprenti", user.Title)

	repo.On("FindByID", ctx, uint(1)).Return(nil, repository.ErrUserNotFound).Once()
	_, err = svc.GetProfile(ctx, 1)
	assert.ErrorIs(t, err, service.ErrUserNotFound)

	repo.On("FindByID", ctx, uint(2)).Return(nil, errors.New("db down")).Once()
	_, err = svc.GetProfile(ctx, 2)
	assert.ErrorIs(t, err, service.ErrInternalServer)
}

func TestUserService_AwardScoreEnqueues(t *testing.T) {
	repo := mocks.NewUserRepository(t)
	enq := &fakeEnqueuer{}
	svc := service.NewUserService(repo, enq)

	require.NoError(t, svc.AwardScore(context.Background(), 42, 8, "R1"))
	assert.Equal(t, []uint{42}, enq.calls)
	repo.AssertNotCalled(t, "AddScore")
}

func TestUserService_AwardScoreFallsBackWhenQueueFails(t *testing.T) {
	repo := mocks.NewUserRepository(t)
	enq := &fakeEnqueuer{err: errors.New("redis unavailable")}
	svc := service.NewUserService(repo, enq)
	ctx := context.Background()

	repo.On("AddScore", ctx, uint(42), 8).Return(&domain.User{ID: 42, Score: 8, Title: domain.DefaultTitle}, nil).Once()

	require.NoError(t, svc.AwardScore(ctx, 42, 8, "R1"))
	assert.Len(t, enq.calls, 1)
}

func TestUserService_AwardScoreRejectsMissingWinner(t *testing.T) {
	svc := service.NewUserService(mocks.NewUserRepository(t), nil)
	err := svc.AwardScore(context.Background(), 0, 8, "R1")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestUserService_ApplyScoreUnknownUser(t *testing.T) {
	repo := mocks.NewUserRepository(t)
	svc := service.NewUserService(repo, nil)
	ctx := context.Background()

	repo.On("AddScore", ctx, uint(9), 8).Return(nil, repository.ErrUserNotFound).Once()
	_, err := svc.ApplyScore(ctx, 9, 8)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}
