package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/pkg/serverutils"
)

func newThreadServiceForTest(t *testing.T, uow *fakeUnitOfWork) IThreadService {
	t.Helper()
	factory := &fakeUowFactory{uow: uow}
	return NewThreadService(factory, NewCheckpointStore(factory), nil, t.TempDir(), noopLogger{})
}

func ownedThread(userId uuid.UUID) *entity.Thread {
	return &entity.Thread{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "My Thread",
		CreatedAt: time.Now(),
	}
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *serverutils.ApiError
	require.ErrorAs(t, err, &apiErr)
	return apiErr.Status
}

func TestThreadCreateDefaultsTitle(t *testing.T) {
	uow := newFakeUnitOfWork()
	svc := newThreadServiceForTest(t, uow)

	res, err := svc.Create(context.Background(), uuid.New(), &dto.CreateThreadRequest{Title: "   "})
	require.NoError(t, err)
	assert.Equal(t, "New Chat", res.Title)
	assert.NotEqual(t, uuid.Nil, res.Id)
}

func TestThreadCreateRejectsLongTitle(t *testing.T) {
	uow := newFakeUnitOfWork()
	svc := newThreadServiceForTest(t, uow)

	_, err := svc.Create(context.Background(), uuid.New(), &dto.CreateThreadRequest{
		Title: strings.Repeat("x", 256),
	})
	assert.Equal(t, fiber.StatusBadRequest, apiStatus(t, err))
}

func TestThreadRenameValidation(t *testing.T) {
	userId := uuid.New()
	thread := ownedThread(userId)
	uow := newFakeUnitOfWork()
	uow.threadRepo = newFakeThreadRepo(thread)
	svc := newThreadServiceForTest(t, uow)

	_, err := svc.Rename(context.Background(), userId, thread.Id, &dto.RenameThreadRequest{Title: "  "})
	assert.Equal(t, fiber.StatusBadRequest, apiStatus(t, err))

	_, err = svc.Rename(context.Background(), userId, thread.Id, &dto.RenameThreadRequest{
		Title: strings.Repeat("x", 256),
	})
	assert.Equal(t, fiber.StatusBadRequest, apiStatus(t, err))

	res, err := svc.Rename(context.Background(), userId, thread.Id, &dto.RenameThreadRequest{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", res.Title)
	require.Len(t, uow.threadRepo.updated, 1)
	assert.NotNil(t, uow.threadRepo.updated[0].UpdatedAt)
}

func TestThreadShowOwnership(t *testing.T) {
	owner := uuid.New()
	thread := ownedThread(owner)
	uow := newFakeUnitOfWork()
	uow.threadRepo = newFakeThreadRepo(thread)
	svc := newThreadServiceForTest(t, uow)

	_, err := svc.Show(context.Background(), owner, uuid.New())
	assert.Equal(t, fiber.StatusNotFound, apiStatus(t, err))

	_, err = svc.Show(context.Background(), uuid.New(), thread.Id)
	assert.Equal(t, fiber.StatusForbidden, apiStatus(t, err))

	res, err := svc.Show(context.Background(), owner, thread.Id)
	require.NoError(t, err)
	assert.Equal(t, thread.Title, res.Title)
}

func TestThreadDeleteRemovesRowsTransactionally(t *testing.T) {
	owner := uuid.New()
	thread := ownedThread(owner)
	uow := newFakeUnitOfWork()
	uow.threadRepo = newFakeThreadRepo(thread)
	svc := newThreadServiceForTest(t, uow)

	require.NoError(t, svc.Delete(context.Background(), owner, thread.Id))

	assert.Equal(t, 1, uow.begun)
	assert.Equal(t, 1, uow.committed)
	assert.Equal(t, []uuid.UUID{thread.Id}, uow.documentRepo.deleteAllThreadIds)
	assert.Equal(t, []uuid.UUID{thread.Id}, uow.threadRepo.deleted)
	assert.Equal(t, []uuid.UUID{thread.Id}, uow.checkpointRepo.deleteByThreadIds)
	assert.Equal(t, []uuid.UUID{thread.Id}, uow.chunkRepo.deleteByThreadIds)
}

func TestThreadDeleteSucceedsWhenCleanupFails(t *testing.T) {
	owner := uuid.New()
	thread := ownedThread(owner)
	uow := newFakeUnitOfWork()
	uow.threadRepo = newFakeThreadRepo(thread)
	uow.checkpointRepo.deleteByThreadErr = errors.New("checkpoint store down")
	uow.chunkRepo.deleteByThreadErr = errors.New("vector store down")
	svc := newThreadServiceForTest(t, uow)

	err := svc.Delete(context.Background(), owner, thread.Id)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{thread.Id}, uow.threadRepo.deleted)
	assert.Equal(t, 1, uow.committed)
}

func TestThreadDeleteRollsBackOnRelationalFailure(t *testing.T) {
	owner := uuid.New()
	thread := ownedThread(owner)
	uow := newFakeUnitOfWork()
	uow.threadRepo = newFakeThreadRepo(thread)
	uow.threadRepo.deleteErr = errors.New("db down")
	svc := newThreadServiceForTest(t, uow)

	err := svc.Delete(context.Background(), owner, thread.Id)

	require.Error(t, err)
	assert.Equal(t, 1, uow.rolledBack)
	assert.Equal(t, 0, uow.committed)
	assert.Empty(t, uow.checkpointRepo.deleteByThreadIds)
}

func TestThreadDeleteOwnership(t *testing.T) {
	owner := uuid.New()
	thread := ownedThread(owner)
	uow := newFakeUnitOfWork()
	uow.threadRepo = newFakeThreadRepo(thread)
	svc := newThreadServiceForTest(t, uow)

	err := svc.Delete(context.Background(), owner, uuid.New())
	assert.Equal(t, fiber.StatusNotFound, apiStatus(t, err))

	err = svc.Delete(context.Background(), uuid.New(), thread.Id)
	assert.Equal(t, fiber.StatusForbidden, apiStatus(t, err))
	assert.Equal(t, 0, uow.begun)
}
