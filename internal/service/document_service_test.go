package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/model"
)

func newDocumentServiceForTest(t *testing.T, uow *fakeUnitOfWork, publisher *fakePublisher) IDocumentService {
	t.Helper()
	return NewDocumentService(&fakeUowFactory{uow: uow}, publisher, t.TempDir(), noopLogger{})
}

func indexedDocument(userId, threadId uuid.UUID, path string) *entity.Document {
	return &entity.Document{
		Id:        uuid.New(),
		FileName:  "report.txt",
		FilePath:  path,
		FileSize:  10,
		Status:    model.DocumentStatusIndexed,
		ThreadId:  threadId,
		UserId:    userId,
		CreatedAt: time.Now(),
	}
}

func TestDocumentUploadRejectsUnsupportedType(t *testing.T) {
	owner := uuid.New()
	thread := ownedThread(owner)
	uow := newFakeUnitOfWork()
	uow.threadRepo = newFakeThreadRepo(thread)
	publisher := &fakePublisher{}
	svc := newDocumentServiceForTest(t, uow, publisher)

	_, err := svc.Upload(context.Background(), owner, thread.Id, "malware.exe", 4, strings.NewReader("data"))

	assert.Equal(t, fiber.StatusBadRequest, apiStatus(t, err))
	assert.Contains(t, err.Error(), ".pdf")
	assert.Empty(t, publisher.payloads)
	assert.Empty(t, uow.documentRepo.documents)
}

func TestDocumentUploadCreatesPendingAndPublishes(t *testing.T) {
	owner := uuid.New()
	thread := ownedThread(owner)
	uow := newFakeUnitOfWork()
	uow.threadRepo = newFakeThreadRepo(thread)
	publisher := &fakePublisher{}
	svc := newDocumentServiceForTest(t, uow, publisher)

	res, err := svc.Upload(context.Background(), owner, thread.Id, "notes.txt", 0, strings.NewReader("hello world"))
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", res.FileName)
	assert.Equal(t, model.DocumentStatusPending, res.Status)

	stored := uow.documentRepo.documents[res.Id]
	require.NotNil(t, stored)
	assert.Equal(t, int64(len("hello world")), stored.FileSize)
	assert.FileExists(t, stored.FilePath)

	require.Len(t, publisher.payloads, 1)
	var msg dto.PublishIndexDocumentMessage
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &msg))
	assert.Equal(t, res.Id, msg.DocumentId)
}

func TestDocumentUploadRollsBackWhenPublishFails(t *testing.T) {
	owner := uuid.New()
	thread := ownedThread(owner)
	uow := newFakeUnitOfWork()
	uow.threadRepo = newFakeThreadRepo(thread)
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := newDocumentServiceForTest(t, uow, publisher)

	_, err := svc.Upload(context.Background(), owner, thread.Id, "notes.txt", 0, strings.NewReader("hello world"))

	require.Error(t, err)
	require.Len(t, uow.documentRepo.deleted, 1)
	assert.Empty(t, uow.documentRepo.documents, "pending row must not survive a failed publish")
}

func TestDocumentUploadRequiresThreadOwnership(t *testing.T) {
	owner := uuid.New()
	thread := ownedThread(owner)
	uow := newFakeUnitOfWork()
	uow.threadRepo = newFakeThreadRepo(thread)
	svc := newDocumentServiceForTest(t, uow, &fakePublisher{})

	_, err := svc.Upload(context.Background(), owner, uuid.New(), "notes.txt", 4, strings.NewReader("data"))
	assert.Equal(t, fiber.StatusNotFound, apiStatus(t, err))

	_, err = svc.Upload(context.Background(), uuid.New(), thread.Id, "notes.txt", 4, strings.NewReader("data"))
	assert.Equal(t, fiber.StatusForbidden, apiStatus(t, err))
}

func TestDocumentDeleteRemovesRowChunksAndFile(t *testing.T) {
	owner := uuid.New()
	threadId := uuid.New()
	file, err := os.CreateTemp(t.TempDir(), "report-*.txt")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	doc := indexedDocument(owner, threadId, file.Name())
	uow := newFakeUnitOfWork()
	uow.documentRepo = newFakeDocumentRepo(doc)
	svc := newDocumentServiceForTest(t, uow, &fakePublisher{})

	require.NoError(t, svc.Delete(context.Background(), owner, doc.Id))

	assert.Equal(t, []uuid.UUID{doc.Id}, uow.documentRepo.deleted)
	assert.Equal(t, []uuid.UUID{doc.Id}, uow.chunkRepo.deleteByDocumentIds)
	assert.NoFileExists(t, file.Name())
}

func TestDocumentDeleteSucceedsWhenChunkCleanupFails(t *testing.T) {
	owner := uuid.New()
	doc := indexedDocument(owner, uuid.New(), "/nonexistent/report.txt")
	uow := newFakeUnitOfWork()
	uow.documentRepo = newFakeDocumentRepo(doc)
	uow.chunkRepo.deleteByDocumentErr = errors.New("vector store down")
	svc := newDocumentServiceForTest(t, uow, &fakePublisher{})

	err := svc.Delete(context.Background(), owner, doc.Id)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{doc.Id}, uow.documentRepo.deleted)
}

func TestDocumentDeleteOwnership(t *testing.T) {
	owner := uuid.New()
	doc := indexedDocument(owner, uuid.New(), "/tmp/report.txt")
	uow := newFakeUnitOfWork()
	uow.documentRepo = newFakeDocumentRepo(doc)
	svc := newDocumentServiceForTest(t, uow, &fakePublisher{})

	err := svc.Delete(context.Background(), owner, uuid.New())
	assert.Equal(t, fiber.StatusNotFound, apiStatus(t, err))

	err = svc.Delete(context.Background(), uuid.New(), doc.Id)
	assert.Equal(t, fiber.StatusForbidden, apiStatus(t, err))
	assert.Empty(t, uow.documentRepo.deleted)
}
