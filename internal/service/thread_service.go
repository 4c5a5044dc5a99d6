package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/agent"
	"rag-chat-be/pkg/events"
	pktNats "rag-chat-be/pkg/nats"

	"github.com/google/uuid"
)

const defaultThreadTitle = "New Chat"

type IThreadService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateThreadRequest) (*dto.CreateThreadResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.ThreadResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ThreadResponse, error)
	Rename(ctx context.Context, userId uuid.UUID, id uuid.UUID, req *dto.RenameThreadRequest) (*dto.ThreadResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type threadService struct {
	uowFactory     unitofwork.RepositoryFactory
	checkpointer   agent.Checkpointer
	eventPublisher *pktNats.Publisher
	uploadDir      string
	logger         logger.ILogger
}

func NewThreadService(
	uowFactory unitofwork.RepositoryFactory,
	checkpointer agent.Checkpointer,
	eventPublisher *pktNats.Publisher,
	uploadDir string,
	log logger.ILogger,
) IThreadService {
	return &threadService{
		uowFactory:     uowFactory,
		checkpointer:   checkpointer,
		eventPublisher: eventPublisher,
		uploadDir:      uploadDir,
		logger:         log,
	}
}

func (s *threadService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateThreadRequest) (*dto.CreateThreadResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultThreadTitle
	}
	if len(title) > 255 {
		return nil, serverutils.NewBadRequest("Title must be at most 255 characters")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread := entity.Thread{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: time.Now(),
	}
	if err := uow.ThreadRepository().Create(ctx, &thread); err != nil {
		return nil, err
	}

	return &dto.CreateThreadResponse{Id: thread.Id, Title: thread.Title}, nil
}

func (s *threadService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ThreadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	threads, err := uow.ThreadRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ThreadResponse, len(threads))
	for i, t := range threads {
		res[i] = &dto.ThreadResponse{
			Id:        t.Id,
			Title:     t.Title,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		}
	}
	return res, nil
}

func (s *threadService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ThreadResponse, error) {
	thread, err := s.findOwned(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	return &dto.ThreadResponse{
		Id:        thread.Id,
		Title:     thread.Title,
		CreatedAt: thread.CreatedAt,
		UpdatedAt: thread.UpdatedAt,
	}, nil
}

func (s *threadService) Rename(ctx context.Context, userId uuid.UUID, id uuid.UUID, req *dto.RenameThreadRequest) (*dto.ThreadResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, serverutils.NewBadRequest("Title must not be empty")
	}
	if len(title) > 255 {
		return nil, serverutils.NewBadRequest("Title must be at most 255 characters")
	}

	thread, err := s.findOwned(ctx, userId, id)
	if err != nil {
		return nil, err
	}

	thread.Title = title
	now := time.Now()
	thread.UpdatedAt = &now

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ThreadRepository().Update(ctx, thread); err != nil {
		return nil, err
	}

	return &dto.ThreadResponse{
		Id:        thread.Id,
		Title:     thread.Title,
		CreatedAt: thread.CreatedAt,
		UpdatedAt: thread.UpdatedAt,
	}, nil
}

// Delete removes a thread and everything hanging off it. The relational
// rows are authoritative and go in one transaction; checkpoint, vector and
// file cleanup are best effort afterwards. A failed cleanup is logged and
// the deletion still succeeds, any orphans are invisible because every
// read path is scoped by thread.
func (s *threadService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	if _, err := s.findOwned(ctx, userId, id); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.DocumentRepository().DeleteAllByThreadId(ctx, id); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.ThreadRepository().Delete(ctx, id); err != nil {
		_ = uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if err := s.checkpointer.DeleteThread(ctx, id); err != nil {
		s.logger.Warn("thread", "checkpoint cleanup failed after thread delete", map[string]interface{}{
			"thread_id": id.String(),
			"error":     err.Error(),
		})
	}
	cleanupUow := s.uowFactory.NewUnitOfWork(ctx)
	if err := cleanupUow.DocumentChunkRepository().DeleteByThreadId(ctx, id); err != nil {
		s.logger.Warn("thread", "chunk cleanup failed after thread delete", map[string]interface{}{
			"thread_id": id.String(),
			"error":     err.Error(),
		})
	}
	if err := os.RemoveAll(filepath.Join(s.uploadDir, id.String())); err != nil {
		s.logger.Warn("thread", "file cleanup failed after thread delete", map[string]interface{}{
			"thread_id": id.String(),
			"error":     err.Error(),
		})
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeThreadDeleted,
			Data: map[string]interface{}{
				"thread_id": id,
				"user_id":   userId,
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("thread", "failed to publish THREAD_DELETED event", map[string]interface{}{
				"thread_id": id.String(),
				"error":     err.Error(),
			})
		}
	}

	return nil
}

func (s *threadService) findOwned(ctx context.Context, userId, id uuid.UUID) (*entity.Thread, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, serverutils.NewNotFound("Thread not found")
	}
	if thread.UserId != userId {
		return nil, serverutils.NewForbidden("You do not own this thread")
	}
	return thread, nil
}
