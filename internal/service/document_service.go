package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/model"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/docload"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Upload(ctx context.Context, userId, threadId uuid.UUID, fileName string, size int64, file io.Reader) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, userId, threadId uuid.UUID) ([]*dto.DocumentResponse, error)
	Delete(ctx context.Context, userId, documentId uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	uploadDir        string
	logger           logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	uploadDir string,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		uploadDir:        uploadDir,
		logger:           log,
	}
}

// Upload validates and stores the file synchronously, then queues the
// heavy extract/embed/index work for the background consumer. The caller
// gets the document back in "pending" status.
func (s *documentService) Upload(ctx context.Context, userId, threadId uuid.UUID, fileName string, size int64, file io.Reader) (*dto.UploadDocumentResponse, error) {
	if !docload.Supported(fileName) {
		return nil, serverutils.NewBadRequest(docload.UnsupportedTypeMessage())
	}

	if err := s.checkThreadOwnership(ctx, userId, threadId); err != nil {
		return nil, err
	}

	docId := uuid.New()
	dir := filepath.Join(s.uploadDir, threadId.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s", docId.String(), filepath.Base(fileName)))

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	written, err := io.Copy(dst, file)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write upload file: %w", err)
	}
	if size <= 0 {
		size = written
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	document := entity.Document{
		Id:        docId,
		FileName:  filepath.Base(fileName),
		FilePath:  path,
		FileSize:  size,
		Status:    model.DocumentStatusPending,
		ThreadId:  threadId,
		UserId:    userId,
		CreatedAt: time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	msgJson, err := json.Marshal(dto.PublishIndexDocumentMessage{DocumentId: document.Id})
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		// Roll the upload back, a document that never gets indexed would
		// sit in pending forever.
		cleanupUow := s.uowFactory.NewUnitOfWork(ctx)
		if delErr := cleanupUow.DocumentRepository().Delete(ctx, document.Id); delErr != nil {
			s.logger.Warn("document", "failed to roll back document after publish failure", map[string]interface{}{
				"document_id": document.Id.String(),
				"error":       delErr.Error(),
			})
		}
		_ = os.Remove(path)
		return nil, err
	}

	return &dto.UploadDocumentResponse{
		Id:       document.Id,
		FileName: document.FileName,
		Status:   document.Status,
	}, nil
}

func (s *documentService) List(ctx context.Context, userId, threadId uuid.UUID) ([]*dto.DocumentResponse, error) {
	if err := s.checkThreadOwnership(ctx, userId, threadId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.DocumentResponse, len(documents))
	for i, d := range documents {
		res[i] = &dto.DocumentResponse{
			Id:        d.Id,
			FileName:  d.FileName,
			FileSize:  d.FileSize,
			Status:    d.Status,
			ThreadId:  d.ThreadId,
			CreatedAt: d.CreatedAt,
		}
	}
	return res, nil
}

// Delete removes the document row authoritatively, then cleans chunks and
// the stored file best effort.
func (s *documentService) Delete(ctx context.Context, userId, documentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil {
		return err
	}
	if document == nil {
		return serverutils.NewNotFound("Document not found")
	}
	if document.UserId != userId {
		return serverutils.NewForbidden("You do not own this document")
	}

	if err := uow.DocumentRepository().Delete(ctx, documentId); err != nil {
		return err
	}

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, documentId); err != nil {
		s.logger.Warn("document", "chunk cleanup failed after document delete", map[string]interface{}{
			"document_id": documentId.String(),
			"error":       err.Error(),
		})
	}
	if err := os.Remove(document.FilePath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("document", "file cleanup failed after document delete", map[string]interface{}{
			"document_id": documentId.String(),
			"error":       err.Error(),
		})
	}

	return nil
}

func (s *documentService) checkThreadOwnership(ctx context.Context, userId, threadId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: threadId})
	if err != nil {
		return err
	}
	if thread == nil {
		return serverutils.NewNotFound("Thread not found")
	}
	if thread.UserId != userId {
		return serverutils.NewForbidden("You do not own this thread")
	}
	return nil
}
