package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/docload"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/events"
	pktNats "rag-chat-be/pkg/nats"
	"rag-chat-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

type IIndexerService interface {
	Consume(ctx context.Context) error
}

// indexerService is the background document pipeline: extract text, split
// into chunks, embed and store the vectors, flip the document status.
type indexerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
}

func NewIndexerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
) IIndexerService {
	return &indexerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
	}
}

func (s *indexerService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *indexerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal index message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Indexing document %s", payload.DocumentId)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to load document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if document == nil {
		log.Printf("[WARN] Document %s vanished before indexing", payload.DocumentId)
		msg.Ack()
		return
	}

	if err := s.index(ctx, uow, document); err != nil {
		log.Printf("[ERROR] Indexing document %s failed: %v", document.Id, err)
		s.markFailed(ctx, uow, document)
		msg.Ack() // A deterministic failure, retrying won't fix the file
		return
	}

	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, model.DocumentStatusIndexed); err != nil {
		log.Printf("[ERROR] Failed to mark document %s indexed: %v", document.Id, err)
		msg.Nack()
		return
	}

	s.publishEvent(ctx, events.TypeDocumentIndexed, document)
	msg.Ack()
}

func (s *indexerService) index(ctx context.Context, uow unitofwork.UnitOfWork, document *entity.Document) error {
	text, err := docload.Load(document.FilePath)
	if err != nil {
		return err
	}

	chunks := utils.SplitText(text, chunkSize, chunkOverlap)
	entities := make([]*entity.DocumentChunk, 0, len(chunks))
	for i, chunk := range chunks {
		embResp, err := s.embeddingProvider.Generate(chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			return err
		}
		entities = append(entities, &entity.DocumentChunk{
			Id:         uuid.New(),
			Content:    chunk,
			Embedding:  embResp.Embedding.Values,
			ChunkIndex: i,
			Metadata: map[string]interface{}{
				"file_name": document.FileName,
			},
			DocumentId: document.Id,
			ThreadId:   document.ThreadId,
			UserId:     document.UserId,
			CreatedAt:  time.Now(),
		})
	}

	return uow.DocumentChunkRepository().CreateBulk(ctx, entities)
}

// markFailed puts the document in failed status and drops any chunks a
// partial run left behind.
func (s *indexerService) markFailed(ctx context.Context, uow unitofwork.UnitOfWork, document *entity.Document) {
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		log.Printf("[WARN] Failed to clean partial chunks for document %s: %v", document.Id, err)
	}
	if err := uow.DocumentRepository().UpdateStatus(ctx, document.Id, model.DocumentStatusFailed); err != nil {
		log.Printf("[ERROR] Failed to mark document %s failed: %v", document.Id, err)
	}
	s.publishEvent(ctx, events.TypeDocumentIndexFailed, document)
}

func (s *indexerService) publishEvent(ctx context.Context, eventType string, document *entity.Document) {
	if s.eventPublisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"document_id": document.Id,
			"file_name":   document.FileName,
			"thread_id":   document.ThreadId,
			"user_id":     document.UserId,
		},
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[WARN] Failed to publish %s event: %v", eventType, err)
	}
}
