package contract

import (
	"context"

	"rag-chat-be/internal/entity"

	"github.com/google/uuid"
)

type DocumentChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error

	// SearchSimilarByThread returns the chunks nearest to the query
	// embedding by cosine distance, restricted to one thread.
	SearchSimilarByThread(ctx context.Context, embedding []float32, limit int, threadId uuid.UUID) ([]*entity.DocumentChunk, error)
}
