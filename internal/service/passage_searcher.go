package service

import (
	"context"

	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/agent/tool"

	"github.com/google/uuid"
)

// passageSearcher adapts the chunk repository to the retriever tool's
// narrow contract.
type passageSearcher struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewPassageSearcher(uowFactory unitofwork.RepositoryFactory) tool.PassageSearcher {
	return &passageSearcher{uowFactory: uowFactory}
}

func (s *passageSearcher) SearchPassages(ctx context.Context, queryEmbedding []float32, limit int, threadID uuid.UUID) ([]string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.DocumentChunkRepository().SearchSimilarByThread(ctx, queryEmbedding, limit, threadID)
	if err != nil {
		return nil, err
	}

	passages := make([]string, len(chunks))
	for i, c := range chunks {
		passages[i] = c.Content
	}
	return passages, nil
}
