package tool

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"rag-chat-be/internal/constant"
	"rag-chat-be/pkg/embedding"
)

// SentinelNoDocuments is the observation emitted when retrieval finds
// nothing, or when retrieval itself fails. Both cases look identical to
// the rest of the loop.
const SentinelNoDocuments = "No relevant documents"

// PassageSearcher returns the contents of the stored passages nearest to
// the query embedding, restricted to a single thread.
type PassageSearcher interface {
	SearchPassages(ctx context.Context, queryEmbedding []float32, limit int, threadID uuid.UUID) ([]string, error)
}

// DocumentRetriever searches the caller's uploaded documents. Results are
// always scoped to the invocation's thread, so two threads owned by the
// same user cannot see each other's files.
type DocumentRetriever struct {
	embedder embedding.EmbeddingProvider
	searcher PassageSearcher
	topK     int
	logger   *log.Logger
}

func NewDocumentRetriever(embedder embedding.EmbeddingProvider, searcher PassageSearcher, logger *log.Logger) *DocumentRetriever {
	return &DocumentRetriever{
		embedder: embedder,
		searcher: searcher,
		topK:     3,
		logger:   logger,
	}
}

func (r *DocumentRetriever) Name() string {
	return constant.ToolNameRetrieveDocuments
}

func (r *DocumentRetriever) Description() string {
	return "Searches the documents the user uploaded to this conversation and returns the most relevant passages."
}

func (r *DocumentRetriever) Invoke(ctx context.Context, query string, inv Invocation) (string, bool) {
	embResp, err := r.embedder.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		r.logger.Printf("[RETRIEVER] query embedding failed for thread %s: %v", inv.ThreadID, err)
		return SentinelNoDocuments, false
	}

	passages, err := r.searcher.SearchPassages(ctx, embResp.Embedding.Values, r.topK, inv.ThreadID)
	if err != nil {
		r.logger.Printf("[RETRIEVER] similarity search failed for thread %s: %v", inv.ThreadID, err)
		return SentinelNoDocuments, false
	}
	if len(passages) == 0 {
		return SentinelNoDocuments, false
	}

	return strings.Join(passages, "\n\n"), true
}
