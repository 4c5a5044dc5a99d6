package tool

import (
	"context"
	"errors"
	"log"
	"testing"

	"github.com/google/uuid"

	"rag-chat-be/pkg/embedding"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2}},
	}, nil
}

type fakeSearcher struct {
	passages []string
	err      error
	threadID uuid.UUID
}

func (f *fakeSearcher) SearchPassages(ctx context.Context, queryEmbedding []float32, limit int, threadID uuid.UUID) ([]string, error) {
	f.threadID = threadID
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *log.Logger {
	return log.New(nullWriter{}, "", 0)
}

func TestDocumentRetrieverJoinsPassages(t *testing.T) {
	searcher := &fakeSearcher{passages: []string{"first passage", "second passage", "third passage"}}
	r := NewDocumentRetriever(&fakeEmbedder{}, searcher, testLogger())

	threadID := uuid.New()
	content, found := r.Invoke(context.Background(), "query", Invocation{ThreadID: threadID})
	if !found {
		t.Fatal("expected found")
	}
	want := "first passage\n\nsecond passage\n\nthird passage"
	if content != want {
		t.Errorf("content = %q, want %q", content, want)
	}
	if searcher.threadID != threadID {
		t.Errorf("search not scoped to thread %s", threadID)
	}
}

func TestDocumentRetrieverSentinel(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
		searcher *fakeSearcher
	}{
		{
			name:     "no passages",
			embedder: &fakeEmbedder{},
			searcher: &fakeSearcher{},
		},
		{
			name:     "embedding failure",
			embedder: &fakeEmbedder{err: errors.New("provider down")},
			searcher: &fakeSearcher{passages: []string{"never reached"}},
		},
		{
			name:     "search failure",
			embedder: &fakeEmbedder{},
			searcher: &fakeSearcher{err: errors.New("db down")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewDocumentRetriever(tt.embedder, tt.searcher, testLogger())
			content, found := r.Invoke(context.Background(), "query", Invocation{ThreadID: uuid.New()})
			if found {
				t.Fatal("expected not found")
			}
			if content != SentinelNoDocuments {
				t.Errorf("content = %q, want the sentinel", content)
			}
		})
	}
}
