package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/embedding"
)

// In-memory repository fakes backing the service tests. Each fake records
// the calls the services make and can be told to fail a specific method.

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func idFromSpecs(specs []specification.Specification) (uuid.UUID, bool) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return byID.ID, true
		}
	}
	return uuid.Nil, false
}

type fakeThreadRepo struct {
	threads map[uuid.UUID]*entity.Thread

	updated   []*entity.Thread
	deleted   []uuid.UUID
	deleteErr error
}

func newFakeThreadRepo(threads ...*entity.Thread) *fakeThreadRepo {
	repo := &fakeThreadRepo{threads: make(map[uuid.UUID]*entity.Thread)}
	for _, t := range threads {
		repo.threads[t.Id] = t
	}
	return repo
}

func (r *fakeThreadRepo) Create(ctx context.Context, thread *entity.Thread) error {
	r.threads[thread.Id] = thread
	return nil
}

func (r *fakeThreadRepo) Update(ctx context.Context, thread *entity.Thread) error {
	r.updated = append(r.updated, thread)
	r.threads[thread.Id] = thread
	return nil
}

func (r *fakeThreadRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, id)
	delete(r.threads, id)
	return nil
}

func (r *fakeThreadRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thread, error) {
	if id, ok := idFromSpecs(specs); ok {
		return r.threads[id], nil
	}
	return nil, nil
}

func (r *fakeThreadRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thread, error) {
	res := make([]*entity.Thread, 0, len(r.threads))
	for _, t := range r.threads {
		res = append(res, t)
	}
	return res, nil
}

type fakeDocumentRepo struct {
	documents map[uuid.UUID]*entity.Document

	deleted            []uuid.UUID
	statusUpdates      map[uuid.UUID]string
	deleteAllThreadIds []uuid.UUID

	findErr      error
	createErr    error
	deleteErr    error
	deleteAllErr error
}

func newFakeDocumentRepo(documents ...*entity.Document) *fakeDocumentRepo {
	repo := &fakeDocumentRepo{
		documents:     make(map[uuid.UUID]*entity.Document),
		statusUpdates: make(map[uuid.UUID]string),
	}
	for _, d := range documents {
		repo.documents[d.Id] = d
	}
	return repo
}

func (r *fakeDocumentRepo) Create(ctx context.Context, document *entity.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.documents[document.Id] = document
	return nil
}

func (r *fakeDocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.statusUpdates[id] = status
	if d, ok := r.documents[id]; ok {
		d.Status = status
	}
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, id)
	delete(r.documents, id)
	return nil
}

func (r *fakeDocumentRepo) DeleteAllByThreadId(ctx context.Context, threadId uuid.UUID) error {
	if r.deleteAllErr != nil {
		return r.deleteAllErr
	}
	r.deleteAllThreadIds = append(r.deleteAllThreadIds, threadId)
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if id, ok := idFromSpecs(specs); ok {
		return r.documents[id], nil
	}
	return nil, nil
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	res := make([]*entity.Document, 0, len(r.documents))
	for _, d := range r.documents {
		res = append(res, d)
	}
	return res, nil
}

type fakeChunkRepo struct {
	created []*entity.DocumentChunk

	deleteByDocumentIds []uuid.UUID
	deleteByThreadIds   []uuid.UUID

	createBulkErr       error
	deleteByDocumentErr error
	deleteByThreadErr   error
}

func (r *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if r.createBulkErr != nil {
		return r.createBulkErr
	}
	r.created = append(r.created, chunks...)
	return nil
}

func (r *fakeChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	if r.deleteByDocumentErr != nil {
		return r.deleteByDocumentErr
	}
	r.deleteByDocumentIds = append(r.deleteByDocumentIds, documentId)
	return nil
}

func (r *fakeChunkRepo) DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error {
	if r.deleteByThreadErr != nil {
		return r.deleteByThreadErr
	}
	r.deleteByThreadIds = append(r.deleteByThreadIds, threadId)
	return nil
}

func (r *fakeChunkRepo) SearchSimilarByThread(ctx context.Context, embedding []float32, limit int, threadId uuid.UUID) ([]*entity.DocumentChunk, error) {
	res := make([]*entity.DocumentChunk, 0)
	for _, c := range r.created {
		if c.ThreadId == threadId {
			res = append(res, c)
		}
	}
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

type fakeCheckpointRepo struct {
	mu      sync.Mutex
	row     *entity.Checkpoint
	findErr error

	upserted          []*entity.Checkpoint
	deleteByThreadIds []uuid.UUID
	deleteByThreadErr error
}

func (r *fakeCheckpointRepo) FindByThreadAndUser(ctx context.Context, threadId, userId uuid.UUID) (*entity.Checkpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.row == nil || r.row.ThreadId != threadId || r.row.UserId != userId {
		return nil, nil
	}
	return r.row, nil
}

func (r *fakeCheckpointRepo) Upsert(ctx context.Context, checkpoint *entity.Checkpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserted = append(r.upserted, checkpoint)
	r.row = checkpoint
	return nil
}

func (r *fakeCheckpointRepo) DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteByThreadErr != nil {
		return r.deleteByThreadErr
	}
	r.deleteByThreadIds = append(r.deleteByThreadIds, threadId)
	return nil
}

func (r *fakeCheckpointRepo) snapshot() []*entity.Checkpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.Checkpoint(nil), r.upserted...)
}

type fakeUnitOfWork struct {
	threadRepo     *fakeThreadRepo
	documentRepo   *fakeDocumentRepo
	chunkRepo      *fakeChunkRepo
	checkpointRepo *fakeCheckpointRepo

	begun      int
	committed  int
	rolledBack int
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		threadRepo:     newFakeThreadRepo(),
		documentRepo:   newFakeDocumentRepo(),
		chunkRepo:      &fakeChunkRepo{},
		checkpointRepo: &fakeCheckpointRepo{},
	}
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { u.begun++; return nil }
func (u *fakeUnitOfWork) Commit() error                   { u.committed++; return nil }
func (u *fakeUnitOfWork) Rollback() error                 { u.rolledBack++; return nil }

func (u *fakeUnitOfWork) UserRepository() contract.UserRepository { return nil }
func (u *fakeUnitOfWork) ThreadRepository() contract.ThreadRepository {
	return u.threadRepo
}
func (u *fakeUnitOfWork) DocumentRepository() contract.DocumentRepository {
	return u.documentRepo
}
func (u *fakeUnitOfWork) DocumentChunkRepository() contract.DocumentChunkRepository {
	return u.chunkRepo
}
func (u *fakeUnitOfWork) CheckpointRepository() contract.CheckpointRepository {
	return u.checkpointRepo
}

type fakeUowFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakePublisher struct {
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}
