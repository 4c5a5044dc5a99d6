package integration

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/database"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.ThreadRepository())
	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.DocumentChunkRepository())
	assert.NotNil(t, uow.CheckpointRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	ctx := context.Background()
	userId := uuid.New()
	user := &entity.User{
		Id:           userId,
		Email:        "test-integration-" + uuid.New().String() + "@example.com",
		PasswordHash: "not-a-real-hash",
		FullName:     "Integration Test User",
	}
	require.NoError(t, uow.UserRepository().Create(ctx, user))

	threadId := uuid.New()
	thread := &entity.Thread{
		Id:     threadId,
		UserId: userId,
		Title:  "Integration Thread",
	}
	require.NoError(t, uow.ThreadRepository().Create(ctx, thread))

	t.Cleanup(func() {
		_ = uow.ThreadRepository().Delete(context.Background(), threadId)
	})

	t.Run("Check Transactional Document Create", func(t *testing.T) {
		txUow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, txUow.Begin(ctx))
		defer txUow.Rollback()

		docId := uuid.New()
		doc := &entity.Document{
			Id:       docId,
			FileName: "integration.txt",
			FilePath: "/tmp/integration.txt",
			FileSize: 42,
			Status:   model.DocumentStatusPending,
			ThreadId: threadId,
			UserId:   userId,
		}
		require.NoError(t, txUow.DocumentRepository().Create(ctx, doc))
		require.NoError(t, txUow.DocumentRepository().UpdateStatus(ctx, docId, model.DocumentStatusIndexed))

		found, err := txUow.DocumentRepository().FindOne(ctx, specification.ByID{ID: docId})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, model.DocumentStatusIndexed, found.Status)
	})

	t.Run("Check Chunk Similarity Search", func(t *testing.T) {
		docId := uuid.New()
		doc := &entity.Document{
			Id:       docId,
			FileName: "vectors.txt",
			FilePath: "/tmp/vectors.txt",
			Status:   model.DocumentStatusIndexed,
			ThreadId: threadId,
			UserId:   userId,
		}
		require.NoError(t, uow.DocumentRepository().Create(ctx, doc))
		defer uow.DocumentChunkRepository().DeleteByDocumentId(ctx, docId)

		embedding := make([]float32, 768)
		embedding[0] = 1
		chunks := []*entity.DocumentChunk{
			{
				Id:         uuid.New(),
				Content:    "integration chunk",
				Embedding:  embedding,
				ChunkIndex: 0,
				Metadata:   map[string]interface{}{"file_name": "vectors.txt"},
				DocumentId: docId,
				ThreadId:   threadId,
				UserId:     userId,
			},
		}
		require.NoError(t, uow.DocumentChunkRepository().CreateBulk(ctx, chunks))

		nearest, err := uow.DocumentChunkRepository().SearchSimilarByThread(ctx, embedding, 3, threadId)
		require.NoError(t, err)
		require.NotEmpty(t, nearest)
		assert.Equal(t, "integration chunk", nearest[0].Content)

		// Another thread must not see these chunks.
		other, err := uow.DocumentChunkRepository().SearchSimilarByThread(ctx, embedding, 3, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("Check Checkpoint Upsert", func(t *testing.T) {
		defer uow.CheckpointRepository().DeleteByThreadId(ctx, threadId)

		messages, err := json.Marshal([]map[string]string{
			{"role": "human", "content": "hello"},
			{"role": "ai", "content": "hi there"},
		})
		require.NoError(t, err)

		cp := &entity.Checkpoint{
			Id:       uuid.New(),
			ThreadId: threadId,
			UserId:   userId,
			Version:  1,
			Messages: messages,
		}
		require.NoError(t, uow.CheckpointRepository().Upsert(ctx, cp))

		cp.Version = 2
		require.NoError(t, uow.CheckpointRepository().Upsert(ctx, cp))

		found, err := uow.CheckpointRepository().FindByThreadAndUser(ctx, threadId, userId)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, 2, found.Version)

		missing, err := uow.CheckpointRepository().FindByThreadAndUser(ctx, uuid.New(), userId)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}
