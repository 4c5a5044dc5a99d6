package contract

import (
	"context"

	"rag-chat-be/internal/entity"

	"github.com/google/uuid"
)

type CheckpointRepository interface {
	// FindByThreadAndUser returns nil when no checkpoint exists yet.
	FindByThreadAndUser(ctx context.Context, threadId, userId uuid.UUID) (*entity.Checkpoint, error)

	// Upsert creates the row on first save and replaces messages, version
	// and retry count on subsequent saves.
	Upsert(ctx context.Context, checkpoint *entity.Checkpoint) error

	DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error
}
