package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/agent"

	"github.com/google/uuid"
)

// checkpointStore adapts the relational checkpoint repository to the agent
// loop's Checkpointer contract. Transcripts travel as one jsonb blob per
// (thread, user) row.
type checkpointStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewCheckpointStore(uowFactory unitofwork.RepositoryFactory) agent.Checkpointer {
	return &checkpointStore{uowFactory: uowFactory}
}

func (s *checkpointStore) Load(ctx context.Context, threadID, userID uuid.UUID) (*agent.Checkpoint, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	row, err := uow.CheckpointRepository().FindByThreadAndUser(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, agent.ErrCheckpointNotFound
	}

	var messages []agent.Message
	if len(row.Messages) > 0 {
		if err := json.Unmarshal(row.Messages, &messages); err != nil {
			return nil, fmt.Errorf("decode checkpoint messages: %w", err)
		}
	}

	return &agent.Checkpoint{
		ThreadID:   row.ThreadId,
		UserID:     row.UserId,
		Version:    row.Version,
		Messages:   messages,
		RetryCount: row.RetryCount,
	}, nil
}

func (s *checkpointStore) Save(ctx context.Context, checkpoint *agent.Checkpoint) error {
	raw, err := json.Marshal(checkpoint.Messages)
	if err != nil {
		return fmt.Errorf("encode checkpoint messages: %w", err)
	}

	now := time.Now()
	row := entity.Checkpoint{
		Id:         uuid.New(),
		ThreadId:   checkpoint.ThreadID,
		UserId:     checkpoint.UserID,
		Version:    checkpoint.Version,
		Messages:   raw,
		RetryCount: checkpoint.RetryCount,
		CreatedAt:  now,
		UpdatedAt:  &now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.CheckpointRepository().Upsert(ctx, &row)
}

func (s *checkpointStore) DeleteThread(ctx context.Context, threadID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.CheckpointRepository().DeleteByThreadId(ctx, threadID)
}
