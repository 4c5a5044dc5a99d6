package implementation

import (
	"context"
	"errors"

	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/mapper"
	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CheckpointRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CheckpointMapper
}

func NewCheckpointRepository(db *gorm.DB) contract.CheckpointRepository {
	return &CheckpointRepositoryImpl{
		db:     db,
		mapper: mapper.NewCheckpointMapper(),
	}
}

func (r *CheckpointRepositoryImpl) FindByThreadAndUser(ctx context.Context, threadId, userId uuid.UUID) (*entity.Checkpoint, error) {
	var m model.Checkpoint
	err := r.db.WithContext(ctx).
		Where("thread_id = ? AND user_id = ?", threadId, userId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CheckpointRepositoryImpl) Upsert(ctx context.Context, checkpoint *entity.Checkpoint) error {
	m := r.mapper.ToModel(checkpoint)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"version", "messages", "retry_count", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*checkpoint = *r.mapper.ToEntity(m)
	return nil
}

func (r *CheckpointRepositoryImpl) DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("thread_id = ?", threadId).
		Delete(&model.Checkpoint{}).Error
}
