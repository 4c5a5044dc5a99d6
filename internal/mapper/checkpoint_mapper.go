package mapper

import (
	"encoding/json"
	"time"

	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/model"

	"gorm.io/datatypes"
)

type CheckpointMapper struct{}

func NewCheckpointMapper() *CheckpointMapper {
	return &CheckpointMapper{}
}

func (m *CheckpointMapper) ToEntity(c *model.Checkpoint) *entity.Checkpoint {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Checkpoint{
		Id:         c.Id,
		ThreadId:   c.ThreadId,
		UserId:     c.UserId,
		Version:    c.Version,
		Messages:   json.RawMessage(c.Messages),
		RetryCount: c.RetryCount,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *CheckpointMapper) ToModel(c *entity.Checkpoint) *model.Checkpoint {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Checkpoint{
		Id:         c.Id,
		ThreadId:   c.ThreadId,
		UserId:     c.UserId,
		Version:    c.Version,
		Messages:   datatypes.JSON(c.Messages),
		RetryCount: c.RetryCount,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}
