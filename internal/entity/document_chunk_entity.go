package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentChunk struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Content    string
	Embedding  []float32
	ChunkIndex int
	Metadata   map[string]interface{}
	DocumentId uuid.UUID `gorm:"type:uuid;index"`
	ThreadId   uuid.UUID `gorm:"type:uuid;index"`
	UserId     uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
