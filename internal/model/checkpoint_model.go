package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Checkpoint holds the serialized transcript for one thread as seen by one
// user. One row per (thread, user); Version increments on every turn.
type Checkpoint struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ThreadId   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_checkpoints_thread_user"`
	UserId     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_checkpoints_thread_user"`
	Version    int            `gorm:"not null;default:0"`
	Messages   datatypes.JSON `gorm:"type:jsonb;not null"`
	RetryCount int            `gorm:"not null;default:0"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (Checkpoint) TableName() string {
	return "checkpoints"
}
