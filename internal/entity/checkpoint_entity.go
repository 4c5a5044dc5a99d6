package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Checkpoint struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ThreadId   uuid.UUID `gorm:"type:uuid;index"`
	UserId     uuid.UUID `gorm:"type:uuid;index"`
	Version    int
	Messages   json.RawMessage
	RetryCount int
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
