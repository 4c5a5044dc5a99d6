package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrCheckpointNotFound is returned by Load when no checkpoint exists for
// the (thread, user) pair. A fresh turn starts from an empty transcript.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Message is a single transcript entry. Tool call and tool result entries
// carry the tool name so history rendering can filter them out.
type Message struct {
	Role     string                 `json:"role"`
	Content  string                 `json:"content"`
	ToolName string                 `json:"tool_name,omitempty"`
	ToolArgs map[string]interface{} `json:"tool_args,omitempty"`
}

// Checkpoint is the durable conversation state for one thread as seen by
// one user. Version increments on every successful save.
type Checkpoint struct {
	ThreadID   uuid.UUID
	UserID     uuid.UUID
	Version    int
	Messages   []Message
	RetryCount int
}

// Checkpointer persists conversation state between turns. A turn that
// fails before its answer completes must not be saved, so the transcript
// a later turn loads never contains a half-finished exchange.
type Checkpointer interface {
	Load(ctx context.Context, threadID, userID uuid.UUID) (*Checkpoint, error)
	Save(ctx context.Context, checkpoint *Checkpoint) error
	DeleteThread(ctx context.Context, threadID uuid.UUID) error
}
