package tool

import (
	"context"

	"github.com/google/uuid"
)

// Invocation scopes a tool call to the thread and user of the current
// turn. Tools must never read data belonging to another thread.
type Invocation struct {
	ThreadID uuid.UUID
	UserID   uuid.UUID
}

// Tool is one capability the agent can invoke during a turn. Invoke
// returns the textual observation plus a found flag; tools report their
// own failures as a not-found sentinel instead of an error so the loop
// treats "backend down" and "nothing matched" the same way.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, query string, inv Invocation) (string, bool)
}
