package agent

// EventType identifies an internal agent loop event.
type EventType string

const (
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventLLMChunk   EventType = "llm_chunk"
	EventError      EventType = "error"
)

// Event is one item on the loop's output channel. The stream multiplexer
// consumes these and serializes them for the caller; types it does not
// recognize are dropped from the caller-visible stream.
type Event struct {
	Type    EventType
	Name    string                 // tool name, for tool_call/tool_result
	Args    map[string]interface{} // tool arguments, for tool_call
	Content string                 // delta, tool result or error message
}
