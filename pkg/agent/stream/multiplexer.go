package stream

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"rag-chat-be/pkg/agent"
)

type toolCallLine struct {
	Type string                 `json:"type"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type toolResultLine struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

type contentLine struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type lineFlusher interface {
	Flush() error
}

// Multiplexer serializes agent events into newline-delimited JSON. Each
// event becomes exactly one line, flushed immediately so tool activity is
// visible to the caller before the answer starts.
type Multiplexer struct {
	logger *log.Logger
}

func NewMultiplexer(logger *log.Logger) *Multiplexer {
	return &Multiplexer{logger: logger}
}

// Pipe forwards events to w until the channel closes. Once a write fails
// (the caller went away) it stops writing but keeps draining the channel,
// so the producing loop always runs to completion and saves its
// checkpoint. Returns the first write error, if any.
func (m *Multiplexer) Pipe(ctx context.Context, events <-chan agent.Event, w io.Writer) error {
	var writeErr error
	for ev := range events {
		if writeErr != nil {
			continue
		}
		select {
		case <-ctx.Done():
			writeErr = ctx.Err()
			continue
		default:
		}

		line, ok := m.render(ev)
		if !ok {
			continue
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			writeErr = err
			continue
		}
		if f, ok := w.(lineFlusher); ok {
			if err := f.Flush(); err != nil {
				writeErr = err
			}
		}
	}
	return writeErr
}

func (m *Multiplexer) render(ev agent.Event) ([]byte, bool) {
	var payload interface{}

	switch ev.Type {
	case agent.EventToolCall:
		args := ev.Args
		if args == nil {
			args = map[string]interface{}{}
		}
		payload = toolCallLine{Type: string(ev.Type), Name: ev.Name, Args: args}
	case agent.EventToolResult:
		payload = toolResultLine{Type: string(ev.Type), Name: ev.Name, Content: ev.Content}
	case agent.EventLLMChunk:
		if ev.Content == "" {
			return nil, false
		}
		payload = contentLine{Type: string(ev.Type), Content: ev.Content}
	case agent.EventError:
		payload = contentLine{Type: string(ev.Type), Content: ev.Content}
	default:
		m.logger.Printf("[STREAM] dropping unknown event type %q", ev.Type)
		return nil, false
	}

	line, err := json.Marshal(payload)
	if err != nil {
		m.logger.Printf("[STREAM] marshal event failed: %v", err)
		return nil, false
	}
	return line, true
}
