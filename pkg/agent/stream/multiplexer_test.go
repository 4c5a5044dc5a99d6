package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"rag-chat-be/pkg/agent"
)

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *log.Logger {
	return log.New(nullWriter{}, "", 0)
}

func pipe(t *testing.T, events []agent.Event, w io.Writer) error {
	t.Helper()
	ch := make(chan agent.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return NewMultiplexer(discardLogger()).Pipe(context.Background(), ch, w)
}

func TestPipeWritesOneJSONLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	events := []agent.Event{
		{Type: agent.EventToolCall, Name: "web_search", Args: map[string]interface{}{"query": "go releases"}},
		{Type: agent.EventToolResult, Name: "web_search", Content: "1. Go 1.24 released"},
		{Type: agent.EventLLMChunk, Content: "Go 1.24 "},
		{Type: agent.EventLLMChunk, Content: "is out."},
	}

	if err := pipe(t, events, &buf); err != nil {
		t.Fatalf("Pipe: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}

	var first struct {
		Type string                 `json:"type"`
		Name string                 `json:"name"`
		Args map[string]interface{} `json:"args"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 0 is not JSON: %v", err)
	}
	if first.Type != "tool_call" || first.Name != "web_search" || first.Args["query"] != "go releases" {
		t.Errorf("unexpected first line: %+v", first)
	}

	var third struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(lines[2]), &third); err != nil {
		t.Fatalf("line 2 is not JSON: %v", err)
	}
	if third.Type != "llm_chunk" || third.Content != "Go 1.24 " {
		t.Errorf("unexpected third line: %+v", third)
	}
}

func TestPipeSkipsEmptyChunksAndUnknownTypes(t *testing.T) {
	var buf bytes.Buffer
	events := []agent.Event{
		{Type: agent.EventLLMChunk, Content: ""},
		{Type: agent.EventType("debug"), Content: "internal"},
		{Type: agent.EventLLMChunk, Content: "visible"},
	}

	if err := pipe(t, events, &buf); err != nil {
		t.Fatalf("Pipe: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "visible") {
		t.Errorf("unexpected line: %s", lines[0])
	}
}

func TestPipeRendersErrorEvents(t *testing.T) {
	var buf bytes.Buffer
	events := []agent.Event{
		{Type: agent.EventError, Content: "the model is unavailable, please try again"},
	}

	if err := pipe(t, events, &buf); err != nil {
		t.Fatalf("Pipe: %v", err)
	}

	var line struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if line.Type != "error" {
		t.Errorf("type = %q, want error", line.Type)
	}
}

// failAfterWriter fails every write after the first n.
type failAfterWriter struct {
	n      int
	writes int
}

func (w *failAfterWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > w.n {
		return 0, errors.New("broken pipe")
	}
	return len(p), nil
}

func TestPipeDrainsAfterWriteFailure(t *testing.T) {
	ch := make(chan agent.Event, 4)
	ch <- agent.Event{Type: agent.EventLLMChunk, Content: "a"}
	ch <- agent.Event{Type: agent.EventLLMChunk, Content: "b"}
	ch <- agent.Event{Type: agent.EventLLMChunk, Content: "c"}
	close(ch)

	w := &failAfterWriter{n: 1}
	err := NewMultiplexer(discardLogger()).Pipe(context.Background(), ch, w)
	if err == nil {
		t.Fatal("expected the write error to surface")
	}

	// The channel must be fully consumed so the producer can finish.
	if _, ok := <-ch; ok {
		t.Fatal("channel not drained after write failure")
	}
	if w.writes != 2 {
		t.Errorf("writes = %d, want 2 (one success, one failure, then drain-only)", w.writes)
	}
}
