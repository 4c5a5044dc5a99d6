package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rag-chat-be/pkg/llm"
)

func TestChatReturnsMessageContent(t *testing.T) {
	var got ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "pong"},
			Done:    true,
		})
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "llama3")
	answer, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "ping"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer != "pong" {
		t.Errorf("answer = %q, want pong", answer)
	}
	if got.Model != "llama3" {
		t.Errorf("model = %q, want llama3", got.Model)
	}
	if got.Stream {
		t.Error("stream must be false for Chat")
	}
}

func TestChatMapsModelRoleToAssistant(t *testing.T) {
	var got ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(ollamaChatResponse{Done: true})
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "llama3")
	history := []llm.Message{
		{Role: "user", Content: "hi"},
		{Role: "model", Content: "hello"},
	}
	if _, err := p.Chat(context.Background(), history, llm.WithModel("mistral")); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.Messages[1].Role != "assistant" {
		t.Errorf("role = %q, want assistant", got.Messages[1].Role)
	}
	if got.Model != "mistral" {
		t.Errorf("model = %q, want the override", got.Model)
	}
}

func TestChatStreamAssemblesChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lines := []ollamaChatResponse{
			{Message: ollamaMessage{Content: "Hello"}},
			{Message: ollamaMessage{Content: ", "}},
			{Message: ollamaMessage{Content: ""}},
			{Message: ollamaMessage{Content: "world"}},
			{Done: true},
		}
		enc := json.NewEncoder(w)
		for _, line := range lines {
			enc.Encode(line)
		}
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "llama3")
	stream, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "greet me"}})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}

	var sb strings.Builder
	var chunks int
	for chunk := range stream {
		if chunk.Err != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Err)
		}
		chunks++
		sb.WriteString(chunk.Content)
	}
	if chunks != 3 {
		t.Errorf("got %d chunks, want 3 (empty content skipped)", chunks)
	}
	if sb.String() != "Hello, world" {
		t.Errorf("assembled = %q", sb.String())
	}
}

func TestChatStreamStopsAtDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"only"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"content":""},"done":true}`)
		fmt.Fprintln(w, `{"message":{"content":"never delivered"},"done":false}`)
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "llama3")
	stream, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "q"}})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}

	var parts []string
	for chunk := range stream {
		if chunk.Err != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Err)
		}
		parts = append(parts, chunk.Content)
	}
	if len(parts) != 1 || parts[0] != "only" {
		t.Errorf("parts = %q, want [only]", parts)
	}
}

func TestChatSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "missing-model")
	if _, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "q"}}); err == nil {
		t.Fatal("expected error from non-200 response")
	}
}
