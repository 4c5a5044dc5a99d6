package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"rag-chat-be/internal/constant"
	"rag-chat-be/pkg/agent/tool"
	"rag-chat-be/pkg/llm"
)

// TurnRequest is one user turn against a thread.
type TurnRequest struct {
	ThreadID uuid.UUID
	UserID   uuid.UUID
	Prompt   string
	Model    string // optional per-turn model override
}

// Loop runs the per-turn agent: load the checkpoint, decide between
// answering from memory and invoking a tool, observe tool output under the
// gate's policy, stream the final answer and save the extended transcript.
type Loop struct {
	provider     llm.LLMProvider
	tools        map[string]tool.Tool
	gate         *Gate
	checkpointer Checkpointer
	logger       *log.Logger
}

func NewLoop(provider llm.LLMProvider, tools []tool.Tool, gate *Gate, checkpointer Checkpointer, logger *log.Logger) *Loop {
	byName := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}
	return &Loop{
		provider:     provider,
		tools:        byName,
		gate:         gate,
		checkpointer: checkpointer,
		logger:       logger,
	}
}

// RunTurn executes one turn, emitting events as it goes, and closes the
// events channel when the turn is over. The checkpoint is saved only after
// the answer completed; a model failure mid-turn leaves the stored
// transcript exactly as it was before the turn.
func (l *Loop) RunTurn(ctx context.Context, req TurnRequest, events chan<- Event) error {
	defer close(events)

	checkpoint, err := l.checkpointer.Load(ctx, req.ThreadID, req.UserID)
	if errors.Is(err, ErrCheckpointNotFound) {
		checkpoint = &Checkpoint{ThreadID: req.ThreadID, UserID: req.UserID}
	} else if err != nil {
		events <- Event{Type: EventError, Content: "failed to load conversation state"}
		return fmt.Errorf("load checkpoint: %w", err)
	}

	checkpoint.Messages = append(checkpoint.Messages, Message{
		Role:    constant.ChatMessageRoleHuman,
		Content: req.Prompt,
	})

	turn := NewTurnState()
	answer, err := l.execute(ctx, req, checkpoint, turn, events)
	if err != nil {
		events <- Event{Type: EventError, Content: "the model is unavailable, please try again"}
		return err
	}

	checkpoint.Messages = append(checkpoint.Messages, Message{
		Role:    constant.ChatMessageRoleAI,
		Content: answer,
	})
	checkpoint.Version++
	checkpoint.RetryCount = turn.Retries()

	if err := l.checkpointer.Save(ctx, checkpoint); err != nil {
		events <- Event{Type: EventError, Content: "failed to save conversation state"}
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (l *Loop) execute(ctx context.Context, req TurnRequest, checkpoint *Checkpoint, turn *TurnState, events chan<- Event) (string, error) {
	opts := l.modelOptions(req)

	decision, err := l.reason(ctx, checkpoint.Messages, opts)
	if err != nil {
		return "", fmt.Errorf("reason: %w", err)
	}
	if decision.Action != ActionTool {
		return l.answer(ctx, checkpoint.Messages, events, opts)
	}

	selected, ok := l.tools[decision.Tool]
	if !ok {
		l.logger.Printf("[LOOP] model selected unknown tool %q, answering from memory", decision.Tool)
		return l.answer(ctx, checkpoint.Messages, events, opts)
	}

	query := decision.Query
	if query == "" {
		query = req.Prompt
	}
	inv := tool.Invocation{ThreadID: req.ThreadID, UserID: req.UserID}

	for {
		if err := l.gate.Admit(turn, selected.Name()); err != nil {
			break
		}
		turn.RecordAttempt(selected.Name())

		events <- Event{
			Type: EventToolCall,
			Name: selected.Name(),
			Args: map[string]interface{}{"query": query},
		}
		checkpoint.Messages = append(checkpoint.Messages, Message{
			Role:     constant.ChatMessageRoleAI,
			ToolName: selected.Name(),
			ToolArgs: map[string]interface{}{"query": query},
		})

		observation, found := selected.Invoke(ctx, query, inv)
		events <- Event{Type: EventToolResult, Name: selected.Name(), Content: observation}
		checkpoint.Messages = append(checkpoint.Messages, Message{
			Role:     constant.ChatMessageRoleTool,
			Content:  observation,
			ToolName: selected.Name(),
		})

		if l.gate.Usable(ctx, req.Prompt, observation, found) {
			return l.answer(ctx, checkpoint.Messages, events, opts)
		}

		if l.gate.Admit(turn, selected.Name()) != nil {
			break
		}
		turn.RecordRetry()
		query = l.reformulate(ctx, req.Prompt, query, opts)
	}

	// Track exhausted without usable content. The document track ends in
	// the fixed refusal; it never falls back to web search. A dry web
	// track still gets a best-effort answer from whatever is on record.
	if turn.Track() == constant.ToolNameRetrieveDocuments {
		events <- Event{Type: EventLLMChunk, Content: constant.RefusalAnswer}
		return constant.RefusalAnswer, nil
	}
	return l.answer(ctx, checkpoint.Messages, events, opts)
}

func (l *Loop) reason(ctx context.Context, messages []Message, opts []llm.Option) (*Decision, error) {
	raw, err := l.provider.Chat(ctx,
		renderTranscript(constant.DecisionSystemPrompt, messages),
		append(opts, llm.WithTemperature(0))...)
	if err != nil {
		return nil, err
	}

	decision, err := ParseDecision(raw)
	if err != nil {
		l.logger.Printf("[LOOP] unparseable decision, answering from memory: %v", err)
		return &Decision{Action: ActionAnswer}, nil
	}
	return decision, nil
}

func (l *Loop) answer(ctx context.Context, messages []Message, events chan<- Event, opts []llm.Option) (string, error) {
	stream, err := l.provider.ChatStream(ctx,
		renderTranscript(constant.AnswerSystemPrompt, messages), opts...)
	if err != nil {
		return "", fmt.Errorf("open answer stream: %w", err)
	}

	var sb strings.Builder
	for chunk := range stream {
		if chunk.Err != nil {
			return "", fmt.Errorf("answer stream: %w", chunk.Err)
		}
		if chunk.Content == "" {
			continue
		}
		sb.WriteString(chunk.Content)
		events <- Event{Type: EventLLMChunk, Content: chunk.Content}
	}
	return sb.String(), nil
}

// reformulate rewrites a failed query for the single retry. Any failure
// falls back to the original query; the retry happens regardless.
func (l *Loop) reformulate(ctx context.Context, question, failedQuery string, opts []llm.Option) string {
	rewritten, err := l.provider.Generate(ctx,
		fmt.Sprintf(constant.ReformulatePrompt, failedQuery, question),
		append(opts, llm.WithTemperature(0))...)
	if err != nil {
		l.logger.Printf("[LOOP] query reformulation failed, retrying original query: %v", err)
		return failedQuery
	}
	rewritten = strings.Trim(strings.TrimSpace(rewritten), `"`)
	if rewritten == "" {
		return failedQuery
	}
	return rewritten
}

func (l *Loop) modelOptions(req TurnRequest) []llm.Option {
	if req.Model == "" {
		return nil
	}
	return []llm.Option{llm.WithModel(req.Model)}
}

// renderTranscript converts the stored transcript into provider messages,
// flattening tool calls and tool results into text the model can read.
func renderTranscript(systemPrompt string, messages []Message) []llm.Message {
	rendered := make([]llm.Message, 0, len(messages)+1)
	rendered = append(rendered, llm.Message{Role: "system", Content: systemPrompt})

	for _, msg := range messages {
		switch msg.Role {
		case constant.ChatMessageRoleHuman:
			rendered = append(rendered, llm.Message{Role: "user", Content: msg.Content})
		case constant.ChatMessageRoleAI:
			content := msg.Content
			if content == "" && msg.ToolName != "" {
				content = fmt.Sprintf("[calling tool %s: %v]", msg.ToolName, msg.ToolArgs["query"])
			}
			rendered = append(rendered, llm.Message{Role: "assistant", Content: content})
		case constant.ChatMessageRoleTool:
			rendered = append(rendered, llm.Message{
				Role:    "user",
				Content: fmt.Sprintf("[%s result]\n%s", msg.ToolName, msg.Content),
			})
		}
	}
	return rendered
}
