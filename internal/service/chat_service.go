package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"rag-chat-be/internal/constant"
	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
	"rag-chat-be/pkg/agent"
	"rag-chat-be/pkg/agent/stream"
	"rag-chat-be/pkg/llm"

	"github.com/google/uuid"
)

type IChatService interface {
	// Authorize verifies the thread exists and belongs to the user. It is
	// called before the response stream opens, so unauthorized callers get
	// a proper status code instead of a broken stream.
	Authorize(ctx context.Context, userId, threadId uuid.UUID) error

	// StreamTurn runs one agent turn and writes NDJSON events to w.
	StreamTurn(ctx context.Context, userId, threadId uuid.UUID, req *dto.PromptRequest, w io.Writer)

	// StreamDirect answers a prompt without thread state or tools, for
	// unauthenticated callers.
	StreamDirect(ctx context.Context, req *dto.PromptRequest, w io.Writer)

	History(ctx context.Context, userId, threadId uuid.UUID) ([]*dto.ChatMessageResponse, error)
}

type chatService struct {
	loop        *agent.Loop
	mux         *stream.Multiplexer
	llmProvider llm.LLMProvider
	uowFactory  unitofwork.RepositoryFactory
	logger      logger.ILogger

	// threadLocks serializes turns per thread so concurrent prompts cannot
	// interleave checkpoint writes. Entries are never evicted; a mutex per
	// live thread is cheap and eviction would reintroduce the race.
	threadLocks sync.Map
}

func NewChatService(
	loop *agent.Loop,
	mux *stream.Multiplexer,
	llmProvider llm.LLMProvider,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IChatService {
	return &chatService{
		loop:        loop,
		mux:         mux,
		llmProvider: llmProvider,
		uowFactory:  uowFactory,
		logger:      log,
	}
}

func (s *chatService) Authorize(ctx context.Context, userId, threadId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: threadId})
	if err != nil {
		return err
	}
	if thread == nil {
		return serverutils.NewNotFound("Thread not found")
	}
	if thread.UserId != userId {
		return serverutils.NewForbidden("You do not own this thread")
	}
	return nil
}

func (s *chatService) StreamTurn(ctx context.Context, userId, threadId uuid.UUID, req *dto.PromptRequest, w io.Writer) {
	lock := s.lockFor(threadId)
	lock.Lock()
	defer lock.Unlock()

	// The turn must run to completion even if the caller disconnects
	// mid-stream, otherwise the checkpoint would silently lose the turn.
	turnCtx := context.WithoutCancel(ctx)

	events := make(chan agent.Event, 16)
	done := make(chan error, 1)
	go func() {
		done <- s.loop.RunTurn(turnCtx, agent.TurnRequest{
			ThreadID: threadId,
			UserID:   userId,
			Prompt:   req.Prompt,
			Model:    req.ModelName,
		}, events)
	}()

	if err := s.mux.Pipe(ctx, events, w); err != nil {
		s.logger.Warn("chat", "client stream closed early", map[string]interface{}{
			"thread_id": threadId.String(),
			"error":     err.Error(),
		})
	}
	if err := <-done; err != nil {
		s.logger.Error("chat", "agent turn failed", map[string]interface{}{
			"thread_id": threadId.String(),
			"user_id":   userId.String(),
			"error":     err.Error(),
		})
	}
}

func (s *chatService) StreamDirect(ctx context.Context, req *dto.PromptRequest, w io.Writer) {
	events := make(chan agent.Event, 16)

	go func() {
		defer close(events)

		var opts []llm.Option
		if req.ModelName != "" {
			opts = append(opts, llm.WithModel(req.ModelName))
		}
		history := []llm.Message{
			{Role: "system", Content: constant.AnswerSystemPrompt},
			{Role: "user", Content: req.Prompt},
		}

		chunks, err := s.llmProvider.ChatStream(ctx, history, opts...)
		if err != nil {
			events <- agent.Event{Type: agent.EventError, Content: "the model is unavailable, please try again"}
			return
		}
		for chunk := range chunks {
			if chunk.Err != nil {
				events <- agent.Event{Type: agent.EventError, Content: "the model is unavailable, please try again"}
				return
			}
			if chunk.Content == "" {
				continue
			}
			events <- agent.Event{Type: agent.EventLLMChunk, Content: chunk.Content}
		}
	}()

	if err := s.mux.Pipe(ctx, events, w); err != nil {
		s.logger.Warn("chat", "client stream closed early", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *chatService) History(ctx context.Context, userId, threadId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	if err := s.Authorize(ctx, userId, threadId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	row, err := uow.CheckpointRepository().FindByThreadAndUser(ctx, threadId, userId)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, serverutils.NewNotFound("No conversation history for this thread")
	}

	var messages []agent.Message
	if len(row.Messages) > 0 {
		if err := json.Unmarshal(row.Messages, &messages); err != nil {
			return nil, err
		}
	}

	// Tool calls and tool results stay internal, the visible history is
	// the human/ai exchange only.
	res := make([]*dto.ChatMessageResponse, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case constant.ChatMessageRoleHuman:
			res = append(res, &dto.ChatMessageResponse{Role: msg.Role, Content: msg.Content})
		case constant.ChatMessageRoleAI:
			if msg.ToolName != "" {
				continue
			}
			res = append(res, &dto.ChatMessageResponse{Role: msg.Role, Content: msg.Content})
		}
	}
	return res, nil
}

func (s *chatService) lockFor(threadId uuid.UUID) *sync.Mutex {
	lock, _ := s.threadLocks.LoadOrStore(threadId, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
