package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"rag-chat-be/internal/constant"
	"rag-chat-be/pkg/llm"
)

var (
	// ErrTrackExhausted means the current tool already used its initial
	// attempt and its single retry.
	ErrTrackExhausted = errors.New("tool retry budget exhausted")

	// ErrTrackSwitch means the turn already committed to a different tool.
	// A failed document track in particular never falls back to web search.
	ErrTrackSwitch = errors.New("turn already committed to another tool track")
)

// Gate enforces the routing and retry policy in code, independent of what
// the model proposes: one tool track per turn, at most two invocations on
// that track, and no web fallback once the document track was entered.
type Gate struct {
	judge       llm.LLMProvider
	maxAttempts int
	logger      *log.Logger
}

func NewGate(judge llm.LLMProvider, logger *log.Logger) *Gate {
	return &Gate{
		judge:       judge,
		maxAttempts: 2,
		logger:      logger,
	}
}

// Admit decides whether one more invocation of toolName is allowed in this
// turn.
func (g *Gate) Admit(turn *TurnState, toolName string) error {
	if turn.Track() != "" && turn.Track() != toolName {
		return ErrTrackSwitch
	}
	if turn.Attempts() >= g.maxAttempts {
		return ErrTrackExhausted
	}
	return nil
}

// Usable judges whether a tool observation is good enough to answer from.
// Sentinel and empty observations are never usable. For real content the
// model acts as a relevance judge; if the judge itself fails, the content
// is assumed usable rather than burning the retry on a judge outage.
func (g *Gate) Usable(ctx context.Context, question, content string, found bool) bool {
	if !found {
		return false
	}
	if strings.TrimSpace(content) == "" {
		return false
	}

	verdict, err := g.judge.Generate(ctx,
		fmt.Sprintf(constant.RelevancePrompt, question, content),
		llm.WithTemperature(0))
	if err != nil {
		g.logger.Printf("[GATE] relevance judge failed, assuming content usable: %v", err)
		return true
	}
	return !strings.HasPrefix(strings.ToLower(strings.TrimSpace(verdict)), "no")
}
