// Package session runs the customer-facing agent loop: one Session per
// car at the window, each with its own order ledger, conversation
// history, and tool registry.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"drivethru/internal/llm"
	"drivethru/internal/order"
	"drivethru/internal/tools"
)

// ErrTooManyToolRounds is returned when a single customer turn keeps
// requesting tool calls past the configured bound.
var ErrTooManyToolRounds = errors.New("too many tool rounds in one turn")

// Session is one conversation with one customer. Turns on the same
// session are serialized; distinct sessions are independent.
type Session struct {
	id       string
	client   llm.Client
	registry *tools.Registry
	ledger   *order.Ledger
	recorder *Recorder
	logger   *zap.Logger

	maxToolRounds int

	mu   sync.Mutex
	conv llm.Conversation
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Ledger exposes the session's order ledger, mainly for inspection.
func (s *Session) Ledger() *order.Ledger { return s.ledger }

// HandleTurn processes one customer utterance and returns the agent's
// spoken reply. Tool calls requested by the backend are executed against
// the session's ledger, their results fed back, and the backend
// re-invoked until it answers in plain text or the round bound is hit.
func (s *Session) HandleTurn(ctx context.Context, userText string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recorder.Record(Event{Type: EventUserTurn, Text: userText})
	s.conv = append(s.conv, llm.Message{Role: llm.RoleUser, Content: userText})

	for round := 0; round < s.maxToolRounds; round++ {
		reply, err := s.client.Chat(ctx, s.conv, s.registry.Specs())
		if err != nil {
			return "", fmt.Errorf("backend chat: %w", err)
		}

		s.conv = append(s.conv, *reply)

		if len(reply.ToolCalls) == 0 {
			s.recorder.Record(Event{Type: EventAssistantReply, Text: reply.Content})
			return reply.Content, nil
		}

		for _, call := range reply.ToolCalls {
			s.conv = append(s.conv, s.runToolCall(ctx, call))
		}
	}

	return "", fmt.Errorf("%w: %d", ErrTooManyToolRounds, s.maxToolRounds)
}

// runToolCall executes one requested tool and shapes its outcome as the
// tool-role message the backend expects. Tool refusals are relayed as
// content, not surfaced as turn errors: the agent speaks them.
func (s *Session) runToolCall(ctx context.Context, call llm.ToolCall) llm.Message {
	res, err := s.registry.Execute(ctx, call.Name, call.Args)

	ev := Event{Type: EventToolCall, Tool: call.Name, Args: call.Args}
	content := ""
	switch {
	case err != nil:
		ev.Err = err.Error()
		content = fmt.Sprintf("tool error: %v", err)
	default:
		content = res.Output
		if res.Err != nil {
			ev.Err = res.Err.Error()
		}
		if content == "" && res.Err != nil {
			content = fmt.Sprintf("tool error: %v", res.Err)
		}
	}
	ev.Text = content
	s.recorder.Record(ev)

	s.logger.Debug("tool call",
		zap.String("session_id", s.id),
		zap.String("tool", call.Name),
		zap.String("error", ev.Err))

	return llm.Message{
		Role:       llm.RoleTool,
		Content:    content,
		ToolCallID: call.ID,
	}
}

// History returns a copy of the conversation so far.
func (s *Session) History() llm.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Clone()
}

// Close releases the session's event log.
func (s *Session) Close() error {
	return s.recorder.Close()
}

func newSessionID() string {
	return uuid.NewString()
}
