// Package llm defines the generation backend interface the agent delegates
// to, plus the message types exchanged with it. Concrete clients are
// selected by constructor injection at startup; the rest of the system only
// sees the Client interface.
package llm

import (
	"context"
	"strings"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is one tool invocation proposed by the backend.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Message is one role-tagged conversation entry.
type Message struct {
	Role    string
	Content string

	// ToolCalls is set on assistant messages that propose tool use.
	ToolCalls []ToolCall

	// ToolCallID links a tool-result message to the call it answers.
	ToolCallID string
}

// Conversation is an ordered list of messages. It has value semantics:
// wrappers that need to modify it work on a copy.
type Conversation []Message

// Clone returns a deep-enough copy; messages are values, so copying the
// slice is sufficient for insertion without aliasing the original.
func (c Conversation) Clone() Conversation {
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// LastUserText returns the content of the most recent user message, or ""
// when the conversation has none.
func (c Conversation) LastUserText() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleUser {
			return strings.TrimSpace(c[i].Content)
		}
	}
	return ""
}

// ToolSpec describes one callable tool to the backend.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Client is the generation backend. Chat receives the full conversation
// and the available tools and returns the backend's next message, which
// may carry tool calls. Implementations must be safe for concurrent use
// by independent sessions.
type Client interface {
	Chat(ctx context.Context, conv Conversation, tools []ToolSpec) (*Message, error)
}
