package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted Client for tests and offline runs. Responses
// are consumed FIFO; once the script is exhausted every call returns the
// fallback text. Safe for concurrent use.
type MockClient struct {
	mu       sync.Mutex
	script   []*Message
	fallback string

	// Calls records every conversation passed to Chat, for assertions.
	Calls []Conversation
}

// NewMockClient creates a mock with the given fallback reply.
func NewMockClient(fallback string) *MockClient {
	if fallback == "" {
		fallback = "Okay."
	}
	return &MockClient{fallback: fallback}
}

// Enqueue appends a scripted response.
func (c *MockClient) Enqueue(msg *Message) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, msg)
	return c
}

// EnqueueText appends a plain assistant reply.
func (c *MockClient) EnqueueText(text string) *MockClient {
	return c.Enqueue(&Message{Role: RoleAssistant, Content: text})
}

// EnqueueToolCall appends an assistant reply that proposes one tool call.
func (c *MockClient) EnqueueToolCall(id, name string, args map[string]any) *MockClient {
	return c.Enqueue(&Message{
		Role:      RoleAssistant,
		ToolCalls: []ToolCall{{ID: id, Name: name, Args: args}},
	})
}

// Chat returns the next scripted response, or the fallback.
func (c *MockClient) Chat(ctx context.Context, conv Conversation, tools []ToolSpec) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.Calls = append(c.Calls, conv.Clone())

	if len(c.script) > 0 {
		msg := c.script[0]
		c.script = c.script[1:]
		return msg, nil
	}
	return &Message{Role: RoleAssistant, Content: c.fallback}, nil
}

// CallCount returns how many times Chat was invoked.
func (c *MockClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}
