package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenAIClient_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("got %d messages, want 2", len(req.Messages))
		}
		if len(req.Tools) != 1 || req.Tools[0].Function.Name != "add_item" {
			t.Errorf("tools not forwarded: %+v", req.Tools)
		}

		resp := map[string]any{
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"role":    "assistant",
					"content": "",
					"tool_calls": []map[string]any{{
						"id":   "call-1",
						"type": "function",
						"function": map[string]any{
							"name":      "add_item",
							"arguments": `{"item_name":"Big Mac","quantity":2}`,
						},
					}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewOpenAIClientWithConfig(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})

	conv := Conversation{
		{Role: RoleSystem, Content: "You take orders."},
		{Role: RoleUser, Content: "two big macs"},
	}
	tools := []ToolSpec{{Name: "add_item", Description: "add an item"}}

	msg, err := client.Chat(context.Background(), conv, tools)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(msg.ToolCalls))
	}
	tc := msg.ToolCalls[0]
	if tc.Name != "add_item" {
		t.Errorf("tool call name = %q", tc.Name)
	}
	if got := tc.Args["item_name"]; got != "Big Mac" {
		t.Errorf("item_name arg = %v", got)
	}
	if got, ok := tc.Args["quantity"].(float64); !ok || got != 2 {
		t.Errorf("quantity arg = %v", tc.Args["quantity"])
	}
}

func TestOpenAIClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewOpenAIClientWithConfig(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})

	_, err := client.Chat(context.Background(), Conversation{{Role: RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("Chat() succeeded, want error")
	}
}

func TestOpenAIClient_NoAPIKey(t *testing.T) {
	client := NewOpenAIClient("")
	_, err := client.Chat(context.Background(), Conversation{{Role: RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("Chat() without API key succeeded, want error")
	}
}

func TestConversation_LastUserText(t *testing.T) {
	conv := Conversation{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "  second  "},
	}
	if got := conv.LastUserText(); got != "second" {
		t.Fatalf("LastUserText() = %q, want %q", got, "second")
	}

	if got := (Conversation{}).LastUserText(); got != "" {
		t.Fatalf("LastUserText() on empty = %q, want empty", got)
	}
}

func TestConversation_CloneDoesNotAliasInsertions(t *testing.T) {
	conv := Conversation{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "hello"},
	}
	clone := conv.Clone()
	clone[0].Content = "changed"

	if conv[0].Content != "persona" {
		t.Fatal("Clone() aliased the original conversation")
	}
}

func TestMockClient_ScriptThenFallback(t *testing.T) {
	mock := NewMockClient("fallback")
	mock.EnqueueText("scripted")

	msg, err := mock.Chat(context.Background(), Conversation{{Role: RoleUser, Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if msg.Content != "scripted" {
		t.Fatalf("first reply = %q, want scripted", msg.Content)
	}

	msg, _ = mock.Chat(context.Background(), Conversation{{Role: RoleUser, Content: "hi"}}, nil)
	if msg.Content != "fallback" {
		t.Fatalf("second reply = %q, want fallback", msg.Content)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("CallCount() = %d, want 2", mock.CallCount())
	}
}
