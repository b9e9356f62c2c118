package session

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"drivethru/internal/config"
	"drivethru/internal/llm"
	"drivethru/internal/menu"
	"drivethru/internal/order"
	"drivethru/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const sessionMenuJSON = `{
  "Beef & Pork": {
    "Big Mac": {
      "available_as_base": true,
      "variations": ["No Pickles", "Extra Cheese"]
    },
    "Cheeseburger": {
      "available_as_base": true,
      "variations": []
    }
  }
}`

type managerFixture struct {
	manager *Manager
	backend *llm.MockClient
	archive *store.Archive
	outDir  string
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	catalog, err := menu.Parse([]byte(sessionMenuJSON))
	require.NoError(t, err)

	dir := t.TempDir()
	archive, err := store.OpenArchive(filepath.Join(dir, "orders.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })

	cfg := config.DefaultConfig()
	cfg.Orders.OutputDir = filepath.Join(dir, "output")

	backend := llm.NewMockClient("Anything else?")
	m := NewManager(cfg, catalog, backend, archive, nil)
	t.Cleanup(func() { m.Close() })

	return &managerFixture{manager: m, backend: backend, archive: archive, outDir: cfg.Orders.OutputDir}
}

func TestHandleTurn_PlainReply(t *testing.T) {
	f := newManagerFixture(t)
	s, err := f.manager.NewSession()
	require.NoError(t, err)

	f.backend.EnqueueText("We have burgers and more. What sounds good?")

	reply, err := s.HandleTurn(context.Background(), "what do you have?")
	require.NoError(t, err)
	assert.Equal(t, "We have burgers and more. What sounds good?", reply)

	hist := s.History()
	require.Len(t, hist, 3) // persona, user, assistant
	assert.Equal(t, llm.RoleSystem, hist[0].Role)
	assert.Equal(t, llm.RoleUser, hist[1].Role)
	assert.Equal(t, llm.RoleAssistant, hist[2].Role)
}

func TestHandleTurn_InterceptSkipsBackend(t *testing.T) {
	f := newManagerFixture(t)
	s, err := f.manager.NewSession()
	require.NoError(t, err)

	reply, err := s.HandleTurn(context.Background(), "hello")
	require.NoError(t, err)
	assert.Contains(t, reply, "welcome to the drive-thru")
	assert.Equal(t, 0, f.backend.CallCount())
}

func TestHandleTurn_ToolCallLoop(t *testing.T) {
	f := newManagerFixture(t)
	s, err := f.manager.NewSession()
	require.NoError(t, err)

	f.backend.EnqueueToolCall("call-1", "add_item", map[string]any{
		"item_name": "Big Mac",
		"modifiers": []any{"No Pickles"},
	})
	f.backend.EnqueueText("One Big Mac, no pickles. Anything else?")

	reply, err := s.HandleTurn(context.Background(), "big mac no pickles please")
	require.NoError(t, err)
	assert.Equal(t, "One Big Mac, no pickles. Anything else?", reply)

	lines, total := s.Ledger().Summary()
	require.Len(t, lines, 1)
	assert.Equal(t, "Big Mac", lines[0].Item.Name)
	assert.Equal(t, 1, total)

	// Second backend call must carry the tool result.
	hist := s.History()
	var sawToolResult bool
	for _, msg := range hist {
		if msg.Role == llm.RoleTool && msg.ToolCallID == "call-1" {
			sawToolResult = true
			assert.Contains(t, msg.Content, "Big Mac")
		}
	}
	assert.True(t, sawToolResult, "tool result message missing from history")
}

func TestHandleTurn_ToolRefusalIsSpokenNotFatal(t *testing.T) {
	f := newManagerFixture(t)
	s, err := f.manager.NewSession()
	require.NoError(t, err)

	f.backend.EnqueueToolCall("call-1", "add_item", map[string]any{"item_name": "sushi"})
	f.backend.EnqueueText("Sorry, we don't have that. Anything from the menu?")

	reply, err := s.HandleTurn(context.Background(), "one sushi roll")
	require.NoError(t, err)
	assert.Contains(t, reply, "Anything from the menu?")

	lines, _ := s.Ledger().Summary()
	assert.Empty(t, lines)
}

func TestHandleTurn_RoundBound(t *testing.T) {
	f := newManagerFixture(t)
	f.manager.cfg.Agent.MaxToolRounds = 2

	s, err := f.manager.NewSession()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		f.backend.EnqueueToolCall("call-x", "get_order_summary", map[string]any{})
	}

	_, err = s.HandleTurn(context.Background(), "hm")
	require.ErrorIs(t, err, ErrTooManyToolRounds)
}

func TestCompleteOrder_Archives(t *testing.T) {
	f := newManagerFixture(t)
	s, err := f.manager.NewSession()
	require.NoError(t, err)

	f.backend.EnqueueToolCall("call-1", "add_item", map[string]any{"item_name": "Cheeseburger", "quantity": 2})
	f.backend.EnqueueText("Two cheeseburgers. Anything else?")
	_, err = s.HandleTurn(context.Background(), "two cheeseburgers")
	require.NoError(t, err)

	f.backend.EnqueueToolCall("call-2", "complete_order", map[string]any{})
	f.backend.EnqueueText("All set, pull forward please!")
	reply, err := s.HandleTurn(context.Background(), "that is everything")
	require.NoError(t, err)
	assert.Equal(t, "All set, pull forward please!", reply)

	rec, err := f.archive.Get(s.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, rec.TotalUnits())
	assert.Equal(t, order.StatusCompleted, s.Ledger().Status())
}

func TestSessionsAreIndependent(t *testing.T) {
	f := newManagerFixture(t)

	s1, err := f.manager.NewSession()
	require.NoError(t, err)
	s2, err := f.manager.NewSession()
	require.NoError(t, err)
	require.NotEqual(t, s1.ID(), s2.ID())

	f.backend.EnqueueToolCall("call-1", "add_item", map[string]any{"item_name": "Big Mac"})
	f.backend.EnqueueText("Got it.")
	_, err = s1.HandleTurn(context.Background(), "big mac")
	require.NoError(t, err)

	lines, _ := s2.Ledger().Summary()
	assert.Empty(t, lines, "second session must not see first session's order")
}

func TestRecorder_WritesEvents(t *testing.T) {
	f := newManagerFixture(t)
	s, err := f.manager.NewSession()
	require.NoError(t, err)

	f.backend.EnqueueText("Sure thing.")
	_, err = s.HandleTurn(context.Background(), "do you have shakes?")
	require.NoError(t, err)
	require.NoError(t, f.manager.EndSession(s.ID()))

	path := filepath.Join(f.outDir, s.ID(), "events.jsonl")
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var types []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		require.False(t, ev.Time.IsZero())
		types = append(types, ev.Type)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{EventUserTurn, EventAssistantReply}, types)
}

func TestManager_GetAndEnd(t *testing.T) {
	f := newManagerFixture(t)

	s, err := f.manager.NewSession()
	require.NoError(t, err)

	got, ok := f.manager.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)

	require.NoError(t, f.manager.EndSession(s.ID()))
	_, ok = f.manager.Get(s.ID())
	assert.False(t, ok)

	// Ending twice is harmless.
	assert.NoError(t, f.manager.EndSession(s.ID()))
}
