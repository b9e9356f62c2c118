package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is one line in a session's events.jsonl.
type Event struct {
	Time    time.Time      `json:"time"`
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Tool    string         `json:"tool,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
	Err     string         `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Event types written by the session.
const (
	EventUserTurn       = "user_turn"
	EventAssistantReply = "assistant_reply"
	EventToolCall       = "tool_call"
	EventOrderComplete  = "order_completed"
)

// Recorder appends session events to <dir>/<session-id>/events.jsonl.
// A nil Recorder is valid and records nothing.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	logger *zap.Logger
}

// NewRecorder creates the session directory and opens the event log for
// appending.
func NewRecorder(dir, sessionID string, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sessionDir := filepath.Join(dir, sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	path := filepath.Join(sessionDir, "events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	return &Recorder{file: f, enc: json.NewEncoder(f), logger: logger}, nil
}

// Record appends one event. Failures are logged, not returned: losing an
// event line must not fail the customer turn.
func (r *Recorder) Record(ev Event) {
	if r == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(ev); err != nil {
		r.logger.Warn("failed to record session event",
			zap.String("type", ev.Type), zap.Error(err))
	}
}

// Close flushes and closes the event log.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
