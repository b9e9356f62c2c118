package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"drivethru/internal/config"
	"drivethru/internal/grounding"
	"drivethru/internal/llm"
	"drivethru/internal/menu"
	"drivethru/internal/order"
	"drivethru/internal/store"
	"drivethru/internal/tools"
)

// Manager creates sessions over a shared catalog, backend, and archive.
type Manager struct {
	cfg     *config.Config
	catalog *menu.Menu
	backend llm.Client
	archive *store.Archive
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager wires the shared collaborators. archive may be nil to skip
// persistence; logger may be nil to disable logging.
func NewManager(cfg *config.Config, catalog *menu.Menu, backend llm.Client, archive *store.Archive, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:      cfg,
		catalog:  catalog,
		backend:  backend,
		archive:  archive,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// NewSession starts a session: fresh ledger, persona-seeded history, a
// grounded client over the shared backend, and the order tool registry
// closed over that ledger.
func (m *Manager) NewSession() (*Session, error) {
	id := newSessionID()

	recorder, err := NewRecorder(m.cfg.Orders.OutputDir, id, m.logger)
	if err != nil {
		return nil, fmt.Errorf("starting session %s: %w", id, err)
	}

	ledger := order.New(id, m.catalog)

	var interceptor *grounding.Interceptor
	if m.cfg.Intercept.Enabled {
		interceptor = grounding.NewInterceptor(m.cfg.Intercept.Phrases, m.cfg.Intercept.Response)
	}
	grounder := grounding.NewGrounder(m.catalog,
		m.cfg.Grounding.MaxContextItems, m.cfg.Grounding.Threshold)
	client := grounding.NewWrapper(m.backend, grounder, interceptor)

	registry := tools.NewOrderRegistry(tools.OrderToolsConfig{
		Menu:   m.catalog,
		Ledger: ledger,
		OnComplete: func(rec *order.Record) error {
			recorder.Record(Event{
				Type: EventOrderComplete,
				Details: map[string]any{
					"session_id":  rec.SessionID,
					"total_units": rec.TotalUnits(),
					"lines":       len(rec.Items),
				},
			})
			if m.archive == nil {
				return nil
			}
			return m.archive.Save(rec)
		},
	})

	s := &Session{
		id:            id,
		client:        client,
		registry:      registry,
		ledger:        ledger,
		recorder:      recorder,
		logger:        m.logger,
		maxToolRounds: m.cfg.Agent.MaxToolRounds,
		conv: llm.Conversation{
			{Role: llm.RoleSystem, Content: m.cfg.Agent.Persona},
		},
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("session started", zap.String("session_id", id))
	return s, nil
}

// Get returns a live session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// EndSession closes a session and forgets it.
func (m *Manager) EndSession(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	m.logger.Info("session ended", zap.String("session_id", id))
	return s.Close()
}

// Close ends every live session.
func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var firstErr error
	for _, s := range sessions {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
