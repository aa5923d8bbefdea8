package editor

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"flowcanvas/internal/flow"
)

const defaultMaxSessions = 256

// Manager owns the open editor sessions. The least recently used session
// is dropped once MaxSessions is reached.
type Manager struct {
	saver  Saver
	logger *slog.Logger
	now    func() time.Time
	seed   func() uint64

	mu       sync.Mutex
	sessions *lru.Cache[string, *Session]
}

type Config struct {
	MaxSessions int
}

func NewManager(saver Saver, logger *slog.Logger, cfg Config) (*Manager, error) {
	size := cfg.MaxSessions
	if size <= 0 {
		size = defaultMaxSessions
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.NewWithEvict[string, *Session](size, func(id string, _ *Session) {
		logger.Debug("editor session evicted", slog.String("session_id", id))
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Manager{
		saver:    saver,
		logger:   logger,
		now:      time.Now,
		seed:     rand.Uint64,
		sessions: cache,
	}, nil
}

// Open starts a session editing a copy of doc.
func (m *Manager) Open(doc *flow.Document) *Session {
	id := uuid.NewString()
	rng := rand.New(rand.NewPCG(m.seed(), m.seed()))
	s := newSession(id, doc, m.saver, m.logger, m.now, rng)

	m.mu.Lock()
	m.sessions.Add(id, s)
	m.mu.Unlock()
	m.logger.Info("editor session opened", slog.String("session_id", id))
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrSessionNotFound)
	}
	m.mu.Lock()
	s, ok := m.sessions.Get(id)
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close drops the session. Closing an unknown id is a no-op.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	removed := m.sessions.Remove(id)
	m.mu.Unlock()
	if removed {
		m.logger.Info("editor session closed", slog.String("session_id", id))
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions.Len()
}
