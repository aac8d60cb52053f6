package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kinet-dev/kinet/pkg/protocol"
)

// sweepInterval is how often the manager scans for expired sessions.
const sweepInterval = 10 * time.Second

// Manager tracks live sessions: attached ones and detached ones waiting
// inside the resume window. A sweeper closes detached sessions whose window
// has passed and forgets closed ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	detached map[string]detachment

	cfg    Config
	logger *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// detachment records when a session lost (or never gained) its connection.
// wasAttached separates reconnects from first claims of a pre-rendered
// session, so the resume hook counts only true reattachments.
type detachment struct {
	at          time.Time
	wasAttached bool
}

func newManager(cfg Config, logger *slog.Logger) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		detached: make(map[string]detachment),
		cfg:      cfg,
		logger:   logger.With("component", "manager"),
		done:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Put registers a session, enforcing the session cap. The session starts
// inside the resume window: one created for a server-rendered page whose
// client never connects ages out like any detached session.
func (m *Manager) Put(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.cfg.MaxSessions {
		return ErrMaxSessionsReached
	}
	m.sessions[s.ID] = s
	m.detached[s.ID] = detachment{at: time.Now()}
	return nil
}

// Claim marks the session as connection-backed, ending the window started
// by Put. Used when a fresh socket attaches without going through Resume.
func (m *Manager) Claim(id string) {
	m.mu.Lock()
	delete(m.detached, id)
	m.mu.Unlock()
}

// Get returns the session by ID, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Detach drops the session's connection and starts its resume window.
func (m *Manager) Detach(s *Session) {
	s.Detach()

	m.mu.Lock()
	m.detached[s.ID] = detachment{at: time.Now(), wasAttached: true}
	m.mu.Unlock()

	m.cfg.Hooks.sessionDetached()
	m.logger.Debug("session entered resume window",
		"session_id", s.ID,
		"window", m.cfg.ResumeWindow)
}

// Resume returns the session if it is still resumable, clearing its
// detachment. Unknown IDs yield ErrSessionNotFound; sessions that closed or
// aged out yield ErrSessionExpired.
func (m *Manager) Resume(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.IsClosed() {
		delete(m.sessions, id)
		delete(m.detached, id)
		return nil, ErrSessionExpired
	}
	if d, detached := m.detached[id]; detached {
		if time.Since(d.at) > m.cfg.ResumeWindow {
			delete(m.sessions, id)
			delete(m.detached, id)
			m.cfg.Hooks.sessionExpired()
			go s.CloseWithReason(protocol.CloseSessionExpired, "resume window passed")
			return nil, ErrSessionExpired
		}
		delete(m.detached, id)
		if d.wasAttached {
			m.cfg.Hooks.sessionResumed()
		}
	}
	return s, nil
}

// Remove forgets the session without closing it.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.detached, id)
}

// CloseAll closes every session with the given reason.
func (m *Manager) CloseAll(reason protocol.CloseReason, message string) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.detached = make(map[string]detachment)
	m.mu.Unlock()

	for _, s := range sessions {
		s.CloseWithReason(reason, message)
	}
}

// Stop ends the sweeper.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})
}

func (m *Manager) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweepOnce(time.Now())
		case <-m.done:
			return
		}
	}
}

// sweepOnce closes detached sessions past the resume window and forgets
// sessions closed elsewhere.
func (m *Manager) sweepOnce(now time.Time) {
	m.mu.Lock()
	var expired []*Session
	for id, d := range m.detached {
		s, ok := m.sessions[id]
		if !ok {
			delete(m.detached, id)
			continue
		}
		if now.Sub(d.at) > m.cfg.ResumeWindow {
			expired = append(expired, s)
			delete(m.sessions, id)
			delete(m.detached, id)
		}
	}
	for id, s := range m.sessions {
		if s.IsClosed() {
			delete(m.sessions, id)
			delete(m.detached, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.logger.Info("closing expired session", "session_id", s.ID)
		m.cfg.Hooks.sessionExpired()
		s.CloseWithReason(protocol.CloseSessionExpired, "resume window passed")
	}
}
