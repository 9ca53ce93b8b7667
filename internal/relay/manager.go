package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/hirect/pkg/Logger"
)

// Manager tracks live sessions so the process has one explicit view of its
// connections: stats, idle reaping and close-all on shutdown. Sessions own
// their own in-flight state; the manager never touches request correlation.
type Manager struct {
	logger         *Logger.Logger
	sessions       map[uuid.UUID]*Session
	mutex          sync.RWMutex
	cleanupTicker  *time.Ticker
	stopCleanup    chan struct{}
	sessionTimeout time.Duration
}

func NewManager(logger *Logger.Logger) *Manager {
	m := &Manager{
		logger:         logger,
		sessions:       make(map[uuid.UUID]*Session),
		stopCleanup:    make(chan struct{}),
		sessionTimeout: 30 * time.Minute,
	}
	m.startCleanupRoutine()
	return m
}

// Register tracks a new session.
func (m *Manager) Register(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.sessions[session.ID] = session
	m.logger.Infof("registered %s session %s", session.Mode, session.ID)
}

// Unregister drops a session once its Run loop returned.
func (m *Manager) Unregister(id uuid.UUID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.sessions[id]; exists {
		delete(m.sessions, id)
		m.logger.Infof("unregistered session %s", id)
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// SetSessionTimeout overrides the idle timeout used by the reaper.
func (m *Manager) SetSessionTimeout(timeout time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessionTimeout = timeout
}

// Stats reports manager-level and per-session statistics.
func (m *Manager) Stats() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	sessionStats := make([]map[string]interface{}, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessionStats = append(sessionStats, map[string]interface{}{
			"session_id":      session.ID.String(),
			"mode":            string(session.Mode),
			"state":           session.State(),
			"connected_at":    session.ConnectedAt,
			"last_active":     session.LastActive(),
			"requests_served": session.RequestsServed(),
		})
	}

	return map[string]interface{}{
		"active_sessions": len(m.sessions),
		"session_timeout": m.sessionTimeout.String(),
		"sessions":        sessionStats,
	}
}

func (m *Manager) startCleanupRoutine() {
	m.cleanupTicker = time.NewTicker(5 * time.Minute)

	go func() {
		for {
			select {
			case <-m.cleanupTicker.C:
				m.reapIdleSessions()
			case <-m.stopCleanup:
				m.cleanupTicker.Stop()
				return
			}
		}
	}()
}

// reapIdleSessions force-closes sessions idle past the timeout. Closing the
// transport makes the session's read pump fail, which runs its normal
// teardown path.
func (m *Manager) reapIdleSessions() {
	m.mutex.RLock()
	var expired []*Session
	for _, session := range m.sessions {
		if session.IsExpired(m.sessionTimeout) {
			expired = append(expired, session)
		}
	}
	m.mutex.RUnlock()

	for _, session := range expired {
		m.logger.Infof("closing idle session %s", session.ID)
		session.Shutdown()
	}
}

// Close shuts down the manager and every live session.
func (m *Manager) Close() error {
	close(m.stopCleanup)

	m.mutex.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mutex.RUnlock()

	for _, session := range sessions {
		session.Shutdown()
	}

	m.logger.Infof("connection manager closed (%d sessions)", len(sessions))
	return nil
}
