package session

import (
	"errors"
	"time"

	apperrors "jdoptim/internal/errors"

	"github.com/google/uuid"
)

// Manager is the façade over one session: it owns the document, the event
// log and the version cache, and delegates persistence to the store.
type Manager struct {
	store  *Store
	logger *apperrors.Logger

	session *Session
	events  *EventLog
	cache   *VersionCache
}

// New creates a fresh session for username and persists it immediately so
// the document exists even if the user never performs an action.
func New(store *Store, logger *apperrors.Logger, username string) (*Manager, error) {
	s := &Session{
		SessionID:        uuid.NewString(),
		Username:         username,
		SessionStartTime: time.Now().UTC(),
	}
	s.normalize()

	if err := store.Write(s); err != nil {
		return nil, err
	}

	return attach(store, logger, s), nil
}

// Load resumes an existing session. A missing or corrupt document yields
// ErrNotFound unchanged so callers can decide whether to start fresh.
func Load(store *Store, logger *apperrors.Logger, sessionID string) (*Manager, error) {
	s, err := store.Read(sessionID)
	if err != nil {
		return nil, err
	}
	return attach(store, logger, s), nil
}

// LoadOrNew resumes sessionID when it exists and starts a fresh session
// otherwise. Only a real I/O failure on the fresh write is returned.
func LoadOrNew(store *Store, logger *apperrors.Logger, sessionID, username string) (*Manager, error) {
	if sessionID != "" {
		m, err := Load(store, logger, sessionID)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if logger != nil {
			logger.Warn("Session not found, starting a new one",
				"requested_session_id", sessionID)
		}
	}
	return New(store, logger, username)
}

func attach(store *Store, logger *apperrors.Logger, s *Session) *Manager {
	return &Manager{
		store:   store,
		logger:  logger,
		session: s,
		events:  newEventLog(s, store, logger),
		cache:   newVersionCache(s, store, logger),
	}
}

// ID returns the session identifier.
func (m *Manager) ID() string {
	return m.session.SessionID
}

// Session exposes the underlying document for read access.
func (m *Manager) Session() *Session {
	return m.session
}

// Events returns the append-only event log for this session.
func (m *Manager) Events() *EventLog {
	return m.events
}

// Cache returns the per-session version cache.
func (m *Manager) Cache() *VersionCache {
	return m.cache
}

// UpdateUsername changes the session owner. Failures are logged and
// swallowed like any other audit write.
func (m *Manager) UpdateUsername(username string) {
	if username == "" || username == m.session.Username {
		return
	}
	m.session.Username = username
	if err := m.store.Write(m.session); err != nil && m.logger != nil {
		m.logger.LogError(err, "Failed to persist username change",
			"session_id", m.session.SessionID)
	}
}

// ListSessions returns summaries of all stored sessions, newest first.
func (m *Manager) ListSessions() ([]Summary, error) {
	return m.store.List()
}

// Delete removes a stored session document.
func (m *Manager) Delete(sessionID string) error {
	return m.store.Delete(sessionID)
}

// Prune applies the retention policy to the store. See Store.Prune.
func (m *Manager) Prune(maxSessions int, maxAge time.Duration) (int, error) {
	return m.store.Prune(maxSessions, maxAge)
}
