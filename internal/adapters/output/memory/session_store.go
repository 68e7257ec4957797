package memory

import (
	"sync"
	"sync/atomic"
	"time"

	"file-utility-bot/internal/domain"
	"file-utility-bot/internal/ports/output"
)

// Compile-time check to ensure MemorySessionStore implements SessionStore interface
var _ output.SessionStore = (*MemorySessionStore)(nil)

// MemorySessionStore struct - Output adapter for in-memory session storage
// A single mutex guards the map and every LastAccessTime write, so the idle
// sweep can read access times while dispatch mutates other session fields.
// Resources of replaced or evicted sessions are handed to the tracker.
type MemorySessionStore struct {
	mu         sync.Mutex
	sessions   map[domain.IdentityKey]*domain.Session
	tracker    output.ResourceTracker
	generation atomic.Uint64
	now        func() time.Time
}

// NewMemorySessionStore creates an empty store that releases session files through tracker
func NewMemorySessionStore(tracker output.ResourceTracker) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[domain.IdentityKey]*domain.Session),
		tracker:  tracker,
		now:      time.Now,
	}
}

func (m *MemorySessionStore) newSession(key domain.IdentityKey) *domain.Session {
	session := domain.NewSession(key, m.generation.Add(1))
	session.LastAccessTime = m.now()
	return session
}

// GetOrCreate retrieves the session for key, creating an idle one if absent.
// LastAccessTime is updated on every call.
func (m *MemorySessionStore) GetOrCreate(key domain.IdentityKey) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[key]
	if !exists {
		session = m.newSession(key)
		m.sessions[key] = session
		return session, nil
	}

	session.LastAccessTime = m.now()
	return session, nil
}

// Reset installs a fresh session at key and discards everything the previous one owned.
// Resetting a key that has no session just creates one.
func (m *MemorySessionStore) Reset(key domain.IdentityKey) (*domain.Session, error) {
	m.mu.Lock()
	previous := m.sessions[key]
	session := m.newSession(key)
	m.sessions[key] = session
	m.mu.Unlock()

	if previous != nil {
		m.tracker.Discard(previous.OwnedPaths()...)
	}
	return session, nil
}

// IdleKeys lists keys untouched for at least idleFor
func (m *MemorySessionStore) IdleKeys(idleFor time.Duration) []domain.IdentityKey {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	keys := make([]domain.IdentityKey, 0)
	for key, session := range m.sessions {
		if session.IsIdleFor(idleFor, now) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Evict removes the session at key when it is still idle.
// This operation is idempotent - evicting a missing key returns false without error.
func (m *MemorySessionStore) Evict(key domain.IdentityKey, idleFor time.Duration) (bool, error) {
	m.mu.Lock()
	session, exists := m.sessions[key]
	if !exists || !session.IsIdleFor(idleFor, m.now()) {
		m.mu.Unlock()
		return false, nil
	}
	delete(m.sessions, key)
	m.mu.Unlock()

	m.tracker.Discard(session.OwnedPaths()...)
	return true, nil
}

// Len returns the number of live sessions
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
