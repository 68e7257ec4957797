package output

import (
	"time"

	"file-utility-bot/internal/domain"
)

// SessionStore interface - Output port
// Process-wide mapping from identity key to session. Implementations must be
// safe for concurrent use across keys. Callers serialize access per key.
type SessionStore interface {
	// GetOrCreate returns the live session for key, installing an empty idle
	// session when none exists. LastAccessTime is refreshed.
	GetOrCreate(key domain.IdentityKey) (*domain.Session, error)

	// Reset releases every resource owned by the current session and installs
	// a fresh idle session with a new generation.
	Reset(key domain.IdentityKey) (*domain.Session, error)

	// IdleKeys lists keys whose session was untouched for at least idleFor
	IdleKeys(idleFor time.Duration) []domain.IdentityKey

	// Evict releases and removes the session if it is still idle.
	// Returns false when the session was touched in the meantime.
	Evict(key domain.IdentityKey, idleFor time.Duration) (bool, error)

	// Len returns the number of live sessions
	Len() int
}
