package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileRef points at a materialized file and the name the user knows it by
type FileRef struct {
	Path        string
	DisplayName string
}

// Ext returns the lower-cased extension of the stored path, dot included
func (f FileRef) Ext() string {
	return strings.ToLower(filepath.Ext(f.Path))
}

// Session represents the menu state of one identity
type Session struct {
	Key            IdentityKey
	Generation     uint64    // Changes every time a fresh session is installed
	Step           Step      // Current menu position
	PrimaryFile    *FileRef  // Most recent single upload
	Collection     []FileRef // Uploads gathered while collecting
	CreatedAt      time.Time
	LastAccessTime time.Time // For idle eviction
}

// NewSession creates an empty idle session
func NewSession(key IdentityKey, generation uint64) *Session {
	now := time.Now()
	return &Session{
		Key:            key,
		Generation:     generation,
		Step:           StepIdle,
		Collection:     make([]FileRef, 0),
		CreatedAt:      now,
		LastAccessTime: now,
	}
}

// Transition moves the session to another step if the table allows it.
// Entering a collecting step starts an empty collection.
func (s *Session) Transition(to Step) error {
	if !CanTransition(s.Step, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Step, to)
	}
	s.Step = to
	if to.IsCollecting() {
		s.Collection = make([]FileRef, 0)
	}
	return nil
}

// SetPrimary records the file the next operation works on
func (s *Session) SetPrimary(ref FileRef) {
	s.PrimaryFile = &ref
}

// Append adds a file to the collection
func (s *Session) Append(ref FileRef) error {
	if !s.Step.IsCollecting() {
		return fmt.Errorf("%w: step %s", ErrNotCollecting, s.Step)
	}
	s.Collection = append(s.Collection, ref)
	return nil
}

// CollectionSnapshot returns a copy of the collection
func (s *Session) CollectionSnapshot() []FileRef {
	snapshot := make([]FileRef, len(s.Collection))
	copy(snapshot, s.Collection)
	return snapshot
}

// OwnedPaths lists every path the session is responsible for deleting
func (s *Session) OwnedPaths() []string {
	paths := make([]string, 0, len(s.Collection)+1)
	if s.PrimaryFile != nil && s.PrimaryFile.Path != "" {
		paths = append(paths, s.PrimaryFile.Path)
	}
	for _, ref := range s.Collection {
		if ref.Path != "" {
			paths = append(paths, ref.Path)
		}
	}
	return paths
}

// IsIdleFor reports whether the session was untouched for at least d
func (s *Session) IsIdleFor(d time.Duration, now time.Time) bool {
	return now.Sub(s.LastAccessTime) >= d
}
