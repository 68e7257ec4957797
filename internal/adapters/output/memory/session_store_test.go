package memory

import (
	"io"
	"sync"
	"testing"
	"time"

	"file-utility-bot/internal/domain"
)

// MockResourceTracker implements output.ResourceTracker for testing
type MockResourceTracker struct {
	mu sync.Mutex

	// Captured values for assertions
	DiscardCalls [][]string
}

func (m *MockResourceTracker) MaterializeInbound(_ io.Reader, _ string) (domain.FileRef, error) {
	return domain.FileRef{}, nil
}

func (m *MockResourceTracker) AllocateOutputPath(ext string) (string, error) {
	return "/tmp/out." + ext, nil
}

func (m *MockResourceTracker) AllocateOutputDir() (string, error) {
	return "/tmp/out", nil
}

func (m *MockResourceTracker) Lease(paths ...string) func() {
	return func() {}
}

func (m *MockResourceTracker) Discard(paths ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DiscardCalls = append(m.DiscardCalls, paths)
}

var testKey = domain.NewIdentityKey(1001, 42)

// TestGetOrCreateCreatesIdleSession tests that a first lookup installs an empty session
func TestGetOrCreateCreatesIdleSession(t *testing.T) {
	store := NewMemorySessionStore(&MockResourceTracker{})

	session, err := store.GetOrCreate(testKey)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if session.Step != domain.StepIdle {
		t.Errorf("expected idle step, got %s", session.Step)
	}

	if store.Len() != 1 {
		t.Errorf("expected 1 session, got %d", store.Len())
	}
}

// TestGetOrCreateIsIdempotent tests that repeated lookups return the same session
func TestGetOrCreateIsIdempotent(t *testing.T) {
	store := NewMemorySessionStore(&MockResourceTracker{})

	first, _ := store.GetOrCreate(testKey)
	first.Step = domain.StepMainMenu
	second, _ := store.GetOrCreate(testKey)

	if first != second {
		t.Error("expected the same session pointer on the second lookup")
	}

	if second.Step != domain.StepMainMenu {
		t.Errorf("expected step main_menu to persist, got %s", second.Step)
	}
}

// TestSessionsAreIndependentPerConversation tests keying by conversation and sender
func TestSessionsAreIndependentPerConversation(t *testing.T) {
	store := NewMemorySessionStore(&MockResourceTracker{})

	private, _ := store.GetOrCreate(domain.NewIdentityKey(42, 42))
	group, _ := store.GetOrCreate(domain.NewIdentityKey(-500, 42))
	private.Step = domain.StepMainMenu

	if group.Step != domain.StepIdle {
		t.Errorf("expected group session to stay idle, got %s", group.Step)
	}

	if store.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", store.Len())
	}
}

// TestResetDiscardsOwnedPathsAndInstallsFreshSession tests the reset contract
func TestResetDiscardsOwnedPathsAndInstallsFreshSession(t *testing.T) {
	tracker := &MockResourceTracker{}
	store := NewMemorySessionStore(tracker)

	session, _ := store.GetOrCreate(testKey)
	session.SetPrimary(domain.FileRef{Path: "/tmp/a.pdf"})
	_ = session.Transition(domain.StepMainMenu)
	oldGeneration := session.Generation

	fresh, err := store.Reset(testKey)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(tracker.DiscardCalls) != 1 || len(tracker.DiscardCalls[0]) != 1 || tracker.DiscardCalls[0][0] != "/tmp/a.pdf" {
		t.Errorf("expected /tmp/a.pdf to be discarded, got %v", tracker.DiscardCalls)
	}

	if fresh.Generation == oldGeneration {
		t.Error("expected a new generation after reset")
	}

	// Reset followed by GetOrCreate yields an empty idle session
	after, _ := store.GetOrCreate(testKey)
	if after != fresh {
		t.Error("expected GetOrCreate to return the session installed by Reset")
	}
	if after.Step != domain.StepIdle || after.PrimaryFile != nil || len(after.Collection) != 0 {
		t.Errorf("expected empty idle session, got step=%s primary=%v collection=%d", after.Step, after.PrimaryFile, len(after.Collection))
	}
}

// TestIdleKeysAndEvict tests the idle sweep contract
func TestIdleKeysAndEvict(t *testing.T) {
	tracker := &MockResourceTracker{}
	store := NewMemorySessionStore(tracker)
	now := time.Now()
	store.now = func() time.Time { return now }

	stale, _ := store.GetOrCreate(testKey)
	stale.SetPrimary(domain.FileRef{Path: "/tmp/stale.zip"})
	_, _ = store.GetOrCreate(domain.NewIdentityKey(2, 2))

	now = now.Add(20 * time.Minute)
	_, _ = store.GetOrCreate(domain.NewIdentityKey(2, 2))
	now = now.Add(15 * time.Minute)

	keys := store.IdleKeys(30 * time.Minute)
	if len(keys) != 1 || keys[0] != testKey {
		t.Fatalf("expected only %v to be idle, got %v", testKey, keys)
	}

	evicted, err := store.Evict(testKey, 30*time.Minute)
	if err != nil || !evicted {
		t.Fatalf("expected eviction, got evicted=%v err=%v", evicted, err)
	}

	if store.Len() != 1 {
		t.Errorf("expected 1 remaining session, got %d", store.Len())
	}

	if len(tracker.DiscardCalls) != 1 || tracker.DiscardCalls[0][0] != "/tmp/stale.zip" {
		t.Errorf("expected evicted session files to be discarded, got %v", tracker.DiscardCalls)
	}
}

// TestEvictSkipsTouchedSession tests that a session used after listing survives
func TestEvictSkipsTouchedSession(t *testing.T) {
	store := NewMemorySessionStore(&MockResourceTracker{})
	now := time.Now()
	store.now = func() time.Time { return now }

	_, _ = store.GetOrCreate(testKey)
	now = now.Add(time.Hour)
	if len(store.IdleKeys(30*time.Minute)) != 1 {
		t.Fatal("expected the session to be idle")
	}

	_, _ = store.GetOrCreate(testKey)

	evicted, err := store.Evict(testKey, 30*time.Minute)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if evicted {
		t.Error("expected touched session to survive eviction")
	}

	// Evicting a missing key is a no-op
	evicted, err = store.Evict(domain.NewIdentityKey(9, 9), 0)
	if err != nil || evicted {
		t.Errorf("expected no-op for missing key, got evicted=%v err=%v", evicted, err)
	}
}
