package tempfs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error creating storage, got %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TestMaterializeInboundKeepsExtension tests naming and draining of inbound files
func TestMaterializeInboundKeepsExtension(t *testing.T) {
	storage := newTestStorage(t)

	ref, err := storage.MaterializeInbound(strings.NewReader("%PDF-1.4"), "Quarterly Report.PDF")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.HasSuffix(ref.Path, ".pdf") {
		t.Errorf("expected lower-cased .pdf suffix, got %s", ref.Path)
	}

	if ref.DisplayName != "Quarterly Report.PDF" {
		t.Errorf("expected display name to be kept, got %s", ref.DisplayName)
	}

	if filepath.Dir(ref.Path) != storage.Root() {
		t.Errorf("expected file under %s, got %s", storage.Root(), ref.Path)
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil || string(data) != "%PDF-1.4" {
		t.Errorf("expected file content to be drained, got %q (err=%v)", string(data), err)
	}
}

// TestMaterializeInboundDefaultsName tests missing name hints
func TestMaterializeInboundDefaultsName(t *testing.T) {
	storage := newTestStorage(t)

	ref, err := storage.MaterializeInbound(strings.NewReader("x"), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ref.DisplayName != "file" {
		t.Errorf("expected display name file, got %s", ref.DisplayName)
	}
	if filepath.Ext(ref.Path) != "" {
		t.Errorf("expected no extension, got %s", ref.Path)
	}
}

// TestMaterializeInboundPathsAreUnique tests that equal names never collide
func TestMaterializeInboundPathsAreUnique(t *testing.T) {
	storage := newTestStorage(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		ref, err := storage.MaterializeInbound(strings.NewReader("x"), "same.txt")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if seen[ref.Path] {
			t.Fatalf("expected unique paths, got duplicate %s", ref.Path)
		}
		seen[ref.Path] = true
	}
}

// TestAllocateOutputPath tests output allocation does not create the file
func TestAllocateOutputPath(t *testing.T) {
	storage := newTestStorage(t)

	path, err := storage.AllocateOutputPath(".PNG")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("expected .png suffix, got %s", path)
	}
	if exists(path) {
		t.Error("expected the output file to not exist yet")
	}
	if !storage.Tracked(path) {
		t.Error("expected the output path to be tracked")
	}

	if _, err := storage.AllocateOutputPath(""); err == nil {
		t.Error("expected an error for an empty extension")
	}
}

// TestDiscardDeletesOnce tests deletion and tolerance of missing files
func TestDiscardDeletesOnce(t *testing.T) {
	storage := newTestStorage(t)

	ref, _ := storage.MaterializeInbound(strings.NewReader("x"), "a.txt")
	out, _ := storage.AllocateOutputPath("zip")

	// out was never written; discarding it must not fail
	storage.Discard(ref.Path, out)

	if exists(ref.Path) {
		t.Error("expected inbound file to be deleted")
	}
	if storage.Tracked(ref.Path) || storage.Tracked(out) {
		t.Error("expected discarded paths to be untracked")
	}

	// A file recreated at the same path is no longer owned and survives
	if err := os.WriteFile(ref.Path, []byte("y"), 0o600); err != nil {
		t.Fatal(err)
	}
	storage.Discard(ref.Path)
	if !exists(ref.Path) {
		t.Error("expected a second discard to be a no-op")
	}
}

// TestLeaseDefersDiscard tests that leased files outlive a discard until release
func TestLeaseDefersDiscard(t *testing.T) {
	storage := newTestStorage(t)

	ref, _ := storage.MaterializeInbound(strings.NewReader("x"), "doc.pdf")
	release := storage.Lease(ref.Path)

	storage.Discard(ref.Path)
	if !exists(ref.Path) {
		t.Fatal("expected leased file to survive discard")
	}

	release()
	if exists(ref.Path) {
		t.Error("expected file to be deleted on release")
	}

	// Release is idempotent
	release()
}

// TestLeaseWithoutDiscardKeepsFile tests that ending a lease alone deletes nothing
func TestLeaseWithoutDiscardKeepsFile(t *testing.T) {
	storage := newTestStorage(t)

	ref, _ := storage.MaterializeInbound(strings.NewReader("x"), "doc.pdf")
	first := storage.Lease(ref.Path)
	second := storage.Lease(ref.Path)
	storage.Discard(ref.Path)

	first()
	if !exists(ref.Path) {
		t.Fatal("expected file to survive while a second lease is held")
	}

	second()
	if exists(ref.Path) {
		t.Error("expected file to be deleted after the last lease")
	}

	other, _ := storage.MaterializeInbound(strings.NewReader("x"), "keep.pdf")
	storage.Lease(other.Path)()
	if !exists(other.Path) {
		t.Error("expected file without discard to survive its lease")
	}
}

// TestAllocateOutputDirDiscardRemovesContents tests directory outputs
func TestAllocateOutputDirDiscardRemovesContents(t *testing.T) {
	storage := newTestStorage(t)

	dir, err := storage.AllocateOutputDir()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	inner := filepath.Join(dir, "entry.txt")
	if err := os.WriteFile(inner, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	storage.Discard(dir)
	if exists(dir) || exists(inner) {
		t.Error("expected output dir and its contents to be removed")
	}
}

// TestNewStorageSweepsOrphans tests startup cleanup of files from a previous run
func TestNewStorageSweepsOrphans(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "filebot")
	if err := os.MkdirAll(filepath.Join(root, "unz_old"), 0o700); err != nil {
		t.Fatal(err)
	}
	orphan := filepath.Join(root, "tg_old.pdf")
	unrelated := filepath.Join(root, "notes.txt")
	_ = os.WriteFile(orphan, []byte("x"), 0o600)
	_ = os.WriteFile(unrelated, []byte("x"), 0o600)

	storage, err := NewStorage(base)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer storage.Close()

	if exists(orphan) || exists(filepath.Join(root, "unz_old")) {
		t.Error("expected orphaned files to be swept")
	}
	if !exists(unrelated) {
		t.Error("expected unrelated files to be kept")
	}
}
