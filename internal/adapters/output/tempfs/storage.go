package tempfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"file-utility-bot/internal/domain"
	"file-utility-bot/internal/ports/output"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure Storage implements ResourceTracker interface
var _ output.ResourceTracker = (*Storage)(nil)

const (
	inboundPrefix = "tg_"
	outputPrefix  = "tg_out_"
	dirPrefix     = "unz_"
	lockFileName  = ".lock"
	defaultName   = "file"
	subDirName    = "filebot"
)

type entry struct {
	leases    int
	discarded bool // Discard was requested while leased
	dir       bool
}

// Storage struct - Output adapter owning temporary files under one directory
type Storage struct {
	root  string
	lock  *flock.Flock
	mu    sync.Mutex
	owned map[string]*entry
}

// NewStorage prepares <baseDir>/filebot. When the directory lock is acquired,
// files left behind by a previous process are swept.
func NewStorage(baseDir string) (*Storage, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	root := filepath.Join(baseDir, subDirName)
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create temp dir %s: %w", root, err)
	}

	s := &Storage{
		root:  root,
		lock:  flock.New(filepath.Join(root, lockFileName)),
		owned: make(map[string]*entry),
	}

	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock temp dir %s: %w", root, err)
	}
	if locked {
		s.sweepOrphans()
	} else {
		logrus.Warnf("Temp dir %s is locked by another process, skipping orphan sweep", root)
	}

	return s, nil
}

// Root returns the directory holding every tracked file
func (s *Storage) Root() string {
	return s.root
}

// Close releases the directory lock
func (s *Storage) Close() error {
	return s.lock.Unlock()
}

func (s *Storage) sweepOrphans() {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		logrus.Errorf("Failed to read temp dir %s: %v", s.root, err)
		return
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, inboundPrefix) && !strings.HasPrefix(name, dirPrefix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, name)); err != nil {
			logrus.Warnf("Failed to remove orphan %s: %v", name, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logrus.Infof("Removed %d orphaned temp files from %s", removed, s.root)
	}
}

func (s *Storage) track(path string, dir bool) {
	s.mu.Lock()
	s.owned[path] = &entry{dir: dir}
	s.mu.Unlock()
}

// MaterializeInbound drains source into a new file named tg_<uuid><ext>
func (s *Storage) MaterializeInbound(source io.Reader, suggestedName string) (domain.FileRef, error) {
	displayName := filepath.Base(strings.TrimSpace(suggestedName))
	if displayName == "" || displayName == "." || displayName == string(filepath.Separator) {
		displayName = defaultName
	}
	ext := strings.ToLower(filepath.Ext(displayName))

	path := filepath.Join(s.root, inboundPrefix+uuid.NewString()+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(f, source); err != nil {
		f.Close()
		os.Remove(path)
		return domain.FileRef{}, fmt.Errorf("failed to store inbound file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return domain.FileRef{}, fmt.Errorf("failed to store inbound file: %w", err)
	}

	s.track(path, false)
	return domain.FileRef{Path: path, DisplayName: displayName}, nil
}

// AllocateOutputPath returns tg_out_<uuid>.<ext>. The caller creates the file.
func (s *Storage) AllocateOutputPath(ext string) (string, error) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		return "", fmt.Errorf("invalid output extension %q", ext)
	}

	path := filepath.Join(s.root, outputPrefix+uuid.NewString()+"."+ext)
	s.track(path, false)
	return path, nil
}

// AllocateOutputDir creates unz_<uuid>
func (s *Storage) AllocateOutputDir() (string, error) {
	path := filepath.Join(s.root, dirPrefix+uuid.NewString())
	if err := os.Mkdir(path, 0o700); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	s.track(path, true)
	return path, nil
}

// Lease pins tracked paths until release is called. Release is idempotent.
func (s *Storage) Lease(paths ...string) func() {
	s.mu.Lock()
	leased := make([]string, 0, len(paths))
	for _, p := range paths {
		if e, ok := s.owned[p]; ok {
			e.leases++
			leased = append(leased, p)
		}
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.release(leased)
		})
	}
}

func (s *Storage) release(paths []string) {
	s.mu.Lock()
	ready := make([]string, 0)
	dirs := make(map[string]bool)
	for _, p := range paths {
		e, ok := s.owned[p]
		if !ok {
			continue
		}
		e.leases--
		if e.leases <= 0 && e.discarded {
			delete(s.owned, p)
			ready = append(ready, p)
			dirs[p] = e.dir
		}
	}
	s.mu.Unlock()

	for _, p := range ready {
		s.remove(p, dirs[p])
	}
}

// Discard deletes tracked paths once. Leased paths are deleted on release,
// untracked paths are ignored.
func (s *Storage) Discard(paths ...string) {
	s.mu.Lock()
	ready := make([]string, 0, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		e, ok := s.owned[p]
		if !ok {
			continue
		}
		if e.leases > 0 {
			e.discarded = true
			continue
		}
		delete(s.owned, p)
		ready = append(ready, p)
		dirs[p] = e.dir
	}
	s.mu.Unlock()

	for _, p := range ready {
		s.remove(p, dirs[p])
	}
}

// Tracked reports whether path is still owned
func (s *Storage) Tracked(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.owned[path]
	return ok
}

func (s *Storage) remove(path string, dir bool) {
	var err error
	if dir {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("Failed to remove temp file %s: %v", path, err)
	}
}
