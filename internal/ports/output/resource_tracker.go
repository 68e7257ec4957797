package output

import (
	"io"

	"file-utility-bot/internal/domain"
)

// ResourceTracker interface - Output port
// Owns every temporary file on disk. Paths are unique per process and the
// tracker deletes each path at most once.
type ResourceTracker interface {
	// MaterializeInbound drains source into a fresh file keeping the
	// extension of suggestedName
	MaterializeInbound(source io.Reader, suggestedName string) (domain.FileRef, error)

	// AllocateOutputPath returns a fresh path ending in ext. Nothing is created.
	AllocateOutputPath(ext string) (string, error)

	// AllocateOutputDir creates a fresh directory for multi-file outputs
	AllocateOutputDir() (string, error)

	// Lease pins paths while an operation reads them. Discards requested
	// during the lease run when the returned release func is called.
	Lease(paths ...string) (release func())

	// Discard deletes paths, deferring those under lease. Missing paths are ignored.
	Discard(paths ...string)
}
