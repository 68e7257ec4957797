package domain

// Artifact is a file produced by an operation and sent to the user.
// The session never owns it.
type Artifact struct {
	Path    string
	Name    string // Suggested file name shown to the user
	Caption string
}

// ResultKind tags the OperationResult variant
type ResultKind int

const (
	// ResultMessage - informational text, nothing produced
	ResultMessage ResultKind = iota
	// ResultArtifact - one output file
	ResultArtifact
	// ResultArtifacts - several output files
	ResultArtifacts
)

// OperationResult is the outcome of a successful operation. Exactly one of
// the variants is populated, selected by Kind.
type OperationResult struct {
	kind      ResultKind
	message   string
	artifacts []Artifact
}

// MessageResult builds the informational variant
func MessageResult(message string) OperationResult {
	return OperationResult{kind: ResultMessage, message: message}
}

// ArtifactResult builds the single-file variant
func ArtifactResult(artifact Artifact) OperationResult {
	return OperationResult{kind: ResultArtifact, artifacts: []Artifact{artifact}}
}

// ArtifactsResult builds the multi-file variant
func ArtifactsResult(artifacts []Artifact) OperationResult {
	copied := make([]Artifact, len(artifacts))
	copy(copied, artifacts)
	return OperationResult{kind: ResultArtifacts, artifacts: copied}
}

// Kind returns the variant tag
func (r OperationResult) Kind() ResultKind {
	return r.kind
}

// Match calls the handler for the populated variant and returns its error
func (r OperationResult) Match(
	onMessage func(message string) error,
	onArtifact func(artifact Artifact) error,
	onArtifacts func(artifacts []Artifact) error,
) error {
	switch r.kind {
	case ResultArtifact:
		return onArtifact(r.artifacts[0])
	case ResultArtifacts:
		return onArtifacts(r.artifacts)
	default:
		return onMessage(r.message)
	}
}

// Paths lists every artifact path carried by the result
func (r OperationResult) Paths() []string {
	paths := make([]string, 0, len(r.artifacts))
	for _, a := range r.artifacts {
		paths = append(paths, a.Path)
	}
	return paths
}
