package domain

import "errors"

// Session and state machine errors

var (
	// ErrInvalidTransition indicates a step change the transition table forbids
	ErrInvalidTransition = errors.New("invalid step transition")

	// ErrNotCollecting indicates a collection append outside a collecting step
	ErrNotCollecting = errors.New("session is not collecting files")
)

// User input errors

var (
	// ErrNoFile indicates an operation was chosen with no file uploaded
	ErrNoFile = errors.New("no file")

	// ErrWrongKind indicates the uploaded file is not of the required kind
	ErrWrongKind = errors.New("wrong file kind")

	// ErrInvalidRange indicates a page range whose end precedes its start
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidPage indicates a page token that is not an integer
	ErrInvalidPage = errors.New("invalid page number")

	// ErrNoValidPages indicates every requested page was out of bounds
	ErrNoValidPages = errors.New("no valid pages")

	// ErrNotEnoughFiles indicates fewer collected files than the operation needs
	ErrNotEnoughFiles = errors.New("not enough files")

	// ErrNonConformingFile indicates a collected file of the wrong kind
	ErrNonConformingFile = errors.New("non-conforming file")
)

// Execution errors

var (
	// ErrQueueFull indicates the worker queue cannot accept another operation
	ErrQueueFull = errors.New("operation queue is full")

	// ErrMissingTool indicates an external binary is not installed
	ErrMissingTool = errors.New("required tool is not installed")
)

// UserError is a user-correctable failure. Its message is shown verbatim.
type UserError struct {
	Err     error
	Message string
}

// NewUserError wraps a sentinel with the text shown to the user
func NewUserError(err error, message string) *UserError {
	return &UserError{Err: err, Message: message}
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// IsUserError reports whether err carries a UserError
func IsUserError(err error) bool {
	var userErr *UserError
	return errors.As(err, &userErr)
}
